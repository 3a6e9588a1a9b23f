package ingest

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/claude/lanecoach/internal/models"
	"github.com/claude/lanecoach/internal/swim"
)

// convertDistance parses swimming_distance points into lap samples in meters.
func convertDistance(m models.PayloadMetric) ([]swim.LapSample, int, error) {
	var (
		out     []swim.LapSample
		skipped int
	)
	for _, raw := range m.Data {
		var dp models.PayloadInterval
		if err := json.Unmarshal(raw, &dp); err != nil {
			skipped++
			continue
		}
		meters, err := models.ToMeters(dp.Qty, m.Units)
		if err != nil {
			return nil, 0, fmt.Errorf("metric %s: %w", m.Name, err)
		}
		if dp.End.Before(dp.Start.Time) {
			skipped++
			continue
		}
		out = append(out, swim.LapSample{Start: dp.Start.Time, End: dp.End.Time, DistanceMeters: meters})
	}
	return out, skipped, nil
}

// convertStrokes parses swimming_stroke_count points.
func convertStrokes(m models.PayloadMetric) ([]swim.StrokeSample, int) {
	var (
		out     []swim.StrokeSample
		skipped int
	)
	for _, raw := range m.Data {
		var dp models.PayloadInterval
		if err := json.Unmarshal(raw, &dp); err != nil || dp.Qty < 0 {
			skipped++
			continue
		}
		out = append(out, swim.StrokeSample{
			Start:      dp.Start.Time,
			End:        dp.End.Time,
			Count:      int(math.Round(dp.Qty)),
			StrokeType: dp.StrokeStyle,
		})
	}
	return out, skipped
}

// convertHeartRate parses heart_rate points. Each point is an instant, so
// its start and end coincide.
func convertHeartRate(m models.PayloadMetric) ([]swim.HeartRateSample, int) {
	var (
		out     []swim.HeartRateSample
		skipped int
	)
	for _, raw := range m.Data {
		var dp models.PayloadHeartRatePoint
		if err := json.Unmarshal(raw, &dp); err != nil || dp.Avg <= 0 {
			skipped++
			continue
		}
		out = append(out, swim.HeartRateSample{Start: dp.Date.Time, End: dp.Date.Time, BPM: dp.Avg})
	}
	return out, skipped
}
