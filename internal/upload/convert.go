package upload

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/claude/lanecoach/internal/models"
	"github.com/claude/lanecoach/internal/source"
)

// convertFIT turns a decoded FIT swim into an ingest payload: one metric per
// sample series plus the workout header, keyed by the file's external ID.
func convertFIT(f *source.FITFile, name string) (models.Payload, error) {
	var payload models.Payload

	distance := models.PayloadMetric{Name: models.MetricSwimDistance, Units: "m", Source: "fit"}
	for _, s := range f.Samples.Distance {
		raw, err := json.Marshal(models.PayloadInterval{
			Start: models.Timestamp{Time: s.Start},
			End:   models.Timestamp{Time: s.End},
			Qty:   s.DistanceMeters,
		})
		if err != nil {
			return payload, fmt.Errorf("encoding distance sample: %w", err)
		}
		distance.Data = append(distance.Data, raw)
	}

	strokes := models.PayloadMetric{Name: models.MetricSwimStrokes, Units: "count", Source: "fit"}
	for _, s := range f.Samples.Strokes {
		raw, err := json.Marshal(models.PayloadInterval{
			Start:       models.Timestamp{Time: s.Start},
			End:         models.Timestamp{Time: s.End},
			Qty:         float64(s.Count),
			StrokeStyle: s.StrokeType,
		})
		if err != nil {
			return payload, fmt.Errorf("encoding stroke sample: %w", err)
		}
		strokes.Data = append(strokes.Data, raw)
	}

	hr := models.PayloadMetric{Name: models.MetricHeartRate, Units: "bpm", Source: "fit"}
	for _, s := range f.Samples.HeartRate {
		raw, err := json.Marshal(models.PayloadHeartRatePoint{
			Date: models.Timestamp{Time: s.Start},
			Min:  s.BPM,
			Avg:  s.BPM,
			Max:  s.BPM,
		})
		if err != nil {
			return payload, fmt.Errorf("encoding heart rate sample: %w", err)
		}
		hr.Data = append(hr.Data, raw)
	}

	for _, m := range []models.PayloadMetric{distance, strokes, hr} {
		if len(m.Data) > 0 {
			payload.Data.Metrics = append(payload.Data.Metrics, m)
		}
	}

	w := models.PayloadWorkout{
		ID:       f.ExternalID,
		Name:     name,
		Start:    models.Timestamp{Time: f.Workout.Start},
		End:      models.Timestamp{Time: f.Workout.End},
		Duration: f.Workout.DurationSeconds,
	}
	if f.Workout.TotalDistanceMeters > 0 {
		w.Distance = &models.Quantity{Qty: f.Workout.TotalDistanceMeters, Units: "m"}
	}
	if f.PoolLengthMeters > 0 {
		w.PoolLength = &models.Quantity{Qty: f.PoolLengthMeters, Units: "m"}
	}
	payload.Data.Workouts = []models.PayloadWorkout{w}
	return payload, nil
}

// workoutName names the workout after its pool, e.g. "Pool Swim 25m".
func workoutName(f *source.FITFile) string {
	if f.PoolLengthMeters > 0 {
		return "Pool Swim " + strconv.FormatFloat(f.PoolLengthMeters, 'f', -1, 64) + "m"
	}
	return "Swim"
}
