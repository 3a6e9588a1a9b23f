// Package export flattens analyzed sessions into one row per lap and writes
// the rows as CSV or Parquet.
package export

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/claude/lanecoach/internal/models"
)

// LapRow is one lap of one session.
type LapRow struct {
	SessionID       string
	SessionDate     time.Time
	SetIndex        int
	LapIndex        int
	Start           time.Time
	End             time.Time
	DistanceMeters  float64
	DurationSeconds float64
	StrokeCount     *int
	Swolf           *int
	PaceMinPer100m  *float64
	StrokeType      *string
	AvgHeartRateBPM *int
}

// Rows flattens the lap tables of the given sessions. Sessions without a
// detail document contribute no rows. Indexes are 1-based.
func Rows(sessions []models.Session) []LapRow {
	var rows []LapRow
	for _, s := range sessions {
		if s.Detail == nil {
			continue
		}
		for si, set := range s.Detail.Sets {
			for li, lap := range set.Laps {
				rows = append(rows, LapRow{
					SessionID:       s.ID.String(),
					SessionDate:     s.Date,
					SetIndex:        si + 1,
					LapIndex:        li + 1,
					Start:           lap.Start,
					End:             lap.End,
					DistanceMeters:  lap.DistanceMeters,
					DurationSeconds: lap.DurationSeconds,
					StrokeCount:     lap.StrokeCount,
					Swolf:           lap.Swolf,
					PaceMinPer100m:  lap.PaceMinPer100m,
					StrokeType:      lap.StrokeType,
					AvgHeartRateBPM: lap.AvgHeartRateBPM,
				})
			}
		}
	}
	return rows
}

var csvHeader = []string{
	"session_id", "session_date", "set_index", "lap_index", "start_utc", "end_utc",
	"distance_m", "duration_s", "stroke_count", "swolf", "pace_min_per_100m",
	"stroke_type", "avg_hr_bpm",
}

// WriteCSV writes rows with a header line. Missing values are empty cells.
func WriteCSV(out io.Writer, rows []LapRow) error {
	w := csv.NewWriter(out)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.SessionID,
			r.SessionDate.UTC().Format(time.DateOnly),
			strconv.Itoa(r.SetIndex),
			strconv.Itoa(r.LapIndex),
			r.Start.UTC().Format(time.RFC3339),
			r.End.UTC().Format(time.RFC3339),
			formatFloat(r.DistanceMeters),
			formatFloat(r.DurationSeconds),
			formatIntPtr(r.StrokeCount),
			formatIntPtr(r.Swolf),
			formatFloatPtr(r.PaceMinPer100m),
			stringOrEmpty(r.StrokeType),
			formatIntPtr(r.AvgHeartRateBPM),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func stringOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func floatOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func intOrMinusOne(v *int) int64 {
	if v == nil {
		return -1
	}
	return int64(*v)
}
