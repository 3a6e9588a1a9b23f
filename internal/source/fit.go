package source

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/claude/lanecoach/internal/swim"
	"github.com/tormoder/fit"
)

// FITFile is a pool swim decoded from a FIT activity file. Each active
// length becomes one distance sample and one stroke sample; every record
// carrying a heart rate becomes a one-second heart rate sample.
type FITFile struct {
	Static
	Workout swim.Workout
	Sport   string
	IsSwim  bool
	// ExternalID identifies the file contents and is used for de-duplication.
	ExternalID string
	// PoolLengthMeters is 0 when the file does not declare one.
	PoolLengthMeters float64
}

// OpenFIT reads and decodes a FIT file from disk.
func OpenFIT(path string) (*FITFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open FIT file: %w", err)
	}
	return DecodeFIT(data)
}

// DecodeFIT decodes a FIT activity held in memory.
func DecodeFIT(data []byte) (*FITFile, error) {
	decoded, err := fit.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode FIT file: %w", err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("activity FIT expected: %w", err)
	}
	if len(activity.Sessions) == 0 {
		return nil, fmt.Errorf("activity file has no session message")
	}

	session := activity.Sessions[0]
	sum := sha256.Sum256(data)
	f := &FITFile{
		Sport:            fmt.Sprint(session.Sport),
		IsSwim:           session.Sport == fit.SportSwimming,
		ExternalID:       "fit:" + hex.EncodeToString(sum[:]),
		PoolLengthMeters: safePositive(session.GetPoolLengthScaled()),
	}

	f.Workout = swim.Workout{
		Start:               validTimeOrZero(session.StartTime),
		End:                 validTimeOrZero(session.Timestamp),
		TotalDistanceMeters: safePositive(session.GetTotalDistanceScaled()),
		DurationSeconds:     safePositive(session.GetTotalTimerTimeScaled()),
	}

	for _, l := range activity.Lengths {
		if l == nil || l.LengthType != fit.LengthTypeActive {
			continue
		}
		start, end := validTimeOrZero(l.StartTime), validTimeOrZero(l.Timestamp)
		if start.IsZero() || end.IsZero() {
			continue
		}
		f.Samples.Distance = append(f.Samples.Distance, swim.LapSample{
			Start:          start,
			End:            end,
			DistanceMeters: f.PoolLengthMeters,
		})
		if l.TotalStrokes == math.MaxUint16 {
			continue
		}
		f.Samples.Strokes = append(f.Samples.Strokes, swim.StrokeSample{
			Start:      start,
			End:        end,
			Count:      int(l.TotalStrokes),
			StrokeType: strokeName(l.SwimStroke),
		})
	}

	for _, rec := range activity.Records {
		if rec == nil || rec.HeartRate == math.MaxUint8 {
			continue
		}
		ts := validTimeOrZero(rec.Timestamp)
		if ts.IsZero() {
			continue
		}
		f.Samples.HeartRate = append(f.Samples.HeartRate, swim.HeartRateSample{
			Start: ts,
			End:   ts.Add(time.Second),
			BPM:   float64(rec.HeartRate),
		})
	}

	if f.Workout.Start.IsZero() && len(f.Samples.Distance) > 0 {
		f.Workout.Start = f.Samples.Distance[0].Start
	}
	if f.Workout.End.IsZero() && len(f.Samples.Distance) > 0 {
		f.Workout.End = f.Samples.Distance[len(f.Samples.Distance)-1].End
	}
	if f.Workout.Start.IsZero() || f.Workout.End.IsZero() {
		return nil, fmt.Errorf("activity file has no usable start or end time")
	}
	return f, nil
}

// strokeName maps a FIT swim stroke to a display name. Unset strokes have
// no name.
func strokeName(s fit.SwimStroke) *string {
	var name string
	switch s {
	case fit.SwimStrokeFreestyle:
		name = "Freestyle"
	case fit.SwimStrokeBackstroke:
		name = "Backstroke"
	case fit.SwimStrokeBreaststroke:
		name = "Breaststroke"
	case fit.SwimStrokeButterfly:
		name = "Butterfly"
	case fit.SwimStrokeDrill:
		name = "Drill"
	case fit.SwimStrokeMixed:
		name = "Mixed"
	case fit.SwimStrokeIm:
		name = "IM"
	default:
		return nil
	}
	return &name
}

func validTimeOrZero(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t
}

func safePositive(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
