// Package swim turns raw pool-swim samples into laps and sets and computes
// efficiency and pace metrics over them.
package swim

import "time"

// RestThreshold is the longest pause between two lengths that still counts as
// continuous swimming. A gap strictly longer than this closes the current set.
const RestThreshold = 30 * time.Second

// UnknownStroke is reported as a set's majority stroke when no lap carries a
// stroke type.
const UnknownStroke = "Unknown"

// LapSample is one distance sample from the sample source. One sample is one lap.
type LapSample struct {
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	DistanceMeters float64   `json:"distance_m"`
}

// StrokeSample is a stroke-count sample, optionally tagged with the stroke style.
type StrokeSample struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Count      int       `json:"count"`
	StrokeType *string   `json:"stroke_type,omitempty"`
}

// HeartRateSample is a single heart-rate reading.
type HeartRateSample struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	BPM   float64   `json:"bpm"`
}

// Samples holds the three sample streams for one workout window.
type Samples struct {
	Distance  []LapSample
	Strokes   []StrokeSample
	HeartRate []HeartRateSample
}

// Workout describes the window being analyzed. TotalDistanceMeters and
// DurationSeconds are only used when there are no distance samples.
type Workout struct {
	Start               time.Time
	End                 time.Time
	TotalDistanceMeters float64
	DurationSeconds     float64
}

// Lap is a single length with its derived metrics. Optional metrics are nil
// when the underlying data is missing; they are never zero-filled.
type Lap struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DistanceMeters  float64   `json:"distance_m"`
	DurationSeconds float64   `json:"duration_sec"`
	StrokeCount     *int      `json:"stroke_count,omitempty"`
	Swolf           *int      `json:"swolf,omitempty"`
	PaceMinPer100m  *float64  `json:"pace_min_per_100m,omitempty"`
	StrokeType      *string   `json:"stroke_type,omitempty"`
	AvgHeartRateBPM *int      `json:"avg_heart_rate_bpm,omitempty"`
}

// Metrics are the aggregates shared by sets and whole workouts.
type Metrics struct {
	TotalDistance      float64  `json:"total_distance_m"`
	TotalDuration      float64  `json:"total_duration_sec"`
	AverageSwolf       *float64 `json:"average_swolf,omitempty"`
	AveragePace        *float64 `json:"average_pace_min_per_100m,omitempty"`
	MajorityStrokeType string   `json:"majority_stroke_type"`
	AverageHeartRate   *float64 `json:"average_heart_rate,omitempty"`
	MaxHeartRate       *int     `json:"max_heart_rate,omitempty"`
}

// Set is a run of laps swum without a rest longer than RestThreshold.
type Set struct {
	Laps             []Lap   `json:"laps"`
	RestAfterSeconds float64 `json:"rest_after_sec"`
	Metrics
}

// WorkoutDetail is the structured result of analyzing one workout.
type WorkoutDetail struct {
	Sets []Set `json:"sets"`
	Metrics
	LongestContinuousDistance float64 `json:"longest_continuous_distance_m"`
}

// Laps returns every lap of the workout in order.
func (d *WorkoutDetail) Laps() []Lap {
	var laps []Lap
	for _, s := range d.Sets {
		laps = append(laps, s.Laps...)
	}
	return laps
}
