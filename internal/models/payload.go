package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Timestamp handles the export date format: "2006-01-02 15:04:05 -0700".
// Date-only values ("2006-01-02") are also accepted.
type Timestamp struct {
	time.Time
}

const (
	TimestampLayout = "2006-01-02 15:04:05 -0700"
	DateOnlyLayout  = "2006-01-02"
)

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return t.Parse(s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(TimestampLayout))
}

// Parse parses a timestamp string, trying full datetime first, then date-only.
func (t *Timestamp) Parse(s string) error {
	parsed, err := time.Parse(TimestampLayout, s)
	if err == nil {
		t.Time = parsed
		return nil
	}
	parsed, err2 := time.Parse(DateOnlyLayout, s)
	if err2 == nil {
		t.Time = parsed
		return nil
	}
	return fmt.Errorf("cannot parse timestamp %q: %w", s, err)
}

// ParseTimestamp parses an export timestamp string into a time.Time.
func ParseTimestamp(s string) (time.Time, error) {
	var t Timestamp
	if err := t.Parse(s); err != nil {
		return time.Time{}, err
	}
	return t.Time, nil
}

// Metric names understood by the ingest endpoint.
const (
	MetricSwimDistance = "swimming_distance"
	MetricSwimStrokes  = "swimming_stroke_count"
	MetricHeartRate    = "heart_rate"
)

// Payload is the top-level ingest JSON structure.
type Payload struct {
	Data PayloadData `json:"data"`
}

// PayloadData contains the sample series and swim workouts.
type PayloadData struct {
	Metrics  []PayloadMetric  `json:"metrics"`
	Workouts []PayloadWorkout `json:"workouts"`
}

// PayloadMetric is one named sample series. Data points are decoded lazily
// because their shape depends on the metric name.
type PayloadMetric struct {
	Name   string            `json:"name"`
	Units  string            `json:"units"`
	Source string            `json:"source,omitempty"`
	Data   []json.RawMessage `json:"data"`
}

// PayloadInterval is a sample covering [Start, End]: a length of distance
// or a batch of strokes.
type PayloadInterval struct {
	Start       Timestamp `json:"start"`
	End         Timestamp `json:"end"`
	Qty         float64   `json:"qty"`
	StrokeStyle *string   `json:"strokeStyle,omitempty"`
}

// PayloadHeartRatePoint has Min/Avg/Max fields (capitalized in the export JSON).
type PayloadHeartRatePoint struct {
	Date Timestamp `json:"date"`
	Min  float64   `json:"Min"`
	Avg  float64   `json:"Avg"`
	Max  float64   `json:"Max"`
}

// PayloadWorkout is a swim workout header.
type PayloadWorkout struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Start      Timestamp `json:"start"`
	End        Timestamp `json:"end"`
	Duration   float64   `json:"duration"`
	Distance   *Quantity `json:"distance,omitempty"`
	PoolLength *Quantity `json:"poolLength,omitempty"`
}

// Quantity is the {"qty": N, "units": "..."} structure.
type Quantity struct {
	Qty   float64 `json:"qty"`
	Units string  `json:"units"`
}

// Meters converts the quantity to meters.
func (q Quantity) Meters() (float64, error) {
	return ToMeters(q.Qty, q.Units)
}

// ToMeters converts a distance in the given units to meters. An empty unit
// is treated as meters.
func ToMeters(qty float64, units string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(units)) {
	case "", "m", "meter", "meters":
		return qty, nil
	case "km":
		return qty * 1000, nil
	case "yd", "yard", "yards":
		return qty * 0.9144, nil
	default:
		return 0, fmt.Errorf("unsupported distance unit %q", units)
	}
}
