package swim

import (
	"cmp"
	"math"
	"slices"
	"time"
)

// BuildLaps converts distance samples into laps. Stroke-count samples fully
// contained in a lap's [start, end] are summed into its stroke count;
// heart-rate samples starting in [start, end) are averaged into its heart rate.
//
// With no distance samples a single lap spanning the workout window is built
// from the workout's total distance and duration.
func BuildLaps(s Samples, w Workout) []Lap {
	strokes := slices.Clone(s.Strokes)
	slices.SortStableFunc(strokes, func(a, b StrokeSample) int { return a.Start.Compare(b.Start) })
	hr := slices.Clone(s.HeartRate)
	slices.SortStableFunc(hr, func(a, b HeartRateSample) int { return a.Start.Compare(b.Start) })

	if len(s.Distance) == 0 {
		lap := Lap{
			Start:           w.Start,
			End:             w.End,
			DistanceMeters:  w.TotalDistanceMeters,
			DurationSeconds: w.DurationSeconds,
		}
		if lap.DurationSeconds <= 0 {
			lap.DurationSeconds = math.Max(w.End.Sub(w.Start).Seconds(), 0)
		}
		enrichLap(&lap, strokes, hr)
		return []Lap{lap}
	}

	laps := make([]Lap, 0, len(s.Distance))
	for _, ds := range s.Distance {
		lap := Lap{
			Start:           ds.Start,
			End:             ds.End,
			DistanceMeters:  ds.DistanceMeters,
			DurationSeconds: math.Max(ds.End.Sub(ds.Start).Seconds(), 0),
		}
		enrichLap(&lap, strokes, hr)
		laps = append(laps, lap)
	}
	return laps
}

// enrichLap fills the optional metrics of a lap. strokes and hr must be sorted
// by start time.
func enrichLap(lap *Lap, strokes []StrokeSample, hr []HeartRateSample) {
	var (
		count   int
		matched int
		tags    []string
	)
	for i := firstStartingAtOrAfter(strokes, lap.Start, strokeStart); i < len(strokes); i++ {
		st := strokes[i]
		if st.Start.After(lap.End) {
			break
		}
		if st.End.After(lap.End) {
			continue
		}
		matched++
		count += st.Count
		if st.StrokeType != nil && *st.StrokeType != "" {
			tags = append(tags, *st.StrokeType)
		}
	}
	if matched > 0 {
		c := count
		lap.StrokeCount = &c
	}
	if matched > 0 && lap.DurationSeconds > 0 {
		swolf := count + int(roundHalfUp(lap.DurationSeconds))
		lap.Swolf = &swolf
	}
	if stroke, ok := majority(tags); ok {
		lap.StrokeType = &stroke
	}

	var (
		sum float64
		n   int
	)
	for i := firstStartingAtOrAfter(hr, lap.Start, hrStart); i < len(hr); i++ {
		if !hr[i].Start.Before(lap.End) {
			break
		}
		sum += hr[i].BPM
		n++
	}
	if n > 0 {
		avg := int(sum / float64(n))
		lap.AvgHeartRateBPM = &avg
	}

	lap.PaceMinPer100m = pace(lap.DurationSeconds, lap.DistanceMeters)
}

func strokeStart(s StrokeSample) time.Time { return s.Start }

func hrStart(s HeartRateSample) time.Time { return s.Start }

func firstStartingAtOrAfter[S any](samples []S, t time.Time, start func(S) time.Time) int {
	i, _ := slices.BinarySearchFunc(samples, t, func(s S, t time.Time) int {
		return cmp.Compare(start(s).UnixNano(), t.UnixNano())
	})
	return i
}

// pace returns minutes per 100 m, or nil when either input is not positive.
func pace(durationSec, distanceMeters float64) *float64 {
	if distanceMeters <= 0 || durationSec <= 0 {
		return nil
	}
	p := (durationSec / 60) / (distanceMeters / 100)
	return &p
}

// majority returns the most frequent value, ties going to the value seen first.
func majority(values []string) (string, bool) {
	if len(values) == 0 {
		return "", false
	}
	counts := make(map[string]int, len(values))
	var order []string
	for _, v := range values {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	best := order[0]
	for _, v := range order[1:] {
		if counts[v] > counts[best] {
			best = v
		}
	}
	return best, true
}

func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}
