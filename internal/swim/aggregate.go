package swim

// Summarize computes aggregate metrics over a flat list of laps. Averages are
// taken over laps that carry the value; pace is recomputed from the totals.
func Summarize(laps []Lap) Metrics {
	var (
		m        Metrics
		swolfSum float64
		swolfN   int
		hrSum    float64
		hrN      int
		maxHR    int
		strokes  []string
	)
	for _, lap := range laps {
		m.TotalDistance += lap.DistanceMeters
		m.TotalDuration += lap.DurationSeconds
		if lap.Swolf != nil {
			swolfSum += float64(*lap.Swolf)
			swolfN++
		}
		if lap.AvgHeartRateBPM != nil {
			hr := *lap.AvgHeartRateBPM
			hrSum += float64(hr)
			if hrN == 0 || hr > maxHR {
				maxHR = hr
			}
			hrN++
		}
		if lap.StrokeType != nil {
			strokes = append(strokes, *lap.StrokeType)
		}
	}

	if swolfN > 0 {
		avg := swolfSum / float64(swolfN)
		m.AverageSwolf = &avg
	}
	m.AveragePace = pace(m.TotalDuration, m.TotalDistance)
	m.MajorityStrokeType = UnknownStroke
	if stroke, ok := majority(strokes); ok {
		m.MajorityStrokeType = stroke
	}
	if hrN > 0 {
		avg := hrSum / float64(hrN)
		m.AverageHeartRate = &avg
		m.MaxHeartRate = &maxHR
	}
	return m
}

// Aggregate fills in per-set metrics and builds the workout detail. Workout
// level metrics are computed over all laps rather than averaged per set.
func Aggregate(sets []Set) *WorkoutDetail {
	detail := &WorkoutDetail{Sets: make([]Set, len(sets))}
	var all []Lap
	for i, s := range sets {
		s.Metrics = Summarize(s.Laps)
		detail.Sets[i] = s
		all = append(all, s.Laps...)
	}
	detail.Metrics = Summarize(all)
	detail.LongestContinuousDistance = LongestContinuousDistance(detail.Sets, detail.TotalDistance)
	return detail
}

// Analyze runs the full pipeline: laps, sets, aggregates.
func Analyze(s Samples, w Workout) *WorkoutDetail {
	return Aggregate(Segment(BuildLaps(s, w)))
}
