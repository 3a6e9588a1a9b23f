package swim

// LongestContinuousDistance returns the largest set distance. It falls back
// to the workout total when there are no sets.
func LongestContinuousDistance(sets []Set, workoutTotal float64) float64 {
	if len(sets) == 0 {
		return workoutTotal
	}
	longest := sets[0].TotalDistance
	for _, s := range sets[1:] {
		if s.TotalDistance > longest {
			longest = s.TotalDistance
		}
	}
	return longest
}
