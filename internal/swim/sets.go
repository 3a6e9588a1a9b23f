package swim

// Segment splits an ordered lap sequence into sets. A new set starts whenever
// the gap between one lap's end and the next lap's start is longer than
// RestThreshold; the closed set records that gap as its rest. The last set
// always has zero rest.
//
// Concatenating the laps of the returned sets yields the input unchanged.
func Segment(laps []Lap) []Set {
	if len(laps) == 0 {
		return nil
	}

	var sets []Set
	current := []Lap{laps[0]}
	for i := 1; i < len(laps); i++ {
		gap := laps[i].Start.Sub(laps[i-1].End)
		if gap > RestThreshold {
			sets = append(sets, Set{Laps: current, RestAfterSeconds: gap.Seconds()})
			current = []Lap{laps[i]}
			continue
		}
		current = append(current, laps[i])
	}
	sets = append(sets, Set{Laps: current})
	return sets
}
