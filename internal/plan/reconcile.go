// Package plan checks externally proposed workouts and stages them until the
// swimmer accepts or rejects them.
package plan

import (
	"math"

	"github.com/claude/lanecoach/internal/models"
)

// MismatchTolerance is the largest difference in meters between the declared
// and computed totals that is not flagged.
const MismatchTolerance = 50

// Check is the advisory result of reconciling one proposed workout.
type Check struct {
	Title         string `json:"title"`
	DeclaredTotal int    `json:"declared_total_m"`
	ActualTotal   int    `json:"actual_total_m"`
	Mismatch      bool   `json:"mismatch"`
}

// Reconcile compares a workout's declared total against the sum of its sets.
// A workout whose sets sum to zero is compared against its own declared
// total and therefore never flagged.
func Reconcile(w models.ProposedWorkout) Check {
	actual := 0
	for _, s := range w.Sets {
		actual += s.Reps * s.Distance
	}
	if actual == 0 {
		actual = w.TotalDistance
	}
	diff := math.Abs(float64(actual - w.TotalDistance))
	return Check{
		Title:         w.Title,
		DeclaredTotal: w.TotalDistance,
		ActualTotal:   actual,
		Mismatch:      diff > MismatchTolerance,
	}
}

// ReconcileAll checks every workout, preserving order.
func ReconcileAll(workouts []models.ProposedWorkout) []Check {
	checks := make([]Check, len(workouts))
	for i, w := range workouts {
		checks[i] = Reconcile(w)
	}
	return checks
}
