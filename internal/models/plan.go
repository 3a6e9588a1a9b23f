package models

import (
	"time"

	"github.com/google/uuid"
)

// ProposedSet is one line of a proposed workout, e.g. 10 x 100m.
type ProposedSet struct {
	Type         string `json:"type"`
	Reps         int    `json:"reps"`
	Distance     int    `json:"distance"`
	Rest         string `json:"rest,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// ProposedWorkout is a candidate workout from the planning service.
type ProposedWorkout struct {
	Title         string        `json:"title"`
	DaysFromNow   int           `json:"daysFromNow"`
	TotalDistance int           `json:"totalDistance"`
	Sets          []ProposedSet `json:"sets"`
}

// PlanItem is an accepted workout scheduled on a specific day.
type PlanItem struct {
	ID            uuid.UUID     `json:"id"`
	ProposalID    uuid.UUID     `json:"proposal_id"`
	Title         string        `json:"title"`
	ScheduledDate time.Time     `json:"scheduled_date"`
	TotalDistance int           `json:"total_distance_m"`
	Sets          []ProposedSet `json:"sets"`
	CreatedAt     time.Time     `json:"created_at"`
}
