package plan

import (
	"errors"
	"fmt"
	"time"

	"github.com/claude/lanecoach/internal/models"
	"github.com/google/uuid"
)

// ErrProposalNotPending is returned when accepting or rejecting a proposal
// that was already decided.
var ErrProposalNotPending = errors.New("proposal is not pending")

// Status of a proposal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Proposal is a batch of proposed workouts waiting for a decision. It is a
// plain value; callers pass it along and persist it themselves.
type Proposal struct {
	ID        uuid.UUID                `json:"id"`
	Status    Status                   `json:"status"`
	CreatedAt time.Time                `json:"created_at"`
	Workouts  []models.ProposedWorkout `json:"workouts"`
	Checks    []Check                  `json:"checks"`
}

// Propose stages workouts for review and reconciles each one.
func Propose(workouts []models.ProposedWorkout, now time.Time) Proposal {
	return Proposal{
		ID:        uuid.New(),
		Status:    StatusPending,
		CreatedAt: now,
		Workouts:  workouts,
		Checks:    ReconcileAll(workouts),
	}
}

// Mismatches returns how many workouts were flagged.
func (p Proposal) Mismatches() int {
	n := 0
	for _, c := range p.Checks {
		if c.Mismatch {
			n++
		}
	}
	return n
}

// Accept marks the proposal accepted and returns one plan item per workout,
// scheduled DaysFromNow calendar days after now. Flagged workouts are
// accepted like any other.
func (p *Proposal) Accept(now time.Time) ([]models.PlanItem, error) {
	if p.Status != StatusPending {
		return nil, fmt.Errorf("accepting proposal %s: %w", p.ID, ErrProposalNotPending)
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	items := make([]models.PlanItem, 0, len(p.Workouts))
	for _, w := range p.Workouts {
		items = append(items, models.PlanItem{
			ID:            uuid.New(),
			ProposalID:    p.ID,
			Title:         w.Title,
			ScheduledDate: today.AddDate(0, 0, w.DaysFromNow),
			TotalDistance: w.TotalDistance,
			Sets:          w.Sets,
			CreatedAt:     now,
		})
	}
	p.Status = StatusAccepted
	return items, nil
}

// Reject marks the proposal rejected.
func (p *Proposal) Reject() error {
	if p.Status != StatusPending {
		return fmt.Errorf("rejecting proposal %s: %w", p.ID, ErrProposalNotPending)
	}
	p.Status = StatusRejected
	return nil
}
