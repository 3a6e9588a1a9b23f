package plan

import (
	"errors"
	"testing"
	"time"

	"github.com/claude/lanecoach/internal/models"
)

func workout(total int) models.ProposedWorkout {
	return models.ProposedWorkout{
		Title:         "Aerobic base",
		DaysFromNow:   2,
		TotalDistance: total,
		Sets: []models.ProposedSet{
			{Type: "main", Reps: 10, Distance: 100, Rest: "15s"},
			{Type: "cooldown", Reps: 1, Distance: 200},
		},
	}
}

// TestReconcile verifies the mismatch threshold is exclusive.
func TestReconcile(t *testing.T) {
	tests := []struct {
		declared     int
		wantMismatch bool
	}{
		{1300, true},
		{1250, false},
		{1200, false},
		{1149, true},
	}
	for _, tt := range tests {
		got := Reconcile(workout(tt.declared))
		if got.ActualTotal != 1200 {
			t.Errorf("declared %d: actual = %d, want 1200", tt.declared, got.ActualTotal)
		}
		if got.Mismatch != tt.wantMismatch {
			t.Errorf("declared %d: mismatch = %v, want %v", tt.declared, got.Mismatch, tt.wantMismatch)
		}
	}
}

// TestReconcileEmptySets verifies a workout without sets is not flagged.
func TestReconcileEmptySets(t *testing.T) {
	got := Reconcile(models.ProposedWorkout{Title: "Open water", TotalDistance: 2000})
	if got.Mismatch || got.ActualTotal != 2000 {
		t.Errorf("got %+v", got)
	}
}

// TestProposeAccept verifies accepted workouts are scheduled relative to now.
func TestProposeAccept(t *testing.T) {
	now := time.Date(2024, 3, 4, 18, 30, 0, 0, time.UTC)
	p := Propose([]models.ProposedWorkout{workout(1300), workout(1200)}, now)

	if p.Status != StatusPending {
		t.Fatalf("status = %s, want pending", p.Status)
	}
	if p.Mismatches() != 1 {
		t.Errorf("mismatches = %d, want 1", p.Mismatches())
	}

	items, err := p.Accept(now)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	want := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	if !items[0].ScheduledDate.Equal(want) {
		t.Errorf("scheduled = %v, want %v", items[0].ScheduledDate, want)
	}
	if items[0].ProposalID != p.ID {
		t.Errorf("proposal id = %v, want %v", items[0].ProposalID, p.ID)
	}
	if p.Status != StatusAccepted {
		t.Errorf("status = %s, want accepted", p.Status)
	}

	if _, err := p.Accept(now); !errors.Is(err, ErrProposalNotPending) {
		t.Errorf("second Accept error = %v, want ErrProposalNotPending", err)
	}
}

// TestProposeReject verifies a rejected proposal cannot be accepted.
func TestProposeReject(t *testing.T) {
	p := Propose([]models.ProposedWorkout{workout(1200)}, time.Now())
	if err := p.Reject(); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if _, err := p.Accept(time.Now()); !errors.Is(err, ErrProposalNotPending) {
		t.Errorf("Accept after reject error = %v", err)
	}
	if err := p.Reject(); !errors.Is(err, ErrProposalNotPending) {
		t.Errorf("second Reject error = %v", err)
	}
}
