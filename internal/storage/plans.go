package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/claude/lanecoach/internal/models"
	"github.com/claude/lanecoach/internal/plan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrProposalNotFound is returned when a proposal ID is unknown.
var ErrProposalNotFound = errors.New("proposal not found")

// InsertProposal stores a staged proposal with its reconciliation checks.
func (db *DB) InsertProposal(ctx context.Context, p plan.Proposal) error {
	workouts, err := json.Marshal(p.Workouts)
	if err != nil {
		return fmt.Errorf("encoding proposal workouts: %w", err)
	}
	checks, err := json.Marshal(p.Checks)
	if err != nil {
		return fmt.Errorf("encoding proposal checks: %w", err)
	}
	_, err = db.Pool.Exec(ctx,
		`INSERT INTO plan_proposals (id, status, workouts, checks, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		p.ID, string(p.Status), workouts, checks, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting proposal: %w", err)
	}
	return nil
}

// GetProposal loads a proposal by ID.
func (db *DB) GetProposal(ctx context.Context, id uuid.UUID) (*plan.Proposal, error) {
	var (
		p                plan.Proposal
		status           string
		workouts, checks []byte
	)
	err := db.Pool.QueryRow(ctx,
		`SELECT id, status, workouts, checks, created_at FROM plan_proposals WHERE id = $1`, id,
	).Scan(&p.ID, &status, &workouts, &checks, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProposalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying proposal: %w", err)
	}
	p.Status = plan.Status(status)
	if err := json.Unmarshal(workouts, &p.Workouts); err != nil {
		return nil, fmt.Errorf("decoding proposal workouts: %w", err)
	}
	if err := json.Unmarshal(checks, &p.Checks); err != nil {
		return nil, fmt.Errorf("decoding proposal checks: %w", err)
	}
	return &p, nil
}

// RejectProposal records a rejection. It fails with plan.ErrProposalNotPending
// if the proposal is no longer pending.
func (db *DB) RejectProposal(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE plan_proposals SET status = $2 WHERE id = $1 AND status = $3`,
		id, string(plan.StatusRejected), string(plan.StatusPending))
	if err != nil {
		return fmt.Errorf("rejecting proposal %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return plan.ErrProposalNotPending
	}
	return nil
}

// AcceptProposal marks the proposal accepted and stores its plan items in
// one transaction. It fails with plan.ErrProposalNotPending if the proposal
// was decided concurrently.
func (db *DB) AcceptProposal(ctx context.Context, id uuid.UUID, items []models.PlanItem) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE plan_proposals SET status = $2 WHERE id = $1 AND status = $3`,
		id, string(plan.StatusAccepted), string(plan.StatusPending))
	if err != nil {
		return fmt.Errorf("accepting proposal %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return plan.ErrProposalNotPending
	}

	for _, it := range items {
		sets, err := json.Marshal(it.Sets)
		if err != nil {
			return fmt.Errorf("encoding plan item sets: %w", err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO plan_items (id, proposal_id, title, scheduled_date, total_distance, sets, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			it.ID, it.ProposalID, it.Title, it.ScheduledDate, it.TotalDistance, sets, it.CreatedAt)
		if err != nil {
			return fmt.Errorf("inserting plan item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing proposal %s: %w", id, err)
	}
	return nil
}

// ListPlanItems returns plan items scheduled in [start, end), soonest first.
func (db *DB) ListPlanItems(ctx context.Context, start, end time.Time) ([]models.PlanItem, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, proposal_id, title, scheduled_date, total_distance, sets, created_at
		 FROM plan_items
		 WHERE scheduled_date >= $1 AND scheduled_date < $2
		 ORDER BY scheduled_date ASC, created_at ASC`,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("querying plan items: %w", err)
	}
	defer rows.Close()

	var result []models.PlanItem
	for rows.Next() {
		var (
			it   models.PlanItem
			sets []byte
		)
		if err := rows.Scan(&it.ID, &it.ProposalID, &it.Title, &it.ScheduledDate,
			&it.TotalDistance, &sets, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning plan item: %w", err)
		}
		if err := json.Unmarshal(sets, &it.Sets); err != nil {
			return nil, fmt.Errorf("decoding plan item %s sets: %w", it.ID, err)
		}
		result = append(result, it)
	}
	return result, rows.Err()
}
