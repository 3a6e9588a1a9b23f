package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/lanecoach/internal/models"
	"github.com/claude/lanecoach/internal/swim"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const sessionColumns = `id, date, total_distance_m, total_duration_min, notes, difficulty,
	plan_item_id, external_id, detail, created_at, updated_at, deleted_at`

// InsertSession inserts a session. Returns true if inserted, false if a
// session with the same external ID already exists.
func (db *DB) InsertSession(ctx context.Context, s *models.Session) (bool, error) {
	detail, err := encodeDetail(s.Detail)
	if err != nil {
		return false, err
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	err = db.Pool.QueryRow(ctx,
		`INSERT INTO sessions (id, date, total_distance_m, total_duration_min, notes, difficulty,
		 plan_item_id, external_id, detail)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 ON CONFLICT DO NOTHING
		 RETURNING created_at, updated_at`,
		s.ID, s.Date, s.TotalDistanceMeters, s.TotalDurationMinutes, s.Notes, s.Difficulty,
		s.PlanItemID, s.ExternalID, detail,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("inserting session: %w", err)
	}
	return true, nil
}

// SessionExistsByExternalID reports whether a session, deleted or not, was
// already imported under the given external ID.
func (db *DB) SessionExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	var exists bool
	err := db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM sessions WHERE external_id = $1)`, externalID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking external id: %w", err)
	}
	return exists, nil
}

// GetSession returns a session by ID, including deleted ones. An undecodable
// detail document is an error for this read.
func (db *DB) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	row := db.Pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)

	s, raw, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	if err := decodeSessionDetail(s, raw); err != nil {
		return nil, err
	}
	return s, nil
}

// ListSessions returns non-deleted sessions dated in [start, end), oldest
// first. Sessions whose detail cannot be decoded are left out.
func (db *DB) ListSessions(ctx context.Context, start, end time.Time) ([]models.Session, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM sessions
		 WHERE date >= $1 AND date < $2 AND deleted_at IS NULL
		 ORDER BY date ASC`,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()
	return collectSessions(rows, db.log)
}

// AllSessions returns every non-deleted session, oldest first.
func (db *DB) AllSessions(ctx context.Context) ([]models.Session, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM sessions
		 WHERE deleted_at IS NULL
		 ORDER BY date ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()
	return collectSessions(rows, db.log)
}

// UpdateSession overwrites the editable fields of a session. The detail
// document and external ID are left untouched.
func (db *DB) UpdateSession(ctx context.Context, s *models.Session) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE sessions SET date = $2, total_distance_m = $3, total_duration_min = $4,
		 notes = $5, difficulty = $6, plan_item_id = $7, updated_at = now()
		 WHERE id = $1 AND deleted_at IS NULL`,
		s.ID, s.Date, s.TotalDistanceMeters, s.TotalDurationMinutes, s.Notes, s.Difficulty, s.PlanItemID)
	if err != nil {
		return fmt.Errorf("updating session %s: %w", s.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return db.missingSession(ctx, s.ID)
	}
	return nil
}

// DeleteSession soft-deletes a session. Deleted sessions are immutable.
func (db *DB) DeleteSession(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE sessions SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return db.missingSession(ctx, id)
	}
	return nil
}

// missingSession explains why an update touched no row.
func (db *DB) missingSession(ctx context.Context, id uuid.UUID) error {
	var deleted bool
	err := db.Pool.QueryRow(ctx,
		`SELECT deleted_at IS NOT NULL FROM sessions WHERE id = $1`, id).Scan(&deleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("checking session %s: %w", id, err)
	}
	if deleted {
		return models.ErrSessionDeleted
	}
	return nil
}

// sessionRows is the part of pgx.Rows read by collectSessions.
type sessionRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// collectSessions scans every row. A session whose detail document cannot be
// decoded is logged and skipped so it never counts as one continuous swim.
func collectSessions(rows sessionRows, log *slog.Logger) ([]models.Session, error) {
	var result []models.Session
	for rows.Next() {
		s, raw, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		if err := decodeSessionDetail(s, raw); err != nil {
			log.Warn("skipping session with undecodable detail", "session", s.ID, "error", err)
			continue
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

// decodeSessionDetail attaches the stored detail document to s. A nil
// document leaves a manual session without detail.
func decodeSessionDetail(s *models.Session, raw []byte) error {
	if raw == nil {
		return nil
	}
	detail, err := swim.DecodeDetail(raw)
	if err != nil {
		return fmt.Errorf("session %s: %w", s.ID, err)
	}
	s.Detail = detail
	return nil
}

func scanSession(row pgx.Row) (*models.Session, []byte, error) {
	var (
		s   models.Session
		raw []byte
	)
	err := row.Scan(&s.ID, &s.Date, &s.TotalDistanceMeters, &s.TotalDurationMinutes, &s.Notes,
		&s.Difficulty, &s.PlanItemID, &s.ExternalID, &raw, &s.CreatedAt, &s.UpdatedAt, &s.DeletedAt)
	if err != nil {
		return nil, nil, err
	}
	return &s, raw, nil
}

func encodeDetail(d *swim.WorkoutDetail) ([]byte, error) {
	if d == nil {
		return nil, nil
	}
	return swim.EncodeDetail(d)
}
