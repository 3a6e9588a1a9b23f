package mcp

import (
	"context"
	"time"

	"github.com/claude/lanecoach/internal/models"
	"github.com/claude/lanecoach/internal/planner"
	"github.com/claude/lanecoach/internal/storage"
	"github.com/google/uuid"
)

// Progress pairs the current and previous training weeks.
type Progress struct {
	CurrentWeek models.WeeklyProgress `json:"current_week"`
	LastWeek    models.WeeklyProgress `json:"last_week"`
}

// DataSource abstracts the data layer for MCP tools. Both Local (database)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ListSessions(ctx context.Context, start, end time.Time) ([]models.Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	TargetForWeek(ctx context.Context, week int) (planner.Target, error)
	CurrentWeek(ctx context.Context) (int, error)
	Progress(ctx context.Context) (*Progress, error)
}

// LocalStore is the part of the database Local reads.
type LocalStore interface {
	ListSessions(ctx context.Context, start, end time.Time) ([]models.Session, error)
	AllSessions(ctx context.Context) ([]models.Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	ListOverrides(ctx context.Context) ([]models.EnduranceTargetOverride, error)
}

// Compile-time check: *storage.DB satisfies LocalStore.
var _ LocalStore = (*storage.DB)(nil)

// Local answers from the database, computing targets with the plan config.
type Local struct {
	db   LocalStore
	plan planner.Config
	now  func() time.Time
}

var _ DataSource = (*Local)(nil)

// NewLocal creates a database-backed DataSource.
func NewLocal(db LocalStore, plan planner.Config) *Local {
	return &Local{db: db, plan: plan, now: time.Now}
}

func (l *Local) planner(ctx context.Context) (*planner.Planner, error) {
	sessions, err := l.db.AllSessions(ctx)
	if err != nil {
		return nil, err
	}
	overrides, err := l.db.ListOverrides(ctx)
	if err != nil {
		return nil, err
	}
	return planner.New(l.plan, overrides, sessions), nil
}

func (l *Local) ListSessions(ctx context.Context, start, end time.Time) ([]models.Session, error) {
	return l.db.ListSessions(ctx, start, end)
}

func (l *Local) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	return l.db.GetSession(ctx, id)
}

func (l *Local) TargetForWeek(ctx context.Context, week int) (planner.Target, error) {
	p, err := l.planner(ctx)
	if err != nil {
		return planner.Target{}, err
	}
	return p.TargetForWeek(week), nil
}

func (l *Local) CurrentWeek(ctx context.Context) (int, error) {
	return planner.New(l.plan, nil, nil).WeekNumber(l.now()), nil
}

func (l *Local) Progress(ctx context.Context) (*Progress, error) {
	p, err := l.planner(ctx)
	if err != nil {
		return nil, err
	}
	now := l.now()
	return &Progress{
		CurrentWeek: p.CurrentWeekProgress(now),
		LastWeek:    p.LastWeekProgress(now),
	}, nil
}
