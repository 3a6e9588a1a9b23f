package server

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/claude/lanecoach/internal/importer"
	"github.com/claude/lanecoach/internal/ingest"
	"github.com/claude/lanecoach/internal/models"
	"github.com/claude/lanecoach/internal/plan"
	"github.com/claude/lanecoach/internal/planner"
	"github.com/claude/lanecoach/internal/source"
	"github.com/claude/lanecoach/internal/storage"
	"github.com/claude/lanecoach/internal/swim"
	"github.com/google/uuid"
)

// memStore is an in-memory Store for handler tests.
type memStore struct {
	source.Static

	mu        sync.Mutex
	sessions  map[uuid.UUID]*models.Session
	overrides map[int]models.EnduranceTargetOverride
	proposals map[uuid.UUID]plan.Proposal
	items     []models.PlanItem
	logs      []storage.ImportLog
}

func newMemStore() *memStore {
	return &memStore{
		sessions:  map[uuid.UUID]*models.Session{},
		overrides: map[int]models.EnduranceTargetOverride{},
		proposals: map[uuid.UUID]plan.Proposal{},
	}
}

func (m *memStore) InsertDistanceSamples(_ context.Context, s []swim.LapSample, _ string) (int64, error) {
	m.Samples.Distance = append(m.Samples.Distance, s...)
	return int64(len(s)), nil
}

func (m *memStore) InsertStrokeSamples(_ context.Context, s []swim.StrokeSample, _ string) (int64, error) {
	m.Samples.Strokes = append(m.Samples.Strokes, s...)
	return int64(len(s)), nil
}

func (m *memStore) InsertHeartRateSamples(_ context.Context, s []swim.HeartRateSample, _ string) (int64, error) {
	m.Samples.HeartRate = append(m.Samples.HeartRate, s...)
	return int64(len(s)), nil
}

func (m *memStore) SessionExistsByExternalID(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.ExternalID != nil && *s.ExternalID == id {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) InsertSession(ctx context.Context, s *models.Session) (bool, error) {
	if s.ExternalID != nil {
		if exists, _ := m.SessionExistsByExternalID(ctx, *s.ExternalID); exists {
			return false, nil
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	m.sessions[s.ID] = &cp
	return true, nil
}

func (m *memStore) GetSession(_ context.Context, id uuid.UUID) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) ListSessions(_ context.Context, start, end time.Time) ([]models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Session
	for _, s := range m.sessions {
		if s.DeletedAt == nil && !s.Date.Before(start) && s.Date.Before(end) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *memStore) AllSessions(ctx context.Context) ([]models.Session, error) {
	return m.ListSessions(ctx, time.Time{}, time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC))
}

func (m *memStore) UpdateSession(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sessions[s.ID]
	if !ok {
		return models.ErrSessionNotFound
	}
	if cur.DeletedAt != nil {
		return models.ErrSessionDeleted
	}
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memStore) DeleteSession(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sessions[id]
	if !ok {
		return models.ErrSessionNotFound
	}
	if cur.DeletedAt != nil {
		return models.ErrSessionDeleted
	}
	now := time.Now()
	cur.DeletedAt = &now
	return nil
}

func (m *memStore) UpsertOverride(_ context.Context, o models.EnduranceTargetOverride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[o.WeekNumber] = o
	return nil
}

func (m *memStore) ListOverrides(_ context.Context) ([]models.EnduranceTargetOverride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.EnduranceTargetOverride
	for _, o := range m.overrides {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekNumber < out[j].WeekNumber })
	return out, nil
}

func (m *memStore) DeleteOverride(_ context.Context, week int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.overrides[week]
	delete(m.overrides, week)
	return ok, nil
}

func (m *memStore) InsertProposal(_ context.Context, p plan.Proposal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.proposals[p.ID] = p
	return nil
}

func (m *memStore) GetProposal(_ context.Context, id uuid.UUID) (*plan.Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.proposals[id]
	if !ok {
		return nil, storage.ErrProposalNotFound
	}
	return &p, nil
}

func (m *memStore) setStatus(id uuid.UUID, status plan.Status) error {
	p := m.proposals[id]
	if p.Status != plan.StatusPending {
		return plan.ErrProposalNotPending
	}
	p.Status = status
	m.proposals[id] = p
	return nil
}

func (m *memStore) RejectProposal(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setStatus(id, plan.StatusRejected)
}

func (m *memStore) AcceptProposal(_ context.Context, id uuid.UUID, items []models.PlanItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.setStatus(id, plan.StatusAccepted); err != nil {
		return err
	}
	m.items = append(m.items, items...)
	return nil
}

func (m *memStore) ListPlanItems(_ context.Context, start, end time.Time) ([]models.PlanItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PlanItem
	for _, it := range m.items {
		if !it.ScheduledDate.Before(start) && it.ScheduledDate.Before(end) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memStore) InsertImportLog(_ context.Context, l storage.ImportLog) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = int64(len(m.logs) + 1)
	m.logs = append(m.logs, l)
	return l.ID, nil
}

func (m *memStore) QueryImportLogs(_ context.Context, limit int) ([]storage.ImportLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.logs) > limit {
		return m.logs[:limit], nil
	}
	return m.logs, nil
}

var testNow = time.Date(2024, 2, 7, 12, 0, 0, 0, time.UTC)

var testPlan = planner.Config{
	TrainingStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	GoalDate:      time.Date(2024, 7, 29, 0, 0, 0, 0, time.UTC),
	GoalDistance:  3000,
	WeekStart:     time.Monday,
}

const testAPIKey = "test-key"

func newTestServer(store *memStore) *Server {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	imp := importer.New(store, log, time.Second, false)
	s := New(store, ingest.NewProvider(store, imp, log), imp, testPlan, testAPIKey, log)
	s.now = func() time.Time { return testNow }
	return s
}
