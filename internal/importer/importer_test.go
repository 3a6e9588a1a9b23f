package importer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/claude/lanecoach/internal/models"
	"github.com/claude/lanecoach/internal/source"
	"github.com/claude/lanecoach/internal/swim"
)

var base = time.Date(2024, 2, 6, 7, 0, 0, 0, time.UTC)

func at(sec int) time.Time { return base.Add(time.Duration(sec) * time.Second) }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memStore struct {
	sessions map[string]*models.Session
	err      error
}

func newMemStore() *memStore {
	return &memStore{sessions: map[string]*models.Session{}}
}

func (m *memStore) SessionExistsByExternalID(_ context.Context, id string) (bool, error) {
	_, ok := m.sessions[id]
	return ok, m.err
}

func (m *memStore) InsertSession(_ context.Context, s *models.Session) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.sessions[*s.ExternalID]; ok {
		return false, nil
	}
	m.sessions[*s.ExternalID] = s
	return true, nil
}

type failingSource struct{ source.Static }

func (failingSource) FetchDistanceSamples(context.Context, time.Time, time.Time) ([]swim.LapSample, error) {
	return nil, errors.New("authorization revoked")
}

func swimSamples() *source.Static {
	return &source.Static{Samples: swim.Samples{
		Distance: []swim.LapSample{
			{Start: at(0), End: at(60), DistanceMeters: 25},
			{Start: at(60), End: at(120), DistanceMeters: 25},
			{Start: at(160), End: at(220), DistanceMeters: 25},
		},
	}}
}

func workout() Workout {
	return Workout{
		ExternalID:          "W1",
		Name:                "Pool Swim",
		Start:               at(0),
		End:                 at(300),
		TotalDistanceMeters: 75,
		DurationSeconds:     300,
	}
}

// TestImportWorkout verifies a workout becomes a session with lap detail.
func TestImportWorkout(t *testing.T) {
	store := newMemStore()
	imp := New(store, discardLogger(), time.Second, false)

	s, err := imp.ImportWorkout(context.Background(), swimSamples(), workout())
	if err != nil {
		t.Fatalf("ImportWorkout: %v", err)
	}
	if s == nil || s.Detail == nil {
		t.Fatal("expected session with detail")
	}
	if len(s.Detail.Sets) != 2 {
		t.Errorf("sets = %d, want 2", len(s.Detail.Sets))
	}
	if s.ContinuousDistance() != 50 {
		t.Errorf("continuous distance = %v, want 50", s.ContinuousDistance())
	}
	if s.TotalDurationMinutes != 5 {
		t.Errorf("duration = %v min, want 5", s.TotalDurationMinutes)
	}
	if s.Difficulty != DefaultDifficulty {
		t.Errorf("difficulty = %d", s.Difficulty)
	}
	if got := imp.Stats(); got.SessionsInserted != 1 || got.LapsBuilt != 3 {
		t.Errorf("stats = %+v", got)
	}
}

// TestImportWorkoutDuplicate verifies a second import of the same workout is skipped.
func TestImportWorkoutDuplicate(t *testing.T) {
	store := newMemStore()
	imp := New(store, discardLogger(), time.Second, false)

	if _, err := imp.ImportWorkout(context.Background(), swimSamples(), workout()); err != nil {
		t.Fatalf("first import: %v", err)
	}
	s, err := imp.ImportWorkout(context.Background(), swimSamples(), workout())
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if s != nil {
		t.Error("expected nil session for duplicate")
	}
	if imp.Stats().SessionsDuplicated != 1 {
		t.Errorf("duplicated = %d, want 1", imp.Stats().SessionsDuplicated)
	}
}

// TestImportWorkoutDistanceFailure verifies a failed distance fetch aborts the import.
func TestImportWorkoutDistanceFailure(t *testing.T) {
	store := newMemStore()
	imp := New(store, discardLogger(), time.Second, false)

	_, err := imp.ImportWorkout(context.Background(), &failingSource{}, workout())
	if !errors.Is(err, source.ErrNoDistanceData) {
		t.Fatalf("error = %v, want ErrNoDistanceData", err)
	}
	if len(store.sessions) != 0 {
		t.Error("nothing should be stored")
	}
}

// TestImportWorkoutStoreError verifies storage failures propagate.
func TestImportWorkoutStoreError(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("connection reset")
	imp := New(store, discardLogger(), time.Second, false)

	if _, err := imp.ImportWorkout(context.Background(), swimSamples(), workout()); err == nil {
		t.Fatal("expected error")
	}
}

// TestImportWorkoutDryRun verifies dry runs never touch the store.
func TestImportWorkoutDryRun(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("must not be called")
	imp := New(store, discardLogger(), time.Second, true)

	s, err := imp.ImportWorkout(context.Background(), swimSamples(), workout())
	if err != nil {
		t.Fatalf("ImportWorkout: %v", err)
	}
	if s == nil {
		t.Fatal("expected session")
	}
}

// TestBuildSessionFallback verifies a workout without distance samples
// becomes a single synthetic lap carrying the workout totals.
func TestBuildSessionFallback(t *testing.T) {
	s := BuildSession(workout(), swim.Samples{})
	if len(s.Detail.Sets) != 1 || len(s.Detail.Sets[0].Laps) != 1 {
		t.Fatalf("detail = %+v", s.Detail)
	}
	if s.Detail.LongestContinuousDistance != 75 {
		t.Errorf("longest = %v, want 75", s.Detail.LongestContinuousDistance)
	}
	if s.ExternalID == nil || *s.ExternalID != "W1" {
		t.Errorf("external id = %v", s.ExternalID)
	}
}

// TestBuildSessionUsesLapTotals verifies lap sums fill in missing workout totals.
func TestBuildSessionUsesLapTotals(t *testing.T) {
	w := workout()
	w.TotalDistanceMeters = 0
	w.DurationSeconds = 0

	s := BuildSession(w, swimSamples().Samples)
	if s.TotalDistanceMeters != 75 {
		t.Errorf("distance = %v, want 75", s.TotalDistanceMeters)
	}
	if s.TotalDurationMinutes != 3 {
		t.Errorf("duration = %v min, want 3", s.TotalDurationMinutes)
	}
}

// TestImportDirCountsBadFiles verifies undecodable files are counted, not fatal.
func TestImportDirCountsBadFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.fit"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	imp := New(newMemStore(), discardLogger(), time.Second, false)
	stats, err := imp.ImportDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("ImportDir: %v", err)
	}
	if stats.FilesErrored != 1 || stats.FilesProcessed != 0 {
		t.Errorf("stats = %+v", stats)
	}
}
