// Package importer turns a workout window into a session with lap detail.
package importer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/claude/lanecoach/internal/models"
	"github.com/claude/lanecoach/internal/observability"
	"github.com/claude/lanecoach/internal/source"
	"github.com/claude/lanecoach/internal/swim"
	"github.com/google/uuid"
)

// DefaultDifficulty is assigned to imported sessions until the swimmer edits them.
const DefaultDifficulty = 5

// Store persists imported sessions. InsertSession reports false when a
// session with the same external ID already exists.
type Store interface {
	SessionExistsByExternalID(ctx context.Context, externalID string) (bool, error)
	InsertSession(ctx context.Context, s *models.Session) (bool, error)
}

// Workout identifies the window to import and the totals the source
// reported for it.
type Workout struct {
	ExternalID          string
	Name                string
	Start               time.Time
	End                 time.Time
	TotalDistanceMeters float64
	DurationSeconds     float64
}

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	SessionsInserted   int
	SessionsDuplicated int
	LapsBuilt          int
}

// Importer fetches samples, builds the workout detail and stores the session.
type Importer struct {
	store        Store
	log          *slog.Logger
	fetchTimeout time.Duration
	dryRun       bool

	mu    sync.Mutex
	stats Stats
}

// New creates a new Importer. A zero fetchTimeout uses source.DefaultFetchTimeout.
func New(store Store, log *slog.Logger, fetchTimeout time.Duration, dryRun bool) *Importer {
	return &Importer{store: store, log: log, fetchTimeout: fetchTimeout, dryRun: dryRun}
}

// Stats returns the counters accumulated so far.
func (imp *Importer) Stats() Stats {
	imp.mu.Lock()
	defer imp.mu.Unlock()
	return imp.stats
}

func (imp *Importer) add(counter *int, n int) {
	imp.mu.Lock()
	*counter += n
	imp.mu.Unlock()
}

// ImportWorkout imports one workout from src. It returns the stored session,
// or nil with no error when the workout was already imported. Only a failed
// distance fetch or a storage error is returned as an error.
func (imp *Importer) ImportWorkout(ctx context.Context, src source.SampleSource, w Workout) (*models.Session, error) {
	if w.ExternalID != "" && !imp.dryRun {
		exists, err := imp.store.SessionExistsByExternalID(ctx, w.ExternalID)
		if err != nil {
			return nil, fmt.Errorf("checking workout %s: %w", w.ExternalID, err)
		}
		if exists {
			imp.add(&imp.stats.SessionsDuplicated, 1)
			observability.RecordImport("duplicate", time.Time{})
			return nil, nil
		}
	}

	samples, err := source.FetchAll(ctx, src, w.Start, w.End, imp.fetchTimeout, imp.log)
	if err != nil {
		observability.RecordImport("failed", time.Time{})
		return nil, fmt.Errorf("fetching samples for workout %s: %w", w.ExternalID, err)
	}

	session := BuildSession(w, samples)
	laps := len(session.Detail.Laps())
	imp.add(&imp.stats.LapsBuilt, laps)
	observability.RecordLaps(laps, len(samples.Distance) == 0)

	if imp.dryRun {
		imp.add(&imp.stats.SessionsInserted, 1)
		return session, nil
	}

	inserted, err := imp.store.InsertSession(ctx, session)
	if err != nil {
		observability.RecordImport("failed", time.Time{})
		return nil, fmt.Errorf("inserting session for workout %s: %w", w.ExternalID, err)
	}
	if !inserted {
		imp.add(&imp.stats.SessionsDuplicated, 1)
		observability.RecordImport("duplicate", time.Time{})
		return nil, nil
	}

	imp.add(&imp.stats.SessionsInserted, 1)
	observability.RecordImport("imported", time.Now())
	imp.log.Info("imported workout",
		"external_id", w.ExternalID,
		"laps", laps,
		"sets", len(session.Detail.Sets),
		"distance_m", session.TotalDistanceMeters,
	)
	return session, nil
}

// BuildSession analyzes the samples and wraps the result in a new session.
// Totals reported by the source win over the lap sums.
func BuildSession(w Workout, samples swim.Samples) *models.Session {
	detail := swim.Analyze(samples, swim.Workout{
		Start:               w.Start,
		End:                 w.End,
		TotalDistanceMeters: w.TotalDistanceMeters,
		DurationSeconds:     w.DurationSeconds,
	})

	distance := w.TotalDistanceMeters
	if distance <= 0 {
		distance = detail.TotalDistance
	}
	duration := w.DurationSeconds
	if duration <= 0 {
		duration = detail.TotalDuration
	}

	s := &models.Session{
		ID:                   uuid.New(),
		Date:                 w.Start,
		TotalDistanceMeters:  distance,
		TotalDurationMinutes: duration / 60,
		Notes:                w.Name,
		Difficulty:           DefaultDifficulty,
		Detail:               detail,
	}
	if w.ExternalID != "" {
		id := w.ExternalID
		s.ExternalID = &id
	}
	return s
}

// ImportDir imports every .fit file under dir. Files that cannot be decoded
// or whose import fails are logged and counted, and the walk continues.
func (imp *Importer) ImportDir(ctx context.Context, dir string) (*Stats, error) {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".fit") {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		f, err := source.OpenFIT(path)
		if err != nil {
			imp.log.Warn("decode failed", "file", path, "error", err)
			imp.add(&imp.stats.FilesErrored, 1)
			return nil
		}
		if !f.IsSwim {
			imp.log.Info("not a swim, skipping", "file", path, "sport", f.Sport)
			imp.add(&imp.stats.FilesSkipped, 1)
			return nil
		}

		before := imp.Stats().SessionsInserted
		if _, err := imp.ImportWorkout(ctx, f, WorkoutFromFIT(f, filepath.Base(path))); err != nil {
			imp.log.Warn("import failed", "file", path, "error", err)
			imp.add(&imp.stats.FilesErrored, 1)
			return nil
		}
		if imp.Stats().SessionsInserted == before {
			imp.add(&imp.stats.FilesSkipped, 1)
			return nil
		}
		imp.add(&imp.stats.FilesProcessed, 1)
		return nil
	})
	stats := imp.Stats()
	if err != nil {
		return &stats, fmt.Errorf("walking %s: %w", dir, err)
	}
	return &stats, nil
}

// WorkoutFromFIT describes the window covered by a decoded FIT file.
func WorkoutFromFIT(f *source.FITFile, name string) Workout {
	return Workout{
		ExternalID:          f.ExternalID,
		Name:                name,
		Start:               f.Workout.Start,
		End:                 f.Workout.End,
		TotalDistanceMeters: f.Workout.TotalDistanceMeters,
		DurationSeconds:     f.Workout.DurationSeconds,
	}
}
