// Package upload walks a directory of FIT swim files and pushes each one to
// the lanecoach ingest endpoint.
package upload

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/claude/lanecoach/internal/models"
	"github.com/claude/lanecoach/internal/source"
)

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int

	LengthsSent   int
	StrokesSent   int
	HeartRateSent int
	WorkoutsSent  int
}

// Sender delivers a payload to the server.
type Sender interface {
	SendPayload(ctx context.Context, payload models.Payload) error
}

// Uploader walks a directory of .fit files, converts each to an ingest
// payload, and POSTs it to the lanecoach server.
type Uploader struct {
	client Sender
	state  *StateDB
	root   string
	dryRun bool
	log    *slog.Logger
	stats  Stats
	now    func() time.Time
}

// New creates a new Uploader.
func New(client Sender, state *StateDB, root string, dryRun bool, log *slog.Logger) *Uploader {
	return &Uploader{
		client: client,
		state:  state,
		root:   root,
		dryRun: dryRun,
		log:    log,
		now:    time.Now,
	}
}

// Run executes the upload pipeline. A file that cannot be read or decoded
// is logged and counted; a send failure aborts the run so the remaining
// files are retried next time.
func (u *Uploader) Run(ctx context.Context) (*Stats, error) {
	files, err := findFITFiles(u.root)
	if err != nil {
		return &u.stats, err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &u.stats, err
		}
		u.stats.FilesTotal++
		if err := u.processFile(ctx, f); err != nil {
			return &u.stats, err
		}
	}

	if !u.dryRun {
		if err := u.state.SetLastRun(u.now()); err != nil {
			u.log.Warn("failed to save last run", "error", err)
		}
	}
	return &u.stats, nil
}

func (u *Uploader) processFile(ctx context.Context, path string) error {
	relPath, _ := filepath.Rel(u.root, path)
	size, hash, err := fileIdentity(path)
	if err != nil {
		u.log.Warn("stat failed", "file", relPath, "error", err)
		u.stats.FilesErrored++
		return nil
	}

	uploaded, err := u.state.IsUploaded(relPath, size, hash)
	if err != nil {
		u.log.Warn("state check failed", "file", relPath, "error", err)
		u.stats.FilesErrored++
		return nil
	}
	if uploaded {
		u.stats.FilesSkipped++
		return nil
	}

	fitFile, err := source.OpenFIT(path)
	if err != nil {
		u.log.Warn("decode failed", "file", relPath, "error", err)
		u.stats.FilesErrored++
		return nil
	}
	if !fitFile.IsSwim {
		u.log.Info("not a swim, skipping", "file", relPath, "sport", fitFile.Sport)
		u.stats.FilesSkipped++
		return u.state.MarkUploaded(relPath, size, hash, fitFile.ExternalID)
	}

	payload, err := convertFIT(fitFile, workoutName(fitFile))
	if err != nil {
		u.log.Warn("convert failed", "file", relPath, "error", err)
		u.stats.FilesErrored++
		return nil
	}

	if u.dryRun {
		u.log.Info("dry-run: would send",
			"file", relPath,
			"lengths", len(fitFile.Samples.Distance),
			"start", fitFile.Workout.Start.Format(time.RFC3339),
		)
	} else {
		if err := u.client.SendPayload(ctx, payload); err != nil {
			return fmt.Errorf("sending %s: %w", relPath, err)
		}
		if err := u.state.MarkUploaded(relPath, size, hash, fitFile.ExternalID); err != nil {
			u.log.Warn("failed to mark uploaded", "file", relPath, "error", err)
		}
	}

	u.stats.FilesUploaded++
	u.stats.WorkoutsSent++
	u.stats.LengthsSent += len(fitFile.Samples.Distance)
	u.stats.StrokesSent += len(fitFile.Samples.Strokes)
	u.stats.HeartRateSent += len(fitFile.Samples.HeartRate)
	u.log.Info("uploaded swim", "file", relPath, "lengths", len(fitFile.Samples.Distance))
	return nil
}

// findFITFiles returns every .fit file under root in lexical order.
func findFITFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".fit") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

func fileIdentity(path string) (int64, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, "", err
	}
	hash, err := HashFile(path)
	if err != nil {
		return 0, "", err
	}
	return info.Size(), hash, nil
}
