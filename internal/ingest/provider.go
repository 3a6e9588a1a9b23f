// Package ingest stores pushed swim samples and imports the workouts that
// arrive with them.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/claude/lanecoach/internal/importer"
	"github.com/claude/lanecoach/internal/models"
	"github.com/claude/lanecoach/internal/source"
	"github.com/claude/lanecoach/internal/swim"
)

// Result holds the outcome of an ingest operation.
type Result struct {
	SamplesReceived int      `json:"samples_received"`
	SamplesInserted int64    `json:"samples_inserted"`
	SamplesSkipped  int64    `json:"samples_skipped"`
	SamplesRejected int      `json:"samples_rejected"`
	RejectedNames   []string `json:"rejected_names,omitempty"`

	WorkoutsReceived   int      `json:"workouts_received"`
	SessionsInserted   int      `json:"sessions_inserted"`
	SessionsDuplicated int      `json:"sessions_duplicated"`
	WorkoutErrors      []string `json:"workout_errors,omitempty"`

	Message string `json:"message,omitempty"`
}

// Store persists samples and serves them back for import.
type Store interface {
	source.SampleSource
	InsertDistanceSamples(ctx context.Context, samples []swim.LapSample, src string) (int64, error)
	InsertStrokeSamples(ctx context.Context, samples []swim.StrokeSample, src string) (int64, error)
	InsertHeartRateSamples(ctx context.Context, samples []swim.HeartRateSample, src string) (int64, error)
}

// Provider processes ingest payloads.
type Provider struct {
	store    Store
	importer *importer.Importer
	log      *slog.Logger
}

// NewProvider creates a new ingest provider.
func NewProvider(store Store, imp *importer.Importer, log *slog.Logger) *Provider {
	return &Provider{store: store, importer: imp, log: log}
}

// Ingest stores the samples of a payload, then imports each workout from
// the stored samples. A workout that fails to import is reported in the
// result and does not fail the request.
func (p *Provider) Ingest(ctx context.Context, payload *models.Payload) (*Result, error) {
	result := &Result{}

	if err := p.processMetrics(ctx, payload.Data.Metrics, result); err != nil {
		return result, fmt.Errorf("processing metrics: %w", err)
	}

	for _, w := range payload.Data.Workouts {
		result.WorkoutsReceived++
		if err := p.processWorkout(ctx, w, result); err != nil {
			p.log.Warn("workout import failed", "id", w.ID, "error", err)
			result.WorkoutErrors = append(result.WorkoutErrors, fmt.Sprintf("%s: %v", w.ID, err))
		}
	}

	if len(result.RejectedNames) > 0 {
		result.Message = fmt.Sprintf(
			"Some metrics were rejected because they are not swim metrics: %v. Accepted samples are stored.",
			result.RejectedNames)
	}
	return result, nil
}

func (p *Provider) processMetrics(ctx context.Context, metrics []models.PayloadMetric, result *Result) error {
	rejectedSet := map[string]bool{}

	for _, m := range metrics {
		result.SamplesReceived += len(m.Data)
		src := m.Source
		if src == "" {
			src = "ingest"
		}

		var (
			inserted int64
			skipped  int
			err      error
		)
		switch m.Name {
		case models.MetricSwimDistance:
			var samples []swim.LapSample
			samples, skipped, err = convertDistance(m)
			if err != nil {
				return err
			}
			inserted, err = p.store.InsertDistanceSamples(ctx, samples, src)
		case models.MetricSwimStrokes:
			var samples []swim.StrokeSample
			samples, skipped = convertStrokes(m)
			inserted, err = p.store.InsertStrokeSamples(ctx, samples, src)
		case models.MetricHeartRate:
			var samples []swim.HeartRateSample
			samples, skipped = convertHeartRate(m)
			inserted, err = p.store.InsertHeartRateSamples(ctx, samples, src)
		default:
			if !rejectedSet[m.Name] {
				result.RejectedNames = append(result.RejectedNames, m.Name)
				rejectedSet[m.Name] = true
			}
			result.SamplesRejected += len(m.Data)
			continue
		}
		if err != nil {
			return err
		}
		if skipped > 0 {
			p.log.Warn("skipped malformed data points", "metric", m.Name, "count", skipped)
		}
		result.SamplesInserted += inserted
		result.SamplesSkipped += int64(len(m.Data)) - inserted
	}
	return nil
}

func (p *Provider) processWorkout(ctx context.Context, w models.PayloadWorkout, result *Result) error {
	workout := importer.Workout{
		ExternalID:      w.ID,
		Name:            w.Name,
		Start:           w.Start.Time,
		End:             w.End.Time,
		DurationSeconds: w.Duration,
	}
	if w.Distance != nil {
		meters, err := w.Distance.Meters()
		if err != nil {
			return err
		}
		workout.TotalDistanceMeters = meters
	}

	session, err := p.importer.ImportWorkout(ctx, p.store, workout)
	if err != nil {
		return err
	}
	if session == nil {
		result.SessionsDuplicated++
		return nil
	}
	result.SessionsInserted++
	return nil
}
