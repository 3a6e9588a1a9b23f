// Package source fetches the raw sample streams a workout is built from.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/claude/lanecoach/internal/observability"
	"github.com/claude/lanecoach/internal/swim"
	"golang.org/x/sync/errgroup"
)

// ErrNoDistanceData is returned when the distance stream cannot be fetched.
// Without it there is no workout to import.
var ErrNoDistanceData = errors.New("no distance data")

// DefaultFetchTimeout bounds each stream fetch when no timeout is configured.
const DefaultFetchTimeout = 30 * time.Second

// SampleSource supplies the raw swim streams for a time window. Results
// are ordered by start time ascending.
type SampleSource interface {
	FetchDistanceSamples(ctx context.Context, start, end time.Time) ([]swim.LapSample, error)
	FetchStrokeCountSamples(ctx context.Context, start, end time.Time) ([]swim.StrokeSample, error)
	FetchHeartRateSamples(ctx context.Context, start, end time.Time) ([]swim.HeartRateSample, error)
}

// FetchAll fetches the three streams concurrently and waits for all of them.
// Each fetch runs under its own timeout. A failed stroke or heart rate fetch
// degrades to an empty stream; a failed distance fetch aborts with
// ErrNoDistanceData.
func FetchAll(ctx context.Context, src SampleSource, start, end time.Time, timeout time.Duration, log *slog.Logger) (swim.Samples, error) {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	var (
		distance  []swim.LapSample
		strokes   []swim.StrokeSample
		heartRate []swim.HeartRateSample
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fctx, cancel := context.WithTimeout(gctx, timeout)
		defer cancel()
		s, err := src.FetchDistanceSamples(fctx, start, end)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrNoDistanceData, err)
		}
		distance = s
		return nil
	})

	g.Go(func() error {
		fctx, cancel := context.WithTimeout(gctx, timeout)
		defer cancel()
		s, err := src.FetchStrokeCountSamples(fctx, start, end)
		if err != nil {
			log.Warn("stroke count fetch failed, continuing without strokes", "start", start, "error", err)
			observability.RecordFetchDegraded("stroke_count")
			return nil
		}
		strokes = s
		return nil
	})

	g.Go(func() error {
		fctx, cancel := context.WithTimeout(gctx, timeout)
		defer cancel()
		s, err := src.FetchHeartRateSamples(fctx, start, end)
		if err != nil {
			log.Warn("heart rate fetch failed, continuing without heart rate", "start", start, "error", err)
			observability.RecordFetchDegraded("heart_rate")
			return nil
		}
		heartRate = s
		return nil
	})

	if err := g.Wait(); err != nil {
		return swim.Samples{}, err
	}

	slices.SortStableFunc(distance, func(a, b swim.LapSample) int { return a.Start.Compare(b.Start) })
	slices.SortStableFunc(strokes, func(a, b swim.StrokeSample) int { return a.Start.Compare(b.Start) })
	slices.SortStableFunc(heartRate, func(a, b swim.HeartRateSample) int { return a.Start.Compare(b.Start) })

	return swim.Samples{Distance: distance, Strokes: strokes, HeartRate: heartRate}, nil
}

// Static serves an already captured set of samples.
type Static struct {
	Samples swim.Samples
}

var _ SampleSource = (*Static)(nil)

func (s *Static) FetchDistanceSamples(ctx context.Context, start, end time.Time) ([]swim.LapSample, error) {
	return window(ctx, s.Samples.Distance, start, end, func(l swim.LapSample) time.Time { return l.Start })
}

func (s *Static) FetchStrokeCountSamples(ctx context.Context, start, end time.Time) ([]swim.StrokeSample, error) {
	return window(ctx, s.Samples.Strokes, start, end, func(l swim.StrokeSample) time.Time { return l.Start })
}

func (s *Static) FetchHeartRateSamples(ctx context.Context, start, end time.Time) ([]swim.HeartRateSample, error) {
	return window(ctx, s.Samples.HeartRate, start, end, func(l swim.HeartRateSample) time.Time { return l.Start })
}

// window returns the samples starting within [start, end].
func window[T any](ctx context.Context, samples []T, start, end time.Time, startOf func(T) time.Time) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []T
	for _, s := range samples {
		t := startOf(s)
		if t.Before(start) || t.After(end) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}
