package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/lanecoach/internal/source"
	"github.com/claude/lanecoach/internal/swim"
)

// DB serves stored samples to the importer.
var _ source.SampleSource = (*DB)(nil)

// InsertDistanceSamples batch-inserts per-length distance samples. Returns count inserted.
func (db *DB) InsertDistanceSamples(ctx context.Context, samples []swim.LapSample, src string) (int64, error) {
	n, err := db.batchInsert(ctx,
		`INSERT INTO swim_distance_samples (start_time, end_time, distance_m, source)`,
		`ON CONFLICT DO NOTHING`, 4, len(samples),
		func(i int) []any {
			s := samples[i]
			return []any{s.Start, s.End, s.DistanceMeters, src}
		})
	if err != nil {
		return n, fmt.Errorf("inserting distance samples: %w", err)
	}
	return n, nil
}

// InsertStrokeSamples batch-inserts stroke count samples. Returns count inserted.
func (db *DB) InsertStrokeSamples(ctx context.Context, samples []swim.StrokeSample, src string) (int64, error) {
	n, err := db.batchInsert(ctx,
		`INSERT INTO swim_stroke_samples (start_time, end_time, count, stroke_style, source)`,
		`ON CONFLICT DO NOTHING`, 5, len(samples),
		func(i int) []any {
			s := samples[i]
			return []any{s.Start, s.End, s.Count, s.StrokeType, src}
		})
	if err != nil {
		return n, fmt.Errorf("inserting stroke samples: %w", err)
	}
	return n, nil
}

// InsertHeartRateSamples batch-inserts heart rate samples. Returns count inserted.
func (db *DB) InsertHeartRateSamples(ctx context.Context, samples []swim.HeartRateSample, src string) (int64, error) {
	n, err := db.batchInsert(ctx,
		`INSERT INTO heart_rate_samples (start_time, end_time, bpm, source)`,
		`ON CONFLICT DO NOTHING`, 4, len(samples),
		func(i int) []any {
			s := samples[i]
			return []any{s.Start, s.End, s.BPM, src}
		})
	if err != nil {
		return n, fmt.Errorf("inserting heart rate samples: %w", err)
	}
	return n, nil
}

// FetchDistanceSamples returns distance samples starting within [start, end].
func (db *DB) FetchDistanceSamples(ctx context.Context, start, end time.Time) ([]swim.LapSample, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT start_time, end_time, distance_m
		 FROM swim_distance_samples
		 WHERE start_time >= $1 AND start_time <= $2
		 ORDER BY start_time ASC`,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("querying distance samples: %w", err)
	}
	defer rows.Close()

	var result []swim.LapSample
	for rows.Next() {
		var s swim.LapSample
		if err := rows.Scan(&s.Start, &s.End, &s.DistanceMeters); err != nil {
			return nil, fmt.Errorf("scanning distance sample: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// FetchStrokeCountSamples returns stroke samples starting within [start, end].
func (db *DB) FetchStrokeCountSamples(ctx context.Context, start, end time.Time) ([]swim.StrokeSample, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT start_time, end_time, count, stroke_style
		 FROM swim_stroke_samples
		 WHERE start_time >= $1 AND start_time <= $2
		 ORDER BY start_time ASC`,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("querying stroke samples: %w", err)
	}
	defer rows.Close()

	var result []swim.StrokeSample
	for rows.Next() {
		var s swim.StrokeSample
		if err := rows.Scan(&s.Start, &s.End, &s.Count, &s.StrokeType); err != nil {
			return nil, fmt.Errorf("scanning stroke sample: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// FetchHeartRateSamples returns heart rate samples starting within [start, end].
func (db *DB) FetchHeartRateSamples(ctx context.Context, start, end time.Time) ([]swim.HeartRateSample, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT start_time, end_time, bpm
		 FROM heart_rate_samples
		 WHERE start_time >= $1 AND start_time <= $2
		 ORDER BY start_time ASC`,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("querying heart rate samples: %w", err)
	}
	defer rows.Close()

	var result []swim.HeartRateSample
	for rows.Next() {
		var s swim.HeartRateSample
		if err := rows.Scan(&s.Start, &s.End, &s.BPM); err != nil {
			return nil, fmt.Errorf("scanning heart rate sample: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
