package storage

import (
	"context"
	"fmt"

	"github.com/claude/lanecoach/internal/models"
)

// UpsertOverride stores the coach target for a week, replacing any previous one.
func (db *DB) UpsertOverride(ctx context.Context, o models.EnduranceTargetOverride) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO endurance_overrides (week_number, target_distance_m, set_date, notes)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (week_number) DO UPDATE SET
		 target_distance_m = EXCLUDED.target_distance_m,
		 set_date = EXCLUDED.set_date,
		 notes = EXCLUDED.notes`,
		o.WeekNumber, o.TargetDistanceMeters, o.SetDate, o.Notes)
	if err != nil {
		return fmt.Errorf("upserting override for week %d: %w", o.WeekNumber, err)
	}
	return nil
}

// ListOverrides returns all overrides ordered by week.
func (db *DB) ListOverrides(ctx context.Context) ([]models.EnduranceTargetOverride, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT week_number, target_distance_m, set_date, notes
		 FROM endurance_overrides
		 ORDER BY week_number`)
	if err != nil {
		return nil, fmt.Errorf("querying overrides: %w", err)
	}
	defer rows.Close()

	var result []models.EnduranceTargetOverride
	for rows.Next() {
		var o models.EnduranceTargetOverride
		if err := rows.Scan(&o.WeekNumber, &o.TargetDistanceMeters, &o.SetDate, &o.Notes); err != nil {
			return nil, fmt.Errorf("scanning override: %w", err)
		}
		result = append(result, o)
	}
	return result, rows.Err()
}

// DeleteOverride removes the override for a week. Returns false if none existed.
func (db *DB) DeleteOverride(ctx context.Context, week int) (bool, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM endurance_overrides WHERE week_number = $1`, week)
	if err != nil {
		return false, fmt.Errorf("deleting override for week %d: %w", week, err)
	}
	return tag.RowsAffected() > 0, nil
}
