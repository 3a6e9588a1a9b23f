package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/claude/lanecoach/internal/swim"
	"github.com/google/uuid"
)

var (
	// ErrSessionNotFound is returned when a session cannot be located.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionDeleted is returned when editing or deleting an already deleted session.
	ErrSessionDeleted = errors.New("session has been deleted")
)

// Session is one recorded training session, entered manually or imported
// from the sample source.
type Session struct {
	ID                   uuid.UUID           `json:"id"`
	Date                 time.Time           `json:"date"`
	TotalDistanceMeters  float64             `json:"total_distance_m"`
	TotalDurationMinutes float64             `json:"total_duration_min"`
	Notes                string              `json:"notes"`
	Difficulty           int                 `json:"difficulty"`
	PlanItemID           *uuid.UUID          `json:"plan_item_id,omitempty"`
	ExternalID           *string             `json:"external_id,omitempty"`
	Detail               *swim.WorkoutDetail `json:"detail,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
	DeletedAt            *time.Time          `json:"deleted_at,omitempty"`
}

// ContinuousDistance is the session's longest continuous swim. Sessions
// without lap detail count as a single continuous effort.
func (s Session) ContinuousDistance() float64 {
	if s.Detail != nil {
		return s.Detail.LongestContinuousDistance
	}
	return s.TotalDistanceMeters
}

// Validate checks the user-editable fields.
func (s Session) Validate() error {
	if s.Difficulty < 1 || s.Difficulty > 10 {
		return fmt.Errorf("difficulty must be between 1 and 10, got %d", s.Difficulty)
	}
	if s.TotalDistanceMeters < 0 {
		return fmt.Errorf("total distance must not be negative")
	}
	if s.TotalDurationMinutes < 0 {
		return fmt.Errorf("total duration must not be negative")
	}
	if s.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	return nil
}

// EnduranceTargetOverride is a coach-set target distance for one training week.
type EnduranceTargetOverride struct {
	WeekNumber           int       `json:"week_number"`
	TargetDistanceMeters int       `json:"target_distance_m"`
	SetDate              time.Time `json:"set_date"`
	Notes                *string   `json:"notes,omitempty"`
}

// WeeklyProgress is a computed snapshot of one training week.
type WeeklyProgress struct {
	Week                 int       `json:"week"`
	WeekStart            time.Time `json:"week_start"`
	WeekEnd              time.Time `json:"week_end"`
	TargetDistance       int       `json:"target_distance_m"`
	BestAchievedDistance float64   `json:"best_achieved_distance_m"`
	DaysLeft             int       `json:"days_left"`
	IsOverrideTarget     bool      `json:"is_override_target"`
}
