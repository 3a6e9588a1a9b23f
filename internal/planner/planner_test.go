package planner

import (
	"testing"
	"time"

	"github.com/claude/lanecoach/internal/models"
	"github.com/claude/lanecoach/internal/swim"
)

// Monday.
var trainingStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		TrainingStart: trainingStart,
		GoalDate:      trainingStart.AddDate(0, 0, 30*7),
		GoalDistance:  3000,
		WeekStart:     time.Monday,
	}
}

func override(week, distance int) models.EnduranceTargetOverride {
	return models.EnduranceTargetOverride{WeekNumber: week, TargetDistanceMeters: distance}
}

func session(date time.Time, distance float64) models.Session {
	return models.Session{Date: date, TotalDistanceMeters: distance, Difficulty: 5}
}

// TestTargetForWeekInterpolates verifies linear interpolation between two overrides.
func TestTargetForWeekInterpolates(t *testing.T) {
	p := New(testConfig(), []models.EnduranceTargetOverride{override(10, 2200), override(5, 1800)}, nil)

	got := p.TargetForWeek(7)
	if got.Distance != 1960 || !got.IsOverride {
		t.Errorf("week 7 = %+v, want 1960 override", got)
	}
}

// TestTargetForWeekExactOverride verifies an override wins for its own week.
func TestTargetForWeekExactOverride(t *testing.T) {
	p := New(testConfig(), []models.EnduranceTargetOverride{override(5, 1800), override(10, 2200)}, nil)

	for _, tt := range []struct{ week, want int }{{5, 1800}, {10, 2200}} {
		got := p.TargetForWeek(tt.week)
		if got.Distance != tt.want || !got.IsOverride {
			t.Errorf("week %d = %+v, want %d override", tt.week, got, tt.want)
		}
	}
}

// TestTargetForWeekLinear verifies the fallback projection from the earliest session.
func TestTargetForWeekLinear(t *testing.T) {
	sessions := []models.Session{
		session(trainingStart.AddDate(0, 0, 9), 900),
		session(trainingStart.AddDate(0, 0, 2), 550),
	}
	p := New(testConfig(), nil, sessions)

	if p.TotalWeeks() != 30 {
		t.Fatalf("TotalWeeks = %d, want 30", p.TotalWeeks())
	}
	if p.Baseline() != 550 {
		t.Fatalf("Baseline = %v, want 550", p.Baseline())
	}
	got := p.TargetForWeek(8)
	if got.Distance != 1203 || got.IsOverride {
		t.Errorf("week 8 = %+v, want 1203 linear", got)
	}
}

// TestTargetForWeekOutsideOverrides verifies that weeks outside the override
// range use the linear formula rather than extrapolating.
func TestTargetForWeekOutsideOverrides(t *testing.T) {
	cfg := testConfig()
	cfg.GoalDistance = 3400
	p := New(cfg, []models.EnduranceTargetOverride{override(5, 1800), override(10, 2200)}, nil)

	// baseline 400, increment (3400-400)/30 = 100
	tests := []struct{ week, want int }{
		{0, 400},
		{4, 800},
		{11, 1500},
		{30, 3400},
	}
	for _, tt := range tests {
		got := p.TargetForWeek(tt.week)
		if got.Distance != tt.want || got.IsOverride {
			t.Errorf("week %d = %+v, want %d linear", tt.week, got, tt.want)
		}
	}
}

// TestTargetForWeekSingleOverride verifies a lone override never drives neighbours.
func TestTargetForWeekSingleOverride(t *testing.T) {
	cfg := testConfig()
	cfg.GoalDistance = 3400
	p := New(cfg, []models.EnduranceTargetOverride{override(5, 5000)}, nil)

	if got := p.TargetForWeek(5); got.Distance != 5000 || !got.IsOverride {
		t.Errorf("week 5 = %+v", got)
	}
	if got := p.TargetForWeek(6); got.Distance != 1000 || got.IsOverride {
		t.Errorf("week 6 = %+v, want 1000 linear", got)
	}
}

// TestDuplicateOverridesLastWins verifies duplicates keep the last value seen.
func TestDuplicateOverridesLastWins(t *testing.T) {
	p := New(testConfig(), []models.EnduranceTargetOverride{override(3, 1000), override(3, 1200)}, nil)
	if got := p.TargetForWeek(3); got.Distance != 1200 {
		t.Errorf("week 3 = %d, want 1200", got.Distance)
	}
}

// TestTotalWeeksClamped verifies a goal on or before the start does not divide by zero.
func TestTotalWeeksClamped(t *testing.T) {
	cfg := testConfig()
	cfg.GoalDate = trainingStart.AddDate(0, 0, 3)
	cfg.GoalDistance = 1000
	p := New(cfg, nil, nil)

	if p.TotalWeeks() != 1 {
		t.Fatalf("TotalWeeks = %d, want 1", p.TotalWeeks())
	}
	if got := p.TargetForWeek(1); got.Distance != 1000 {
		t.Errorf("week 1 = %d, want 1000", got.Distance)
	}
}

// TestRoundHalfUp verifies ties round towards the larger distance.
func TestRoundHalfUp(t *testing.T) {
	p := New(testConfig(), []models.EnduranceTargetOverride{override(0, 1000), override(2, 1001)}, nil)
	if got := p.TargetForWeek(1); got.Distance != 1001 {
		t.Errorf("week 1 = %d, want 1001", got.Distance)
	}
}

// TestDefaultBaselineConfig verifies the configured baseline replaces the constant.
func TestDefaultBaselineConfig(t *testing.T) {
	cfg := testConfig()
	cfg.DefaultBaseline = 600
	if got := New(cfg, nil, nil).Baseline(); got != 600 {
		t.Errorf("Baseline = %v, want 600", got)
	}
	if got := New(testConfig(), nil, nil).Baseline(); got != DefaultBaselineMeters {
		t.Errorf("Baseline = %v, want %d", got, DefaultBaselineMeters)
	}
}

// TestBaselineUsesContinuousDistance verifies the baseline reads the longest
// set rather than the session total.
func TestBaselineUsesContinuousDistance(t *testing.T) {
	s := session(trainingStart, 1500)
	s.Detail = &swim.WorkoutDetail{LongestContinuousDistance: 300}
	p := New(testConfig(), nil, []models.Session{s})
	if p.Baseline() != 300 {
		t.Errorf("Baseline = %v, want 300", p.Baseline())
	}
}

// TestWeekNumber verifies week boundaries for a Monday week start.
func TestWeekNumber(t *testing.T) {
	p := New(testConfig(), nil, nil)

	tests := []struct {
		name string
		date time.Time
		want int
	}{
		{"start", trainingStart, 0},
		{"sunday of week 0", time.Date(2024, 1, 7, 23, 59, 0, 0, time.UTC), 0},
		{"monday of week 1", time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), 1},
		{"before start", time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), 0},
		{"week 10", trainingStart.AddDate(0, 0, 72), 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.WeekNumber(tt.date); got != tt.want {
				t.Errorf("WeekNumber(%v) = %d, want %d", tt.date, got, tt.want)
			}
		})
	}
}

// TestWeekNumberMidweekStart verifies week 0 begins on the configured weekday
// even when training starts mid-week.
func TestWeekNumberMidweekStart(t *testing.T) {
	cfg := testConfig()
	cfg.TrainingStart = time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC) // Wednesday
	p := New(cfg, nil, nil)

	if got := p.WeekNumber(time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)); got != 1 {
		t.Errorf("WeekNumber(next monday) = %d, want 1", got)
	}
	if got := p.WeekStartDate(0); !got.Equal(trainingStart) {
		t.Errorf("WeekStartDate(0) = %v, want %v", got, trainingStart)
	}
}

// TestCurrentWeekProgress verifies the snapshot for the week containing now.
func TestCurrentWeekProgress(t *testing.T) {
	sessions := []models.Session{
		session(time.Date(2024, 1, 2, 7, 0, 0, 0, time.UTC), 500),   // week 0
		session(time.Date(2024, 1, 15, 7, 0, 0, 0, time.UTC), 800),  // week 2
		session(time.Date(2024, 1, 17, 7, 0, 0, 0, time.UTC), 950),  // week 2
		session(time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC), 2000), // week 3
	}
	deleted := session(time.Date(2024, 1, 16, 7, 0, 0, 0, time.UTC), 3000)
	deletedAt := time.Date(2024, 1, 16, 8, 0, 0, 0, time.UTC)
	deleted.DeletedAt = &deletedAt
	sessions = append(sessions, deleted)

	p := New(testConfig(), []models.EnduranceTargetOverride{override(2, 1100)}, sessions)
	now := time.Date(2024, 1, 18, 12, 0, 0, 0, time.UTC) // Thursday

	got := p.CurrentWeekProgress(now)
	if got.Week != 2 {
		t.Errorf("Week = %d, want 2", got.Week)
	}
	if !got.WeekStart.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("WeekStart = %v", got.WeekStart)
	}
	if !got.WeekEnd.Equal(time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("WeekEnd = %v", got.WeekEnd)
	}
	if got.BestAchievedDistance != 950 {
		t.Errorf("BestAchievedDistance = %v, want 950", got.BestAchievedDistance)
	}
	if got.TargetDistance != 1100 || !got.IsOverrideTarget {
		t.Errorf("target = %d override=%v, want 1100 override", got.TargetDistance, got.IsOverrideTarget)
	}
	if got.DaysLeft != 4 {
		t.Errorf("DaysLeft = %d, want 4", got.DaysLeft)
	}
}

// TestCurrentWeekProgressDaysLeft verifies days left across the week.
func TestCurrentWeekProgressDaysLeft(t *testing.T) {
	p := New(testConfig(), nil, nil)
	tests := []struct {
		day  int
		want int
	}{
		{15, 7}, // Monday
		{21, 1}, // Sunday
	}
	for _, tt := range tests {
		now := time.Date(2024, 1, tt.day, 23, 0, 0, 0, time.UTC)
		if got := p.CurrentWeekProgress(now).DaysLeft; got != tt.want {
			t.Errorf("Jan %d: DaysLeft = %d, want %d", tt.day, got, tt.want)
		}
	}
}

// TestLastWeekProgress verifies the previous week's snapshot.
func TestLastWeekProgress(t *testing.T) {
	sessions := []models.Session{
		session(time.Date(2024, 1, 9, 7, 0, 0, 0, time.UTC), 700),
		session(time.Date(2024, 1, 15, 7, 0, 0, 0, time.UTC), 800),
	}
	p := New(testConfig(), nil, sessions)

	got := p.LastWeekProgress(time.Date(2024, 1, 18, 12, 0, 0, 0, time.UTC))
	if got.Week != 1 {
		t.Errorf("Week = %d, want 1", got.Week)
	}
	if got.BestAchievedDistance != 700 {
		t.Errorf("BestAchievedDistance = %v, want 700", got.BestAchievedDistance)
	}
	if got.DaysLeft != 0 {
		t.Errorf("DaysLeft = %d, want 0", got.DaysLeft)
	}
}

// TestLastWeekProgressBeforeTraining verifies the week before training start
// carries no target.
func TestLastWeekProgressBeforeTraining(t *testing.T) {
	sessions := []models.Session{session(time.Date(2023, 12, 28, 7, 0, 0, 0, time.UTC), 400)}
	p := New(testConfig(), []models.EnduranceTargetOverride{override(0, 500)}, sessions)

	got := p.LastWeekProgress(time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC))
	if got.Week != 0 || got.TargetDistance != 0 || got.IsOverrideTarget {
		t.Errorf("last week = %+v, want week 0 without target", got)
	}
	if got.BestAchievedDistance != 400 {
		t.Errorf("BestAchievedDistance = %v, want 400", got.BestAchievedDistance)
	}

	cur := p.CurrentWeekProgress(time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC))
	if cur.TargetDistance != 500 {
		t.Errorf("current week target = %d, want 500", cur.TargetDistance)
	}
}

// TestProgressEmptyWeek verifies a week without sessions reports 0.
func TestProgressEmptyWeek(t *testing.T) {
	p := New(testConfig(), nil, nil)
	got := p.CurrentWeekProgress(time.Date(2024, 1, 18, 12, 0, 0, 0, time.UTC))
	if got.BestAchievedDistance != 0 {
		t.Errorf("BestAchievedDistance = %v, want 0", got.BestAchievedDistance)
	}
}

// TestTargets verifies a week range is listed inclusively.
func TestTargets(t *testing.T) {
	p := New(testConfig(), []models.EnduranceTargetOverride{override(5, 1800), override(10, 2200)}, nil)

	got := p.Targets(5, 10)
	if len(got) != 6 {
		t.Fatalf("len = %d, want 6", len(got))
	}
	if got[2].Week != 7 || got[2].Distance != 1960 {
		t.Errorf("targets[2] = %+v", got[2])
	}
	if !got[0].WeekStart.Equal(trainingStart.AddDate(0, 0, 35)) {
		t.Errorf("WeekStart = %v", got[0].WeekStart)
	}
	if p.Targets(3, 2) != nil {
		t.Error("expected nil for reversed range")
	}
}

// TestTargetsRangeBounds verifies ranges outside the plan horizon are refused
// without allocating.
func TestTargetsRangeBounds(t *testing.T) {
	p := New(testConfig(), nil, nil)
	limit := p.TotalWeeks() + MaxTargetWeeks

	tests := []struct {
		name     string
		from, to int
		want     int
	}{
		{"whole plan", 0, p.TotalWeeks(), p.TotalWeeks() + 1},
		{"up to limit", limit, limit, 1},
		{"past limit", 0, limit + 1, 0},
		{"huge", 0, 1 << 60, 0},
		{"negative from", -1, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(p.Targets(tt.from, tt.to)); got != tt.want {
				t.Errorf("len(Targets(%d, %d)) = %d, want %d", tt.from, tt.to, got, tt.want)
			}
		})
	}
}
