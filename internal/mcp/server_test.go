package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/claude/lanecoach/internal/models"
	"github.com/claude/lanecoach/internal/plan"
	"github.com/claude/lanecoach/internal/planner"
	"github.com/claude/lanecoach/internal/swim"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// memStore is an in-memory LocalStore.
type memStore struct {
	sessions  []models.Session
	overrides []models.EnduranceTargetOverride
}

func (m *memStore) ListSessions(_ context.Context, start, end time.Time) ([]models.Session, error) {
	var out []models.Session
	for _, s := range m.sessions {
		if !s.Date.Before(start) && s.Date.Before(end) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) AllSessions(_ context.Context) ([]models.Session, error) {
	return m.sessions, nil
}

func (m *memStore) GetSession(_ context.Context, id uuid.UUID) (*models.Session, error) {
	for _, s := range m.sessions {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, models.ErrSessionNotFound
}

func (m *memStore) ListOverrides(_ context.Context) ([]models.EnduranceTargetOverride, error) {
	return m.overrides, nil
}

var sessionID = uuid.MustParse("22222222-2222-2222-2222-222222222222")

func newHandlers() *handlers {
	store := &memStore{
		sessions: []models.Session{{
			ID:                  sessionID,
			Date:                time.Date(2024, 2, 6, 7, 0, 0, 0, time.UTC),
			TotalDistanceMeters: 1000,
			Difficulty:          6,
			Detail: &swim.WorkoutDetail{
				Sets:                      []swim.Set{{Laps: []swim.Lap{{DistanceMeters: 25}}}},
				LongestContinuousDistance: 600,
			},
		}},
		overrides: []models.EnduranceTargetOverride{{WeekNumber: 5, TargetDistanceMeters: 1000}},
	}
	local := NewLocal(store, planner.Config{
		TrainingStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		GoalDate:      time.Date(2024, 7, 29, 0, 0, 0, 0, time.UTC),
		GoalDistance:  3000,
		WeekStart:     time.Monday,
	})
	local.now = func() time.Time { return time.Date(2024, 2, 7, 12, 0, 0, 0, time.UTC) }
	return &handlers{ds: local, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// callToolReq builds a CallToolRequest with the given name and arguments.
func callToolReq(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// resultText extracts the concatenated text from a CallToolResult.
func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	var b strings.Builder
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

func resultJSON(t *testing.T, result *mcp.CallToolResult, target any) {
	t.Helper()
	if result.IsError {
		t.Fatalf("tool error: %s", resultText(t, result))
	}
	text := resultText(t, result)
	if err := json.Unmarshal([]byte(text), target); err != nil {
		t.Fatalf("failed to parse result JSON: %v\n%s", err, text)
	}
}

// TestGetSessions verifies sessions are summarized with their continuous distance.
func TestGetSessions(t *testing.T) {
	h := newHandlers()
	res, err := h.getSessions(context.Background(), callToolReq("get_sessions", map[string]any{
		"start": "2024-02-01", "end": "2024-02-10",
	}))
	if err != nil {
		t.Fatal(err)
	}
	var got []sessionSummary
	resultJSON(t, res, &got)
	if len(got) != 1 || got[0].ContinuousDistance != 600 || got[0].Sets != 1 {
		t.Errorf("got %+v", got)
	}
}

// TestGetWorkoutDetail verifies lookups by ID and rejection of bad IDs.
func TestGetWorkoutDetail(t *testing.T) {
	h := newHandlers()
	res, err := h.getWorkoutDetail(context.Background(), callToolReq("get_workout_detail", map[string]any{
		"id": sessionID.String(),
	}))
	if err != nil {
		t.Fatal(err)
	}
	var got models.Session
	resultJSON(t, res, &got)
	if got.Detail == nil || len(got.Detail.Laps()) != 1 {
		t.Errorf("detail = %+v", got.Detail)
	}

	for _, id := range []string{"nope", uuid.NewString()} {
		res, _ := h.getWorkoutDetail(context.Background(), callToolReq("get_workout_detail", map[string]any{"id": id}))
		if !res.IsError {
			t.Errorf("id %q: expected tool error", id)
		}
	}
}

// TestGetWeekTarget verifies explicit weeks and the current-week default.
func TestGetWeekTarget(t *testing.T) {
	h := newHandlers()
	tests := []struct {
		name string
		args map[string]any
		week int
		want int
	}{
		{"current week is the override", map[string]any{}, 5, 1000},
		{"explicit override week", map[string]any{"week": 5}, 5, 1000},
		// past the last override the projection from the 600m baseline applies
		{"projected week", map[string]any{"week": 10}, 10, 1400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.getWeekTarget(context.Background(), callToolReq("get_week_target", tt.args))
			if err != nil {
				t.Fatal(err)
			}
			var got planner.Target
			resultJSON(t, res, &got)
			if got.Week != tt.week || got.Distance != tt.want {
				t.Errorf("got %+v, want week %d distance %d", got, tt.week, tt.want)
			}
		})
	}
}

// TestGetWeeklyProgress verifies both weeks are returned.
func TestGetWeeklyProgress(t *testing.T) {
	h := newHandlers()
	res, err := h.getWeeklyProgress(context.Background(), callToolReq("get_weekly_progress", nil))
	if err != nil {
		t.Fatal(err)
	}
	var got Progress
	resultJSON(t, res, &got)
	if got.CurrentWeek.Week != 5 || got.CurrentWeek.BestAchievedDistance != 600 || !got.CurrentWeek.IsOverrideTarget {
		t.Errorf("current = %+v", got.CurrentWeek)
	}
	if got.LastWeek.Week != 4 {
		t.Errorf("last = %+v", got.LastWeek)
	}
}

// TestReconcilePlan verifies mismatches over the tolerance are flagged.
func TestReconcilePlan(t *testing.T) {
	h := newHandlers()
	res, err := h.reconcilePlan(context.Background(), callToolReq("reconcile_plan", map[string]any{
		"workouts": `[{"title":"A","totalDistance":1200,"sets":[{"reps":12,"distance":100}]},
		             {"title":"B","totalDistance":1300,"sets":[{"reps":12,"distance":100}]}]`,
	}))
	if err != nil {
		t.Fatal(err)
	}
	var got []plan.Check
	resultJSON(t, res, &got)
	if len(got) != 2 || got[0].Mismatch || !got[1].Mismatch {
		t.Errorf("checks = %+v", got)
	}

	res, _ = h.reconcilePlan(context.Background(), callToolReq("reconcile_plan", map[string]any{"workouts": "{"}))
	if !res.IsError {
		t.Error("expected tool error for invalid JSON")
	}
}

type failingSource struct{ DataSource }

func (failingSource) Progress(context.Context) (*Progress, error) {
	return nil, errors.New("database down")
}

// TestProgressResource verifies the resource payload and error propagation.
func TestProgressResource(t *testing.T) {
	h := newHandlers()
	req := mcp.ReadResourceRequest{}
	req.Params.URI = "lanecoach://progress"
	contents, err := h.progress(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok || !strings.Contains(text.Text, `"current_week"`) {
		t.Errorf("contents = %+v", contents)
	}

	h.ds = failingSource{}
	if _, err := h.progress(context.Background(), req); err == nil {
		t.Error("expected error from failing source")
	}
}

// TestDefaultTimeRange verifies time range defaults (last 14 days) and parsing.
func TestDefaultTimeRange(t *testing.T) {
	start, end, err := defaultTimeRange("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := end.Sub(start).Hours(); diff < 335 || diff > 337 {
		t.Errorf("default range = %.0f hours, want ~336", diff)
	}

	start, _, err = defaultTimeRange("2024-06-15T10:30:00Z", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Hour() != 10 || start.Minute() != 30 {
		t.Errorf("start = %v, want 10:30", start)
	}

	if _, _, err = defaultTimeRange("not-a-date", ""); err == nil {
		t.Error("expected error for invalid date")
	}
}
