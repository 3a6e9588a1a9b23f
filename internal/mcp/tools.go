package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/claude/lanecoach/internal/models"
	"github.com/claude/lanecoach/internal/plan"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultTimeRange returns start/end defaulting to the last 14 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -14)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(time.DateOnly, s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// --- Tool definitions ---

var toolGetSessions = mcp.NewTool("get_sessions",
	mcp.WithDescription("List swim sessions with totals, difficulty and longest continuous distance. Lap detail is omitted; use get_workout_detail for one session."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 14 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
)

var toolGetWorkoutDetail = mcp.NewTool("get_workout_detail",
	mcp.WithDescription("Get one session with its sets and laps: per-lap distance, duration, stroke count, SWOLF, pace, stroke type and heart rate, plus set rests and aggregates."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Session UUID")),
)

var toolGetWeekTarget = mcp.NewTool("get_week_target",
	mcp.WithDescription("Get the continuous-distance target for a training week, either coach-set or projected linearly toward the goal."),
	mcp.WithNumber("week", mcp.Description("Training week number, 0 is the first week. Defaults to the current week.")),
)

var toolGetWeeklyProgress = mcp.NewTool("get_weekly_progress",
	mcp.WithDescription("Get target, best continuous distance achieved and days left for the current and previous training week."),
)

var toolReconcilePlan = mcp.NewTool("reconcile_plan",
	mcp.WithDescription("Check proposed workouts: compare each declared totalDistance with the sum of reps x distance over its sets and flag differences over 50 m."),
	mcp.WithString("workouts", mcp.Required(), mcp.Description(`JSON array of workouts: [{"title": "...", "daysFromNow": 1, "totalDistance": 1200, "sets": [{"type": "main", "reps": 12, "distance": 100}]}]`)),
)

// sessionSummary is a session without its lap detail.
type sessionSummary struct {
	ID                 uuid.UUID `json:"id"`
	Date               time.Time `json:"date"`
	TotalDistance      float64   `json:"total_distance_m"`
	TotalDuration      float64   `json:"total_duration_min"`
	ContinuousDistance float64   `json:"longest_continuous_distance_m"`
	Difficulty         int       `json:"difficulty"`
	Sets               int       `json:"sets"`
	Notes              string    `json:"notes,omitempty"`
}

func summarize(s models.Session) sessionSummary {
	out := sessionSummary{
		ID:                 s.ID,
		Date:               s.Date,
		TotalDistance:      s.TotalDistanceMeters,
		TotalDuration:      s.TotalDurationMinutes,
		ContinuousDistance: s.ContinuousDistance(),
		Difficulty:         s.Difficulty,
		Notes:              s.Notes,
	}
	if s.Detail != nil {
		out.Sets = len(s.Detail.Sets)
	}
	return out
}

// --- Tool handlers ---

func (h *handlers) getSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	sessions, err := h.ds.ListSessions(ctx, start, end)
	if err != nil {
		h.log.Error("mcp get_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	out := make([]sessionSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, summarize(s))
	}
	result, err := mcp.NewToolResultJSON(out)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkoutDetail(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid session id: " + err.Error()), nil
	}

	session, err := h.ds.GetSession(ctx, id)
	if err != nil {
		h.log.Error("mcp get_workout_detail", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(session)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWeekTarget(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	week := req.GetInt("week", -1)
	if week < 0 {
		current, err := h.ds.CurrentWeek(ctx)
		if err != nil {
			h.log.Error("mcp get_week_target current week", "error", err)
			return mcp.NewToolResultError("query failed: " + err.Error()), nil
		}
		week = current
	}

	target, err := h.ds.TargetForWeek(ctx, week)
	if err != nil {
		h.log.Error("mcp get_week_target", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(target)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWeeklyProgress(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	progress, err := h.ds.Progress(ctx)
	if err != nil {
		h.log.Error("mcp get_weekly_progress", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(progress)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) reconcilePlan(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("workouts")
	if err != nil {
		return mcp.NewToolResultError("workouts parameter is required"), nil
	}
	var workouts []models.ProposedWorkout
	if err := json.Unmarshal([]byte(raw), &workouts); err != nil {
		return mcp.NewToolResultError("invalid workouts JSON: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(plan.ReconcileAll(workouts))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// --- Resource handlers ---

func (h *handlers) progress(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	progress, err := h.ds.Progress(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(progress)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
