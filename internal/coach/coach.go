// Package coach asks a language model for the next few swim workouts.
package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/claude/lanecoach/internal/models"
)

const defaultMaxTokens = 4096

// Context is what the model sees about the swimmer.
type Context struct {
	GoalDistance   int
	GoalDate       time.Time
	Progress       models.WeeklyProgress
	RecentSessions []models.Session
	Request        string
}

// Client wraps the Anthropic API for workout proposals.
type Client struct {
	api       *anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewClient creates a coach client. An empty apiKey falls back to the
// ANTHROPIC_API_KEY environment variable read by the SDK.
func NewClient(apiKey, model string, maxTokens int) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	client := anthropic.NewClient(opts...)
	return &Client{
		api:       &client,
		model:     anthropic.Model(model),
		maxTokens: int64(maxTokens),
	}
}

const systemPrompt = `You are a swim coach planning pool workouts toward a continuous-distance goal. Return ONLY a JSON array of workouts. Each workout is an object with:
- "title": short workout name
- "daysFromNow": integer day offset from today, 0 means today
- "totalDistance": total meters of the workout
- "sets": array of {"type": "warmup"|"main"|"kick"|"pull"|"drill"|"cooldown", "reps": integer, "distance": meters per rep, "rest": rest between reps such as "20s", "instructions": optional text}

Rules:
- "totalDistance" must equal the sum of reps * distance over all sets
- Build toward the weekly target distance in the context
- Return valid JSON only, no markdown fencing or explanation`

// buildPrompt renders the swimmer context as the user prompt.
func buildPrompt(c Context) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Goal: swim %d m continuously by %s.\n", c.GoalDistance, c.GoalDate.Format(time.DateOnly))
	p := c.Progress
	fmt.Fprintf(&sb, "Week %d target: %d m continuous. Best so far this week: %.0f m. Days left in week: %d.\n",
		p.Week, p.TargetDistance, p.BestAchievedDistance, p.DaysLeft)
	if len(c.RecentSessions) > 0 {
		sb.WriteString("\nRecent sessions:\n")
		for _, s := range c.RecentSessions {
			fmt.Fprintf(&sb, "- %s: %.0f m in %.0f min, longest continuous %.0f m, difficulty %d/10\n",
				s.Date.Format(time.DateOnly), s.TotalDistanceMeters, s.TotalDurationMinutes,
				s.ContinuousDistance(), s.Difficulty)
		}
	}
	if c.Request != "" {
		sb.WriteString("\nSwimmer request: ")
		sb.WriteString(c.Request)
		sb.WriteString("\n")
	}
	return sb.String()
}

// ProposeWorkouts asks the model for upcoming workouts. The returned totals
// are whatever the model declared; callers reconcile them.
func (c *Client) ProposeWorkouts(ctx context.Context, in Context) ([]models.ProposedWorkout, error) {
	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(in))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API call: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	return parseWorkouts(text)
}

// parseWorkouts decodes the model's reply, tolerating markdown fencing.
func parseWorkouts(text string) ([]models.ProposedWorkout, error) {
	text = stripFence(text)
	if text == "" {
		return nil, fmt.Errorf("no text content in API response")
	}
	var workouts []models.ProposedWorkout
	if err := json.Unmarshal([]byte(text), &workouts); err != nil {
		return nil, fmt.Errorf("parse LLM response as JSON: %w\nraw response: %s", err, text)
	}
	return workouts, nil
}

func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.SplitN(text, "\n", 2)
	if len(lines) > 1 {
		text = lines[1]
	} else {
		text = ""
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
