package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/lanecoach/internal/models"
	"github.com/claude/lanecoach/internal/planner"
	"github.com/google/uuid"
)

// HTTPClient implements DataSource by calling the lanecoach REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, v any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func timeParams(start, end time.Time) url.Values {
	v := url.Values{}
	v.Set("start", start.Format(time.RFC3339))
	v.Set("end", end.Format(time.RFC3339))
	return v
}

func (c *HTTPClient) ListSessions(ctx context.Context, start, end time.Time) ([]models.Session, error) {
	var sessions []models.Session
	if err := c.get(ctx, "/api/v1/sessions", timeParams(start, end), &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *HTTPClient) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var s models.Session
	if err := c.get(ctx, "/api/v1/sessions/"+id.String(), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) TargetForWeek(ctx context.Context, week int) (planner.Target, error) {
	var t planner.Target
	err := c.get(ctx, "/api/v1/targets/"+strconv.Itoa(week), nil, &t)
	return t, err
}

func (c *HTTPClient) CurrentWeek(ctx context.Context) (int, error) {
	p, err := c.Progress(ctx)
	if err != nil {
		return 0, err
	}
	return p.CurrentWeek.Week, nil
}

func (c *HTTPClient) Progress(ctx context.Context) (*Progress, error) {
	var p Progress
	if err := c.get(ctx, "/api/v1/progress", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
