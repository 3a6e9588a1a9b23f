package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/claude/lanecoach/internal/planner"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Planner   PlannerConfig   `yaml:"planner"`
	Import    ImportConfig    `yaml:"import"`
	Coach     CoachConfig     `yaml:"coach"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// PlannerConfig describes the training plan. Dates use the 2006-01-02 layout.
type PlannerConfig struct {
	TrainingStart   string `yaml:"training_start"`
	GoalDate        string `yaml:"goal_date"`
	GoalDistance    int    `yaml:"goal_distance"`
	WeekStart       string `yaml:"week_start"`
	DefaultBaseline int    `yaml:"default_baseline"`
	Timezone        string `yaml:"timezone"`
}

type ImportConfig struct {
	FetchTimeout string `yaml:"fetch_timeout"`
}

// CoachConfig configures the plan proposer. An empty APIKey disables it.
type CoachConfig struct {
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Build converts the YAML plan into a planner configuration.
func (p PlannerConfig) Build() (planner.Config, error) {
	loc := time.UTC
	if p.Timezone != "" {
		l, err := time.LoadLocation(p.Timezone)
		if err != nil {
			return planner.Config{}, fmt.Errorf("planner.timezone: %w", err)
		}
		loc = l
	}
	start, err := time.ParseInLocation(time.DateOnly, p.TrainingStart, loc)
	if err != nil {
		return planner.Config{}, fmt.Errorf("planner.training_start: %w", err)
	}
	goal, err := time.ParseInLocation(time.DateOnly, p.GoalDate, loc)
	if err != nil {
		return planner.Config{}, fmt.Errorf("planner.goal_date: %w", err)
	}
	weekStart, err := parseWeekday(p.WeekStart)
	if err != nil {
		return planner.Config{}, fmt.Errorf("planner.week_start: %w", err)
	}
	return planner.Config{
		TrainingStart:   start,
		GoalDate:        goal,
		GoalDistance:    p.GoalDistance,
		WeekStart:       weekStart,
		DefaultBaseline: p.DefaultBaseline,
		Location:        loc,
	}, nil
}

// Timeout returns the per-stream fetch timeout, or zero for the default.
func (i ImportConfig) Timeout() time.Duration {
	d, _ := time.ParseDuration(i.FetchTimeout)
	return d
}

// parseWeekday accepts full or three-letter English day names. Empty means Monday.
func parseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return time.Monday, nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix LANECOACH_ and underscore-separated paths:
//
//	LANECOACH_SERVER_HOST, LANECOACH_SERVER_PORT,
//	LANECOACH_DB_HOST, LANECOACH_DB_PORT, LANECOACH_DB_NAME,
//	LANECOACH_DB_USER, LANECOACH_DB_PASSWORD, LANECOACH_DB_SSLMODE,
//	LANECOACH_AUTH_API_KEY, LANECOACH_COACH_API_KEY, LANECOACH_COACH_MODEL,
//	LANECOACH_GOAL_DISTANCE, LANECOACH_GOAL_DATE
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LANECOACH_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("LANECOACH_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LANECOACH_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("LANECOACH_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("LANECOACH_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("LANECOACH_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("LANECOACH_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("LANECOACH_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("LANECOACH_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("LANECOACH_COACH_API_KEY"); v != "" {
		cfg.Coach.APIKey = v
	}
	if v := os.Getenv("LANECOACH_COACH_MODEL"); v != "" {
		cfg.Coach.Model = v
	}
	if v := os.Getenv("LANECOACH_GOAL_DISTANCE"); v != "" {
		if d, err := strconv.Atoi(v); err == nil {
			cfg.Planner.GoalDistance = d
		}
	}
	if v := os.Getenv("LANECOACH_GOAL_DATE"); v != "" {
		cfg.Planner.GoalDate = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	if c.Planner.GoalDistance <= 0 {
		return fmt.Errorf("planner.goal_distance must be positive")
	}
	if _, err := c.Planner.Build(); err != nil {
		return err
	}
	if c.Import.FetchTimeout != "" {
		if _, err := time.ParseDuration(c.Import.FetchTimeout); err != nil {
			return fmt.Errorf("import.fetch_timeout: %w", err)
		}
	}
	return nil
}
