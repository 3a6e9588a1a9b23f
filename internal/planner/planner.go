// Package planner computes weekly endurance targets and progress snapshots.
//
// Every calculation takes "now" as a parameter; nothing here reads the clock.
package planner

import (
	"math"
	"slices"
	"sort"
	"time"

	"github.com/claude/lanecoach/internal/models"
)

// DefaultBaselineMeters is the starting distance when no session exists yet.
const DefaultBaselineMeters = 400

// Config is the fixed training plan the targets are projected on.
type Config struct {
	TrainingStart time.Time
	GoalDate      time.Time
	GoalDistance  int
	// WeekStart is the first day of every training week.
	WeekStart time.Weekday
	// DefaultBaseline replaces DefaultBaselineMeters when positive.
	DefaultBaseline int
	// Location defines calendar days. Nil means UTC.
	Location *time.Location
}

// Target is the distance goal for one training week.
type Target struct {
	Week       int       `json:"week"`
	WeekStart  time.Time `json:"week_start"`
	Distance   int       `json:"target_distance_m"`
	IsOverride bool      `json:"is_override_target"`
}

// Planner is an immutable snapshot of the plan configuration, the coach
// overrides and the session history. It is safe for concurrent use.
type Planner struct {
	cfg       Config
	loc       *time.Location
	overrides map[int]int
	weeks     []int
	sessions  []models.Session
	baseline  float64
}

// New builds a planner. Duplicate override weeks keep the last value seen.
// Deleted sessions are ignored.
func New(cfg Config, overrides []models.EnduranceTargetOverride, sessions []models.Session) *Planner {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	p := &Planner{
		cfg:       cfg,
		loc:       loc,
		overrides: make(map[int]int, len(overrides)),
	}

	for _, o := range overrides {
		p.overrides[o.WeekNumber] = o.TargetDistanceMeters
	}
	for w := range p.overrides {
		p.weeks = append(p.weeks, w)
	}
	sort.Ints(p.weeks)

	for _, s := range sessions {
		if s.DeletedAt == nil {
			p.sessions = append(p.sessions, s)
		}
	}

	p.baseline = float64(DefaultBaselineMeters)
	if cfg.DefaultBaseline > 0 {
		p.baseline = float64(cfg.DefaultBaseline)
	}
	if len(p.sessions) > 0 {
		earliest := slices.MinFunc(p.sessions, func(a, b models.Session) int {
			return a.Date.Compare(b.Date)
		})
		p.baseline = earliest.ContinuousDistance()
	}
	return p
}

// Baseline is the distance the linear projection starts from.
func (p *Planner) Baseline() float64 {
	return p.baseline
}

// TotalWeeks is the number of weeks between the training start and the
// goal date, never less than 1.
func (p *Planner) TotalWeeks() int {
	return max(p.WeekNumber(p.cfg.GoalDate), 1)
}

// WeekNumber returns the training week containing t. Dates before the
// training start belong to week 0.
func (p *Planner) WeekNumber(t time.Time) int {
	days := civilDays(p.startOfWeek(p.cfg.TrainingStart), p.startOfWeek(t))
	if days < 0 {
		return 0
	}
	return days / 7
}

// WeekStartDate returns midnight on the first day of week n.
func (p *Planner) WeekStartDate(n int) time.Time {
	return p.startOfWeek(p.cfg.TrainingStart).AddDate(0, 0, 7*n)
}

// TargetForWeek resolves the target for week n: an exact override, an
// interpolation between the two overrides bounding n, or the linear
// projection from the baseline to the goal.
func (p *Planner) TargetForWeek(n int) Target {
	t := Target{Week: n, WeekStart: p.WeekStartDate(n)}

	if d, ok := p.overrides[n]; ok {
		t.Distance, t.IsOverride = d, true
		return t
	}

	if len(p.weeks) > 0 && n > p.weeks[0] && n < p.weeks[len(p.weeks)-1] {
		// n is strictly inside the range and not an override week, so the
		// insertion point has a distinct neighbour on each side.
		i := sort.SearchInts(p.weeks, n)
		lo, hi := p.weeks[i-1], p.weeks[i]
		from, to := float64(p.overrides[lo]), float64(p.overrides[hi])
		t.Distance = roundHalfUp(from + (to-from)*float64(n-lo)/float64(hi-lo))
		t.IsOverride = true
		return t
	}

	increment := (float64(p.cfg.GoalDistance) - p.baseline) / float64(p.TotalWeeks())
	t.Distance = roundHalfUp(p.baseline + increment*float64(n))
	return t
}

// MaxTargetWeeks bounds how many weeks past the plan a target range may
// extend.
const MaxTargetWeeks = 52

// Targets returns the targets for weeks from through to inclusive. Ranges that
// are inverted, start before week 0, or reach past TotalWeeks+MaxTargetWeeks
// yield nil; ValidRange reports which ranges are accepted.
func (p *Planner) Targets(from, to int) []Target {
	if !p.ValidRange(from, to) {
		return nil
	}
	targets := make([]Target, 0, to-from+1)
	for n := from; n <= to; n++ {
		targets = append(targets, p.TargetForWeek(n))
	}
	return targets
}

// ValidRange reports whether weeks from through to form a range Targets will
// resolve.
func (p *Planner) ValidRange(from, to int) bool {
	return from >= 0 && to >= from && to <= p.TotalWeeks()+MaxTargetWeeks
}

// CurrentWeekProgress returns the progress snapshot of the week containing now.
func (p *Planner) CurrentWeekProgress(now time.Time) models.WeeklyProgress {
	start := p.startOfWeek(now)
	wp := p.progress(start, p.WeekNumber(now))
	wp.DaysLeft = max(civilDays(p.day(now), wp.WeekEnd), 0)
	return wp
}

// LastWeekProgress returns the snapshot of the week before the one
// containing now. Its DaysLeft is always 0. A previous week that falls before
// the training start reports as week 0 with no target.
func (p *Planner) LastWeekProgress(now time.Time) models.WeeklyProgress {
	start := p.startOfWeek(now).AddDate(0, 0, -7)
	wp := p.progress(start, max(p.WeekNumber(now)-1, 0))
	if start.Before(p.startOfWeek(p.cfg.TrainingStart)) {
		wp.TargetDistance, wp.IsOverrideTarget = 0, false
	}
	return wp
}

func (p *Planner) progress(weekStart time.Time, week int) models.WeeklyProgress {
	weekEnd := weekStart.AddDate(0, 0, 7)
	target := p.TargetForWeek(week)

	var best float64
	for _, s := range p.sessions {
		if s.Date.Before(weekStart) || !s.Date.Before(weekEnd) {
			continue
		}
		best = max(best, s.ContinuousDistance())
	}

	return models.WeeklyProgress{
		Week:                 week,
		WeekStart:            weekStart,
		WeekEnd:              weekEnd,
		TargetDistance:       target.Distance,
		BestAchievedDistance: best,
		IsOverrideTarget:     target.IsOverride,
	}
}

// day truncates t to midnight of its calendar day in the plan location.
func (p *Planner) day(t time.Time) time.Time {
	y, m, d := t.In(p.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, p.loc)
}

func (p *Planner) startOfWeek(t time.Time) time.Time {
	d := p.day(t)
	offset := (int(d.Weekday()) - int(p.cfg.WeekStart) + 7) % 7
	return d.AddDate(0, 0, -offset)
}

// civilDays counts calendar days from a to b, ignoring DST shifts.
func civilDays(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
