package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/lanecoach/internal/coach"
	"github.com/claude/lanecoach/internal/importer"
	"github.com/claude/lanecoach/internal/ingest"
	"github.com/claude/lanecoach/internal/models"
	"github.com/claude/lanecoach/internal/plan"
	"github.com/claude/lanecoach/internal/planner"
	"github.com/claude/lanecoach/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Store is the persistence the HTTP API needs. *storage.DB implements it.
type Store interface {
	ingest.Store
	importer.Store

	GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	ListSessions(ctx context.Context, start, end time.Time) ([]models.Session, error)
	AllSessions(ctx context.Context) ([]models.Session, error)
	UpdateSession(ctx context.Context, s *models.Session) error
	DeleteSession(ctx context.Context, id uuid.UUID) error

	UpsertOverride(ctx context.Context, o models.EnduranceTargetOverride) error
	ListOverrides(ctx context.Context) ([]models.EnduranceTargetOverride, error)
	DeleteOverride(ctx context.Context, week int) (bool, error)

	InsertProposal(ctx context.Context, p plan.Proposal) error
	GetProposal(ctx context.Context, id uuid.UUID) (*plan.Proposal, error)
	RejectProposal(ctx context.Context, id uuid.UUID) error
	AcceptProposal(ctx context.Context, id uuid.UUID, items []models.PlanItem) error
	ListPlanItems(ctx context.Context, start, end time.Time) ([]models.PlanItem, error)

	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	QueryImportLogs(ctx context.Context, limit int) ([]storage.ImportLog, error)
}

var _ Store = (*storage.DB)(nil)

// Proposer drafts upcoming workouts. *coach.Client implements it.
type Proposer interface {
	ProposeWorkouts(ctx context.Context, in coach.Context) ([]models.ProposedWorkout, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	db       Store
	ingest   *ingest.Provider
	importer *importer.Importer
	plan     planner.Config
	coach    Proposer
	whois    WhoIser
	log      *slog.Logger
	apiKey   string
	now      func() time.Time
	router   chi.Router
}

// New creates a new Server with all routes configured.
func New(db Store, provider *ingest.Provider, imp *importer.Importer, planCfg planner.Config, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		db:       db,
		ingest:   provider,
		importer: imp,
		plan:     planCfg,
		log:      log,
		apiKey:   apiKey,
		now:      time.Now,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetCoach enables POST /api/v1/plans/propose without an explicit workout list.
func (s *Server) SetCoach(p Proposer) {
	s.coach = p
}

// SetTailscale attaches tailnet identities to requests.
func (s *Server) SetTailscale(w WhoIser) {
	s.whois = w
}

func (s *Server) routes() {
	s.router.Use(s.identity)
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		// Write endpoints fed by devices (API key required)
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/ingest", s.handleIngest)
			r.Post("/workouts/import", s.handleImportWorkout)
		})

		// Dashboard API endpoints (no auth, tsnet handles access)
		r.Get("/import-logs", s.handleImportLogs)

		r.Get("/sessions", s.handleListSessions)
		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Put("/sessions/{id}", s.handleUpdateSession)
		r.Delete("/sessions/{id}", s.handleDeleteSession)

		r.Get("/overrides", s.handleListOverrides)
		r.Put("/overrides", s.handleUpsertOverride)
		r.Delete("/overrides/{week}", s.handleDeleteOverride)

		r.Get("/targets", s.handleTargets)
		r.Get("/targets/{week}", s.handleTargetForWeek)
		r.Get("/progress", s.handleProgress)

		r.Post("/plans/propose", s.handlePropose)
		r.Post("/plans/{id}/accept", s.handleAcceptProposal)
		r.Post("/plans/{id}/reject", s.handleRejectProposal)
		r.Get("/plans/items", s.handlePlanItems)

		r.Get("/export/laps", s.handleExportLaps)
	})
}

// planner builds a planner over the current sessions and overrides.
func (s *Server) planner(ctx context.Context) (*planner.Planner, error) {
	sessions, err := s.db.AllSessions(ctx)
	if err != nil {
		return nil, err
	}
	overrides, err := s.db.ListOverrides(ctx)
	if err != nil {
		return nil, err
	}
	return planner.New(s.plan, overrides, sessions), nil
}
