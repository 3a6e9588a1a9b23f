package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/claude/lanecoach/internal/coach"
	"github.com/claude/lanecoach/internal/models"
	"github.com/claude/lanecoach/internal/observability"
	"github.com/claude/lanecoach/internal/plan"
	"github.com/claude/lanecoach/internal/planner"
	"github.com/claude/lanecoach/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleListOverrides(w http.ResponseWriter, r *http.Request) {
	overrides, err := s.db.ListOverrides(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if overrides == nil {
		overrides = []models.EnduranceTargetOverride{}
	}
	writeJSON(w, http.StatusOK, overrides)
}

func (s *Server) handleUpsertOverride(w http.ResponseWriter, r *http.Request) {
	var o models.EnduranceTargetOverride
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if o.WeekNumber < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "week_number must not be negative"})
		return
	}
	if o.TargetDistanceMeters <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "target_distance_m must be positive"})
		return
	}
	o.SetDate = s.now()
	if err := s.db.UpsertOverride(r.Context(), o); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleDeleteOverride(w http.ResponseWriter, r *http.Request) {
	week, err := strconv.Atoi(chi.URLParam(r, "week"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid week"})
		return
	}
	deleted, err := s.db.DeleteOverride(r.Context(), week)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no override for week"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	p, err := s.planner(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	from, to := 0, p.TotalWeeks()
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		if from, err = strconv.Atoi(v); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid from"})
			return
		}
	}
	if v := q.Get("to"); v != "" {
		if to, err = strconv.Atoi(v); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid to"})
			return
		}
	}
	if !p.ValidRange(from, to) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("week range must satisfy 0 <= from <= to <= %d", p.TotalWeeks()+planner.MaxTargetWeeks),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"baseline_m":  p.Baseline(),
		"total_weeks": p.TotalWeeks(),
		"targets":     p.Targets(from, to),
	})
}

func (s *Server) handleTargetForWeek(w http.ResponseWriter, r *http.Request) {
	week, err := strconv.Atoi(chi.URLParam(r, "week"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid week"})
		return
	}
	p, err := s.planner(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, p.TargetForWeek(week))
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	p, err := s.planner(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	now := s.now()
	writeJSON(w, http.StatusOK, map[string]models.WeeklyProgress{
		"current_week": p.CurrentWeekProgress(now),
		"last_week":    p.LastWeekProgress(now),
	})
}

// proposeRequest stages the given workouts, or asks the coach for new ones
// when Workouts is empty.
type proposeRequest struct {
	Request  string                   `json:"request"`
	Workouts []models.ProposedWorkout `json:"workouts"`
}

func (s *Server) handlePropose(w http.ResponseWriter, r *http.Request) {
	var req proposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	workouts := req.Workouts
	if len(workouts) == 0 {
		if s.coach == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "coach is not configured"})
			return
		}
		in, err := s.coachContext(r, req.Request)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		workouts, err = s.coach.ProposeWorkouts(r.Context(), in)
		if err != nil {
			s.log.Error("coach proposal failed", "error", err)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
			return
		}
	}

	proposal := plan.Propose(workouts, s.now())
	if n := proposal.Mismatches(); n > 0 {
		observability.RecordPlanMismatches(n)
		s.log.Warn("proposed workouts with mismatched totals", "proposal", proposal.ID, "count", n)
	}
	if err := s.db.InsertProposal(r.Context(), proposal); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, proposal)
}

// coachContext gathers the current week and the last two weeks of sessions.
func (s *Server) coachContext(r *http.Request, request string) (coach.Context, error) {
	p, err := s.planner(r.Context())
	if err != nil {
		return coach.Context{}, err
	}
	now := s.now()
	recent, err := s.db.ListSessions(r.Context(), now.AddDate(0, 0, -14), now)
	if err != nil {
		return coach.Context{}, err
	}
	return coach.Context{
		GoalDistance:   s.plan.GoalDistance,
		GoalDate:       s.plan.GoalDate,
		Progress:       p.CurrentWeekProgress(now),
		RecentSessions: recent,
		Request:        request,
	}, nil
}

func (s *Server) handleAcceptProposal(w http.ResponseWriter, r *http.Request) {
	proposal, ok := s.loadProposal(w, r)
	if !ok {
		return
	}
	items, err := proposal.Accept(s.now())
	if err == nil {
		err = s.db.AcceptProposal(r.Context(), proposal.ID, items)
	}
	if err != nil {
		writeProposalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleRejectProposal(w http.ResponseWriter, r *http.Request) {
	proposal, ok := s.loadProposal(w, r)
	if !ok {
		return
	}
	err := proposal.Reject()
	if err == nil {
		err = s.db.RejectProposal(r.Context(), proposal.ID)
	}
	if err != nil {
		writeProposalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proposal)
}

func (s *Server) handlePlanItems(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	start, end := now.AddDate(0, 0, -1), now.AddDate(0, 0, 14)
	if r.URL.Query().Get("start") != "" {
		var err error
		start, end, err = parseTimeRange(r, now)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}
	items, err := s.db.ListPlanItems(r.Context(), start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if items == nil {
		items = []models.PlanItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) loadProposal(w http.ResponseWriter, r *http.Request) (*plan.Proposal, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid proposal ID"})
		return nil, false
	}
	proposal, err := s.db.GetProposal(r.Context(), id)
	if err != nil {
		writeProposalError(w, err)
		return nil, false
	}
	return proposal, true
}

func writeProposalError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrProposalNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, plan.ErrProposalNotPending):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
