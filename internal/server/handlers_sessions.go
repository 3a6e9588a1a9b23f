package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/claude/lanecoach/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// sessionRequest holds the editable fields of a session.
type sessionRequest struct {
	Date                 time.Time  `json:"date"`
	TotalDistanceMeters  float64    `json:"total_distance_m"`
	TotalDurationMinutes float64    `json:"total_duration_min"`
	Notes                string     `json:"notes"`
	Difficulty           int        `json:"difficulty"`
	PlanItemID           *uuid.UUID `json:"plan_item_id,omitempty"`
}

func (req sessionRequest) apply(s *models.Session) {
	s.Date = req.Date
	s.TotalDistanceMeters = req.TotalDistanceMeters
	s.TotalDurationMinutes = req.TotalDurationMinutes
	s.Notes = req.Notes
	s.Difficulty = req.Difficulty
	s.PlanItemID = req.PlanItemID
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r, s.now())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	sessions, err := s.db.ListSessions(r.Context(), start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	session := &models.Session{ID: uuid.New()}
	req.apply(session)
	if err := session.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if _, err := s.db.InsertSession(r.Context(), session); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	session, err := s.db.GetSession(r.Context(), id)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	session, err := s.db.GetSession(r.Context(), id)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	if session.DeletedAt != nil {
		writeSessionError(w, models.ErrSessionDeleted)
		return
	}
	req.apply(session)
	if err := session.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := s.db.UpdateSession(r.Context(), session); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	if err := s.db.DeleteSession(r.Context(), id); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return uuid.Nil, false
	}
	return id, true
}

func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, models.ErrSessionDeleted):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
