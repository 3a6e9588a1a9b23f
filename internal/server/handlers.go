package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/lanecoach/internal/importer"
	"github.com/claude/lanecoach/internal/ingest"
	"github.com/claude/lanecoach/internal/models"
	"github.com/claude/lanecoach/internal/storage"
)

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var payload models.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	start := time.Now()
	result, err := s.ingest.Ingest(r.Context(), &payload)
	s.logImport("ingest", result, err, int(time.Since(start).Milliseconds()))
	if err != nil {
		s.log.Error("ingest error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// importRequest names a window of already stored samples to import.
type importRequest struct {
	ExternalID      string    `json:"external_id"`
	Name            string    `json:"name"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	TotalDistanceM  float64   `json:"total_distance_m"`
	DurationSeconds float64   `json:"duration_sec"`
}

func (s *Server) handleImportWorkout(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Start.IsZero() || req.End.Before(req.Start) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start and end must form a valid window"})
		return
	}

	session, err := s.importer.ImportWorkout(r.Context(), s.db, importer.Workout{
		ExternalID:          req.ExternalID,
		Name:                req.Name,
		Start:               req.Start,
		End:                 req.End,
		TotalDistanceMeters: req.TotalDistanceM,
		DurationSeconds:     req.DurationSeconds,
	})
	if err != nil {
		s.log.Error("workout import failed", "external_id", req.ExternalID, "error", err)
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	if session == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.db.QueryImportLogs(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// logImport records an ingest request's result to the import_logs table.
func (s *Server) logImport(source string, result *ingest.Result, importErr error, durationMs int) {
	entry := storage.ImportLog{
		Source:     source,
		Status:     "success",
		DurationMs: &durationMs,
	}
	if importErr != nil {
		entry.Status = "error"
		msg := importErr.Error()
		entry.ErrorMessage = &msg
	}
	if result != nil {
		entry.SamplesReceived = result.SamplesReceived
		entry.SamplesInserted = result.SamplesInserted
		entry.WorkoutsReceived = result.WorkoutsReceived
		entry.SessionsInserted = result.SessionsInserted
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second) //nolint:mnd
	defer cancel()

	if _, err := s.db.InsertImportLog(ctx, entry); err != nil {
		s.log.Error("failed to log import", "source", source, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseTimeRange(r *http.Request, now time.Time) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" {
		// Default: last 30 days
		end = now
		start = end.AddDate(0, 0, -30)
		return
	}

	start, err = time.Parse(time.RFC3339, startStr)
	if err != nil {
		start, err = time.Parse(time.DateOnly, startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	if endStr == "" {
		end = now
	} else {
		end, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			end, err = time.Parse(time.DateOnly, endStr)
			if err != nil {
				return time.Time{}, time.Time{}, err
			}
			// End of day for date-only
			end = end.Add(24 * time.Hour)
		}
	}
	return
}
