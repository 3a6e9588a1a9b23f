package server

import (
	"fmt"
	"net/http"

	"github.com/claude/lanecoach/internal/export"
	"github.com/claude/lanecoach/internal/models"
)

func (s *Server) handleExportLaps(w http.ResponseWriter, r *http.Request) {
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
	s.writeLaps(w, r.URL.Query().Get("format"), sessions)
}

// writeLaps streams the lap table as CSV (the default) or Parquet.
func (s *Server) writeLaps(w http.ResponseWriter, format string, sessions []models.Session) {
	rows := export.Rows(sessions)
	switch format {
	case "", "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="laps.csv"`)
		if err := export.WriteCSV(w, rows); err != nil {
			s.log.Error("csv export failed", "error", err)
		}
	case "parquet":
		data, err := export.MarshalParquet(rows)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		w.Header().Set("Content-Type", "application/vnd.apache.parquet")
		w.Header().Set("Content-Disposition", `attachment; filename="laps.parquet"`)
		w.Write(data)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown format %q", format)})
	}
}
