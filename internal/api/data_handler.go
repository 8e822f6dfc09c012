// File path: internal/api/data_handler.go
package api

import (
	"net/http"

	"github.com/jvaldebenito/cronoplan/internal/schedule"
)

// handleData serves the table/gantt projection: rows, filter values and the
// status palette in one payload so display coloring always matches
// derivation.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.loadDataset(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, schedule.Project(ds.Table))
}

// handleDashboard serves the aggregate summary view.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.loadDataset(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, schedule.Summarize(ds.Table))
}
