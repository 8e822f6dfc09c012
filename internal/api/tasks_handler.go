// File path: internal/api/tasks_handler.go
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jvaldebenito/cronoplan/internal/common"
	"github.com/jvaldebenito/cronoplan/internal/dataset"
	"github.com/jvaldebenito/cronoplan/internal/schedule"
)

// handleTasksGet returns the current table as records keyed by column name,
// raw and derived columns alike, in schedule order.
func (s *Server) handleTasksGet(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.loadDataset(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ds.Table.Records())
}

// handleTasksPost accepts the edited table from the UI, re-runs the whole
// coerce/derive pipeline and replaces the stored dataset atomically. On any
// failure the previous dataset stays untouched.
func (s *Server) handleTasksPost(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	ds, ok := s.loadDataset(w, r)
	if !ok {
		return
	}

	var rows []schedule.Row
	if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("payload_must_be_array"))
		return
	}

	table, err := schedule.Derive(rows, s.today())
	if err != nil {
		s.writeDeriveError(w, err)
		return
	}

	replacement := &dataset.Dataset{
		Key:        ds.Key,
		Filename:   ds.Filename,
		UploadedAt: ds.UploadedAt,
		Table:      table,
	}
	if err := s.store.Put(r.Context(), replacement); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	logger.Info("api: tasks replaced", "upload_id", ds.Key, "tasks", len(table.Tasks))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeDeriveError maps pipeline failures to responses: missing required
// columns carry the full column list, anything else is a plain 400.
func (s *Server) writeDeriveError(w http.ResponseWriter, err error) {
	var missing *schedule.MissingColumnsError
	if errors.As(err, &missing) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":           missing.Error(),
			"missing_columns": missing.Columns,
		})
		return
	}
	writeError(w, http.StatusBadRequest, err)
}
