// File path: internal/api/upload_handler.go
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jvaldebenito/cronoplan/internal/common"
	"github.com/jvaldebenito/cronoplan/internal/dataset"
	"github.com/jvaldebenito/cronoplan/internal/schedule"
	"github.com/jvaldebenito/cronoplan/internal/xlsx"
)

type uploadResponse struct {
	UploadID   string    `json:"upload_id"`
	Filename   string    `json:"filename"`
	Tasks      int       `json:"tasks"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// handleUpload ingests a workbook: multipart form field "file", schedule
// sheet picked by name, full derive, stored under a fresh upload key. A
// failed derivation stores nothing.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		logger.Warn("api: upload form parse failed", "error", err)
		writeError(w, http.StatusBadRequest, fmt.Errorf("failed to parse upload form: %w", err))
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("file field required: %w", err))
		return
	}
	defer file.Close()

	rows, headers, err := xlsx.Read(file)
	if err != nil {
		logger.Warn("api: workbook read failed", "filename", header.Filename, "error", err)
		writeError(w, http.StatusBadRequest, fmt.Errorf("read workbook: %w", err))
		return
	}

	// A sheet with the required headers and no tasks yet is a valid, empty
	// project; only the header row can vouch for its columns.
	var table *schedule.Table
	if len(rows) == 0 {
		if missing := schedule.ValidateHeaders(headers); missing != nil {
			s.writeDeriveError(w, missing)
			return
		}
		table = &schedule.Table{Tasks: []schedule.Task{}}
	} else {
		table, err = schedule.Derive(rows, s.today())
		if err != nil {
			s.writeDeriveError(w, err)
			return
		}
	}

	ds := &dataset.Dataset{
		Key:        dataset.NewKey(),
		Filename:   header.Filename,
		UploadedAt: s.now().UTC(),
		Table:      table,
	}
	if err := s.store.Put(ctx, ds); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("store dataset: %w", err))
		return
	}
	logger.Info("api: upload processed", "upload_id", ds.Key, "filename", ds.Filename, "tasks", len(table.Tasks))
	writeJSON(w, http.StatusOK, uploadResponse{
		UploadID:   ds.Key,
		Filename:   ds.Filename,
		Tasks:      len(table.Tasks),
		UploadedAt: ds.UploadedAt,
	})
}
