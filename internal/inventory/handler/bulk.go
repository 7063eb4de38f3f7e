package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/vendora/vendora-backend/internal/inventory/service"
	"github.com/vendora/vendora-backend/pkg/errors"
	"github.com/vendora/vendora-backend/pkg/httputil"
	"github.com/vendora/vendora-backend/pkg/logger"
)

// 10 MB upload cap, far above the row limit for any plausible file
const maxUploadBytes = 10 << 20

// BulkHandler handles bulk-update upload, rollback export and template endpoints
type BulkHandler struct {
	engine  *service.BulkUpdateService
	maxRows int
	logger  *logger.Logger
}

// NewBulkHandler creates a new bulk handler
func NewBulkHandler(engine *service.BulkUpdateService, maxRows int, log *logger.Logger) *BulkHandler {
	return &BulkHandler{
		engine:  engine,
		maxRows: maxRows,
		logger:  log,
	}
}

// Upload accepts a CSV or XLSX file as multipart form data, runs the bulk
// update and returns the full summary including rollback records.
func (h *BulkHandler) Upload(w http.ResponseWriter, r *http.Request) {
	vendorID := httputil.GetVendorID(r.Context())

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.Error(w, errors.BadRequest("failed to parse multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.Error(w, errors.BadRequest("missing file field"))
		return
	}
	defer file.Close()

	var rows []service.BulkRow
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".csv":
		rows, err = service.ParseCSV(file, h.maxRows)
	case ".xlsx":
		rows, err = service.ParseXLSX(file, h.maxRows)
	default:
		httputil.Error(w, errors.BadRequest("unsupported file type, expected .csv or .xlsx"))
		return
	}
	if err != nil {
		httputil.Error(w, err)
		return
	}

	summary, err := h.engine.Run(r.Context(), vendorID, rows)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summary)
}

// ExportRollback renders posted rollback records as a bulk-update XLSX file.
// Re-uploading the file through Upload restores the recorded values.
func (h *BulkHandler) ExportRollback(w http.ResponseWriter, r *http.Request) {
	var records []service.RollbackRecord
	if err := httputil.DecodeJSON(r, &records); err != nil {
		httputil.Error(w, err)
		return
	}
	if len(records) == 0 {
		httputil.Error(w, errors.BadRequest("no rollback records provided"))
		return
	}

	data, err := service.WriteRollbackXLSX(records)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to generate rollback export")
		httputil.Error(w, errors.Internal("failed to generate rollback export"))
		return
	}

	serveXLSX(w, fmt.Sprintf("bulk-rollback-%s.xlsx", time.Now().Format("2006-01-02")), data)
}

// DownloadTemplate serves the bulk-update template with sample rows
func (h *BulkHandler) DownloadTemplate(w http.ResponseWriter, r *http.Request) {
	data, err := service.WriteTemplateXLSX()
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to generate bulk template")
		httputil.Error(w, errors.Internal("failed to generate template"))
		return
	}

	serveXLSX(w, "bulk-update-template.xlsx", data)
}

func serveXLSX(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.Write(data)
}
