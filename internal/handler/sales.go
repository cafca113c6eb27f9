package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reacts/reacts/internal/auth"
	"github.com/reacts/reacts/internal/export"
	"github.com/reacts/reacts/internal/handler/dto"
	"github.com/reacts/reacts/internal/metrics"
	"github.com/reacts/reacts/internal/middleware"
	"github.com/reacts/reacts/internal/model"
	"github.com/reacts/reacts/internal/service"
)

// Sales table messages.
const (
	msgFetchFailed     = "Failed to fetch sales data"
	msgSaveFailed      = "Failed to save sale"
	msgDeleteFailed    = "Failed to delete sale"
	msgBulkFailed      = "Failed to delete sales"
	msgImportFailed    = "Failed to import CSV"
	msgExportFailed    = "Failed to export sales"
	msgSaleAdded       = "Sale added successfully"
	msgSaleUpdated     = "Sale updated successfully"
	msgSaleDeleted     = "Sale deleted successfully"
	msgInvalidRequest  = "Invalid request body"
	msgNoneSelected    = "No sales selected"
	importFormField    = "file"
	maxImportFormBytes = 10 << 20
)

// SalesHandler serves the dashboard's sales table API.
type SalesHandler struct {
	svc     *service.SalesService
	metrics metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time
	render  func(io.Writer, export.Format, []*model.Sale, time.Time) error
}

// NewSalesHandler creates a new SalesHandler.
func NewSalesHandler(svc *service.SalesService, recorder metrics.Recorder, logger *slog.Logger) *SalesHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &SalesHandler{
		svc:     svc,
		metrics: recorder,
		logger:  logger,
		now:     time.Now,
		render:  export.Write,
	}
}

// List handles GET /api/sales.
func (h *SalesHandler) List(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())

	sales, err := h.svc.List(r.Context(), session.AccessToken)
	if err != nil {
		h.handleServiceError(w, r, msgFetchFailed, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToSaleListResponse(sales))
}

// Create handles POST /api/sales.
func (h *SalesHandler) Create(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())

	var req dto.SaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: msgInvalidRequest})
		return
	}
	input := req.ToInput()
	if err := middleware.ValidateSaleInput(input); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	sale, err := h.svc.Create(r.Context(), session.AccessToken, input)
	if err != nil {
		h.handleServiceError(w, r, msgSaveFailed, err)
		return
	}

	h.logger.Info("sale_created", "sale_id", sale.ID, "user_id", session.UserID)

	resp := dto.ToSaleResponse(sale)
	writeJSON(w, http.StatusCreated, dto.MutationResponse{Success: true, Message: msgSaleAdded, Sale: &resp})
}

// Update handles PATCH /api/sales/{id}.
func (h *SalesHandler) Update(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req dto.SaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: msgInvalidRequest})
		return
	}
	input := req.ToInput()
	if err := middleware.ValidateSaleInput(input); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	sale, err := h.svc.Update(r.Context(), session.AccessToken, id, input)
	if err != nil {
		h.handleServiceError(w, r, msgSaveFailed, err)
		return
	}

	h.logger.Info("sale_updated", "sale_id", sale.ID, "user_id", session.UserID)

	resp := dto.ToSaleResponse(sale)
	writeJSON(w, http.StatusOK, dto.MutationResponse{Success: true, Message: msgSaleUpdated, Sale: &resp})
}

// Delete handles DELETE /api/sales/{id}.
func (h *SalesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.svc.Delete(r.Context(), session.AccessToken, id); err != nil {
		h.handleServiceError(w, r, msgDeleteFailed, err)
		return
	}

	h.logger.Info("sale_deleted", "sale_id", id, "user_id", session.UserID)

	writeJSON(w, http.StatusOK, dto.MutationResponse{Success: true, Message: msgSaleDeleted})
}

// DeleteMany handles POST /api/sales/delete.
func (h *SalesHandler) DeleteMany(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())

	ids, ok := h.decodeSelection(w, r)
	if !ok {
		return
	}
	ids = service.NormalizeIDs(ids)
	if len(ids) == 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: msgNoneSelected})
		return
	}

	res := h.svc.DeleteMany(r.Context(), session.AccessToken, ids)
	h.logger.Info("sales_deleted", "succeeded", res.Succeeded, "failed", res.Failed, "user_id", session.UserID)

	if res.Succeeded == 0 {
		status := http.StatusBadGateway
		if res.Missing == res.Failed {
			status = http.StatusNotFound
		}
		writeJSON(w, status, dto.ErrorResponse{Error: msgBulkFailed})
		return
	}
	writeJSON(w, http.StatusOK, batchResponse("Deleted", res))
}

// Import handles POST /api/sales/import (multipart field "file").
func (h *SalesHandler) Import(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())

	if err := r.ParseMultipartForm(maxImportFormBytes); err != nil {
		h.logger.Warn("import form unreadable", "error", err, "request_id", middleware.GetRequestID(r.Context()))
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: msgImportFailed})
		return
	}
	file, _, err := r.FormFile(importFormField)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: msgNoFile})
		return
	}
	defer file.Close()

	rows, err := export.ReadCSV(file)
	if err != nil {
		h.logger.Warn("import csv invalid", "error", err, "request_id", middleware.GetRequestID(r.Context()))
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: msgImportFailed})
		return
	}

	res := h.svc.Import(r.Context(), session.AccessToken, rows)
	h.logger.Info("sales_imported", "succeeded", res.Succeeded, "failed", res.Failed, "user_id", session.UserID)

	if res.Succeeded == 0 && res.Failed > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: msgImportFailed})
		return
	}
	writeJSON(w, http.StatusOK, batchResponse("Imported", res))
}

// Summary handles POST /api/sales/summary.
func (h *SalesHandler) Summary(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())

	ids, ok := h.decodeSelection(w, r)
	if !ok {
		return
	}

	summary, err := h.svc.Summary(r.Context(), session.AccessToken, ids)
	if err != nil {
		h.handleServiceError(w, r, msgFetchFailed, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Export handles GET /api/sales/export?format=csv|xlsx|pdf&ids=a,b.
// Without ids every row is exported.
func (h *SalesHandler) Export(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Unsupported export format"})
		return
	}

	ids := parseIDs(r.URL.Query()["ids"])
	if err := middleware.ValidateIDs(ids); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	sales, err := h.svc.Select(r.Context(), session.AccessToken, ids)
	if err != nil {
		h.handleServiceError(w, r, msgExportFailed, err)
		return
	}

	now := h.now()
	var buf bytes.Buffer
	if err := h.render(&buf, format, sales, now); err != nil {
		h.handleServiceError(w, r, msgExportFailed, fmt.Errorf("render %s: %w", format, err))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(format, now)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)

	h.metrics.IncExport(string(format))
	h.logger.Info("sales_exported", "format", format, "rows", len(sales), "user_id", session.UserID)
}

func (h *SalesHandler) decodeSelection(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	var req dto.SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: msgInvalidRequest})
		return nil, false
	}
	if err := middleware.ValidateIDs(req.IDs); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return nil, false
	}
	return req.IDs, true
}

// handleServiceError maps service errors to HTTP responses. The message is
// always the flat one for the operation; missing fields are listed.
func (h *SalesHandler) handleServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: msg, Fields: verr.Fields})
		return
	}

	h.logger.Error("sales_error",
		slog.String("message", msg),
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)
	writeJSON(w, statusFor(err), dto.ErrorResponse{Error: msg})
}

// batchResponse words a bulk result: "Deleted 3 sales" or "Deleted 3 sales, 1 failed".
func batchResponse(verb string, res service.BatchResult) dto.BatchResponse {
	msg := fmt.Sprintf("%s %d sales", verb, res.Succeeded)
	if res.Failed > 0 {
		msg = fmt.Sprintf("%s, %d failed", msg, res.Failed)
	}
	return dto.BatchResponse{
		Success:   true,
		Message:   msg,
		Succeeded: res.Succeeded,
		Failed:    res.Failed,
	}
}

// parseIDs accepts repeated and comma-separated ids.
func parseIDs(values []string) []string {
	var ids []string
	for _, v := range values {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
