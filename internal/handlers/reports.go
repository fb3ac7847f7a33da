package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ridgelinevc/portfolio-backend/internal/dto"
	"github.com/ridgelinevc/portfolio-backend/internal/export"
	"github.com/ridgelinevc/portfolio-backend/internal/middleware"
	"github.com/ridgelinevc/portfolio-backend/internal/models"
	"github.com/ridgelinevc/portfolio-backend/internal/response"
)

type reportService interface {
	Create(ctx context.Context, uid string, req dto.CreateReportRequest) (*models.ReportTemplate, error)
	List(ctx context.Context, uid string) ([]*models.ReportTemplate, error)
	Generate(ctx context.Context, uid, reportID string) (dto.ReportData, error)
}

type reportHandlers struct {
	ResponseHandler response.ResponseHandler
	ReportSvc       reportService
}

func NewReportHandlers(deps *Deps) *reportHandlers {
	return &reportHandlers{
		ResponseHandler: deps.ResponseHandler,
		ReportSvc:       deps.ReportSvc,
	}
}

func (h *reportHandlers) ReportRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListReports)
	r.Post("/", h.CreateReport)
	r.Get("/{reportId}", h.GetReport)
	r.Get("/{reportId}/export", h.ExportReport)
	return r
}

func (h *reportHandlers) ListReports(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	reports, err := h.ReportSvc.List(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, reports)
}

func (h *reportHandlers) CreateReport(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	report, err := h.ReportSvc.Create(r.Context(), uid, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, report)
}

// GetReport generates the report and returns it as JSON. CSV and XLSX
// renditions live under /export.
func (h *reportHandlers) GetReport(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportId")
	uid := middleware.UID(r.Context())
	data, err := h.ReportSvc.Generate(r.Context(), uid, reportID)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, data)
}

func (h *reportHandlers) ExportReport(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportId")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = dto.FormatCSV
	}
	contentType, err := export.ContentType(format)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	uid := middleware.UID(r.Context())
	data, err := h.ReportSvc.Generate(r.Context(), uid, reportID)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, data); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(data.Name, format)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
