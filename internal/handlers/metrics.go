package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ridgelinevc/portfolio-backend/internal/dto"
	"github.com/ridgelinevc/portfolio-backend/internal/errs"
	"github.com/ridgelinevc/portfolio-backend/internal/metrics"
	"github.com/ridgelinevc/portfolio-backend/internal/middleware"
	"github.com/ridgelinevc/portfolio-backend/internal/models"
	"github.com/ridgelinevc/portfolio-backend/internal/response"
)

type metricService interface {
	List(ctx context.Context, uid, companyID, periodType string) (dto.MetricsResponse, error)
	Submit(ctx context.Context, uid, companyID string, req dto.SubmitMetricRequest) (*models.MetricValue, error)
	CrossTab(ctx context.Context, uid, companyID, periodType string) (*metrics.CrossTab, error)
	Table(ctx context.Context, uid, companyID, periodType string, window, start int) (dto.MetricsTableResponse, error)
	SaveOrder(ctx context.Context, uid, companyID string, req dto.ReorderMetricsRequest) error
	History(ctx context.Context, uid, companyID, metricName string) (dto.MetricHistoryResponse, error)
}

type extractionService interface {
	Extract(ctx context.Context, uid, companyID string, req dto.ExtractMetricsRequest) (dto.ExtractMetricsResponse, error)
}

type metricHandlers struct {
	ResponseHandler response.ResponseHandler
	MetricSvc       metricService
	ExtractionSvc   extractionService
}

func NewMetricHandlers(deps *Deps) *metricHandlers {
	return &metricHandlers{
		ResponseHandler: deps.ResponseHandler,
		MetricSvc:       deps.MetricSvc,
		ExtractionSvc:   deps.ExtractionSvc,
	}
}

// MetricRoutes is mounted under /companies/{companyId}/metrics.
func (h *metricHandlers) MetricRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListMetrics)
	r.Post("/submit", h.SubmitMetric)
	r.Get("/crosstab", h.GetCrossTab)
	r.Get("/table", h.GetTable)
	r.Put("/order", h.SaveOrder)
	r.Post("/extract", h.ExtractMetrics)
	r.Get("/{metricName}/history", h.GetHistory)
	return r
}

func (h *metricHandlers) ListMetrics(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyId")
	uid := middleware.UID(r.Context())
	resp, err := h.MetricSvc.List(r.Context(), uid, companyID, r.URL.Query().Get("periodType"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, resp)
}

func (h *metricHandlers) SubmitMetric(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyId")
	var req dto.SubmitMetricRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	value, err := h.MetricSvc.Submit(r.Context(), uid, companyID, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, value)
}

func (h *metricHandlers) GetCrossTab(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyId")
	uid := middleware.UID(r.Context())
	ct, err := h.MetricSvc.CrossTab(r.Context(), uid, companyID, r.URL.Query().Get("periodType"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, ct)
}

func (h *metricHandlers) GetTable(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyId")
	window, err := intQuery(r, "window", 0)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	// Absent start means the newest window.
	start, err := intQuery(r, "start", -1)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	table, err := h.MetricSvc.Table(r.Context(), uid, companyID, r.URL.Query().Get("periodType"), window, start)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, table)
}

func (h *metricHandlers) SaveOrder(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyId")
	var req dto.ReorderMetricsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	if err := h.MetricSvc.SaveOrder(r.Context(), uid, companyID, req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

func (h *metricHandlers) ExtractMetrics(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyId")
	var req dto.ExtractMetricsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	resp, err := h.ExtractionSvc.Extract(r.Context(), uid, companyID, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, resp)
}

func (h *metricHandlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyId")
	// chi leaves path params percent-encoded; metric names carry spaces.
	metricName := chi.URLParam(r, "metricName")
	if unescaped, err := url.PathUnescape(metricName); err == nil {
		metricName = unescaped
	}
	uid := middleware.UID(r.Context())
	resp, err := h.MetricSvc.History(r.Context(), uid, companyID, metricName)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, resp)
}

func intQuery(r *http.Request, name string, fallback int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errs.NewValidationError(name + " must be an integer")
	}
	return n, nil
}
