package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ridgelinevc/portfolio-backend/internal/dto"
	"github.com/ridgelinevc/portfolio-backend/internal/middleware"
	"github.com/ridgelinevc/portfolio-backend/internal/response"
)

type chartService interface {
	Chart(ctx context.Context, uid, companyID, kind, periodType string, metricNames []string) (dto.ChartResponse, error)
}

type chartHandlers struct {
	ResponseHandler response.ResponseHandler
	ChartSvc        chartService
}

func NewChartHandlers(deps *Deps) *chartHandlers {
	return &chartHandlers{
		ResponseHandler: deps.ResponseHandler,
		ChartSvc:        deps.ChartSvc,
	}
}

// ChartRoutes is mounted under /companies/{companyId}/charts.
func (h *chartHandlers) ChartRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{kind}", h.GetChart)
	return r
}

func (h *chartHandlers) GetChart(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyId")
	kind := chi.URLParam(r, "kind")
	names := strings.Split(r.URL.Query().Get("metrics"), ",")
	uid := middleware.UID(r.Context())
	chart, err := h.ChartSvc.Chart(r.Context(), uid, companyID, kind, r.URL.Query().Get("periodType"), names)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, chart)
}
