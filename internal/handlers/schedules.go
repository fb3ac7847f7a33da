package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ridgelinevc/portfolio-backend/internal/dto"
	"github.com/ridgelinevc/portfolio-backend/internal/middleware"
	"github.com/ridgelinevc/portfolio-backend/internal/models"
	"github.com/ridgelinevc/portfolio-backend/internal/response"
)

type scheduleService interface {
	Create(ctx context.Context, uid, companyID string, req dto.CreateScheduleRequest) (*models.Schedule, error)
	List(ctx context.Context, uid, companyID string) ([]*models.Schedule, error)
	Due(ctx context.Context, uid string) (dto.DueMetricsResponse, error)
}

type scheduleHandlers struct {
	ResponseHandler response.ResponseHandler
	ScheduleSvc     scheduleService
}

func NewScheduleHandlers(deps *Deps) *scheduleHandlers {
	return &scheduleHandlers{
		ResponseHandler: deps.ResponseHandler,
		ScheduleSvc:     deps.ScheduleSvc,
	}
}

// ScheduleRoutes is mounted under /companies/{companyId}/schedules. The
// cross-company due listing is registered separately at /schedules/due.
func (h *scheduleHandlers) ScheduleRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListSchedules)
	r.Post("/", h.CreateSchedule)
	return r
}

func (h *scheduleHandlers) ListSchedules(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyId")
	uid := middleware.UID(r.Context())
	schedules, err := h.ScheduleSvc.List(r.Context(), uid, companyID)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, schedules)
}

func (h *scheduleHandlers) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyId")
	var req dto.CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	schedule, err := h.ScheduleSvc.Create(r.Context(), uid, companyID, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, schedule)
}

func (h *scheduleHandlers) GetDue(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	due, err := h.ScheduleSvc.Due(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, due)
}
