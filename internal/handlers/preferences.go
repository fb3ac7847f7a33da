package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ridgelinevc/portfolio-backend/internal/dto"
	"github.com/ridgelinevc/portfolio-backend/internal/middleware"
	"github.com/ridgelinevc/portfolio-backend/internal/response"
)

type preferenceService interface {
	Get(ctx context.Context, uid, key string) (dto.PreferenceResponse, error)
	Put(ctx context.Context, uid string, req dto.PutPreferenceRequest) (dto.PreferenceResponse, error)
}

type preferenceHandlers struct {
	ResponseHandler response.ResponseHandler
	PreferenceSvc   preferenceService
}

func NewPreferenceHandlers(deps *Deps) *preferenceHandlers {
	return &preferenceHandlers{
		ResponseHandler: deps.ResponseHandler,
		PreferenceSvc:   deps.PreferenceSvc,
	}
}

func (h *preferenceHandlers) PreferenceRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetPreference)
	r.Put("/", h.PutPreference)
	return r
}

func (h *preferenceHandlers) GetPreference(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	resp, err := h.PreferenceSvc.Get(r.Context(), uid, r.URL.Query().Get("key"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, resp)
}

func (h *preferenceHandlers) PutPreference(w http.ResponseWriter, r *http.Request) {
	var req dto.PutPreferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	resp, err := h.PreferenceSvc.Put(r.Context(), uid, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, resp)
}
