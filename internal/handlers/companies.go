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

type companyService interface {
	Create(ctx context.Context, uid string, req dto.CreateCompanyRequest) (*models.Company, error)
	Get(ctx context.Context, uid, companyID string) (*models.Company, error)
	List(ctx context.Context, uid string) ([]*models.Company, error)
}

type companyHandlers struct {
	ResponseHandler response.ResponseHandler
	CompanySvc      companyService
}

func NewCompanyHandlers(deps *Deps) *companyHandlers {
	return &companyHandlers{
		ResponseHandler: deps.ResponseHandler,
		CompanySvc:      deps.CompanySvc,
	}
}

func (h *companyHandlers) ListCompanies(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	companies, err := h.CompanySvc.List(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, companies)
}

func (h *companyHandlers) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	company, err := h.CompanySvc.Create(r.Context(), uid, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, company)
}

func (h *companyHandlers) GetCompany(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyId")
	uid := middleware.UID(r.Context())
	company, err := h.CompanySvc.Get(r.Context(), uid, companyID)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, company)
}
