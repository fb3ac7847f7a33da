package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/ridgelinevc/portfolio-backend/internal/dto"
	"github.com/ridgelinevc/portfolio-backend/internal/errs"
	"github.com/ridgelinevc/portfolio-backend/internal/models"
)

// companyStore is the storage interface for companies and investor links.
type companyStore interface {
	Create(ctx context.Context, c *models.Company) error
	Get(ctx context.Context, companyID string) (*models.Company, error)
	ListForInvestor(ctx context.Context, investorID string) ([]*models.Company, error)
	HasAccess(ctx context.Context, investorID, companyID string) (bool, error)
	AddRelationship(ctx context.Context, r *models.Relationship) error
}

type companyService struct {
	store companyStore
}

func NewCompanyService(store companyStore) *companyService {
	return &companyService{store: store}
}

// Create registers a company and links the creator as its owner.
func (s *companyService) Create(ctx context.Context, uid string, req dto.CreateCompanyRequest) (*models.Company, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errs.NewValidationError("name is required")
	}
	c := &models.Company{
		CompanyID: uuid.New().String(),
		Name:      name,
		Sector:    strings.TrimSpace(req.Sector),
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}
	err := s.store.AddRelationship(ctx, &models.Relationship{
		InvestorID: uid,
		CompanyID:  c.CompanyID,
		Role:       "owner",
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns one company the caller can read. Companies outside the
// caller's portfolio look absent rather than forbidden.
func (s *companyService) Get(ctx context.Context, uid, companyID string) (*models.Company, error) {
	ok, err := s.store.HasAccess(ctx, uid, companyID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.NewNotFoundError("company not found")
	}
	return s.store.Get(ctx, companyID)
}

func (s *companyService) List(ctx context.Context, uid string) ([]*models.Company, error) {
	return s.store.ListForInvestor(ctx, uid)
}

// HasAccess lets the other services use the company service as their access
// checker without reaching into the store layer.
func (s *companyService) HasAccess(ctx context.Context, investorID, companyID string) (bool, error) {
	return s.store.HasAccess(ctx, investorID, companyID)
}
