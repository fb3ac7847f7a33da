package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ridgelinevc/portfolio-backend/internal/dto"
	"github.com/ridgelinevc/portfolio-backend/internal/errs"
	"github.com/ridgelinevc/portfolio-backend/internal/models"
)

// --- Fakes ---

type fakeCompanyStore struct {
	companies     map[string]*models.Company
	relationships []*models.Relationship
	createErr     error
	relErr        error
}

func newFakeCompanyStore() *fakeCompanyStore {
	return &fakeCompanyStore{companies: make(map[string]*models.Company)}
}

func (f *fakeCompanyStore) Create(_ context.Context, c *models.Company) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.companies[c.CompanyID] = c
	return nil
}

func (f *fakeCompanyStore) Get(_ context.Context, companyID string) (*models.Company, error) {
	c, ok := f.companies[companyID]
	if !ok {
		return nil, errs.NewNotFoundError("company not found")
	}
	return c, nil
}

func (f *fakeCompanyStore) ListForInvestor(_ context.Context, investorID string) ([]*models.Company, error) {
	out := make([]*models.Company, 0)
	for _, r := range f.relationships {
		if r.InvestorID != investorID {
			continue
		}
		if c, ok := f.companies[r.CompanyID]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCompanyStore) HasAccess(_ context.Context, investorID, companyID string) (bool, error) {
	for _, r := range f.relationships {
		if r.InvestorID == investorID && r.CompanyID == companyID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCompanyStore) AddRelationship(_ context.Context, r *models.Relationship) error {
	if f.relErr != nil {
		return f.relErr
	}
	f.relationships = append(f.relationships, r)
	return nil
}

// --- Tests ---

func TestCreateCompany_LinksOwner(t *testing.T) {
	store := newFakeCompanyStore()
	svc := NewCompanyService(store)

	c, err := svc.Create(context.Background(), "uid1", dto.CreateCompanyRequest{
		Name:   "  Initech  ",
		Sector: "fintech",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.CompanyID == "" {
		t.Error("expected non-empty companyID")
	}
	if c.Name != "Initech" {
		t.Errorf("name not trimmed: %q", c.Name)
	}
	if len(store.relationships) != 1 {
		t.Fatalf("expected 1 relationship, got %d", len(store.relationships))
	}
	rel := store.relationships[0]
	if rel.InvestorID != "uid1" || rel.CompanyID != c.CompanyID || rel.Role != "owner" {
		t.Errorf("unexpected relationship: %+v", rel)
	}

	// The creator can immediately read what they created.
	got, err := svc.Get(context.Background(), "uid1", c.CompanyID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Initech" {
		t.Errorf("unexpected company: %+v", got)
	}
}

func TestCreateCompany_NameRequired(t *testing.T) {
	svc := NewCompanyService(newFakeCompanyStore())
	_, err := svc.Create(context.Background(), "uid1", dto.CreateCompanyRequest{Name: "   "})
	var ve *errs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
}

func TestGetCompany_OutsidePortfolioLooksAbsent(t *testing.T) {
	store := newFakeCompanyStore()
	store.companies["c1"] = &models.Company{CompanyID: "c1", Name: "Initech"}
	svc := NewCompanyService(store)

	_, err := svc.Get(context.Background(), "uid2", "c1")
	var nfe *errs.NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("expected NotFoundError, got %T: %v", err, err)
	}
}

func TestListCompanies_ScopedToInvestor(t *testing.T) {
	store := newFakeCompanyStore()
	store.companies["c1"] = &models.Company{CompanyID: "c1", Name: "Initech"}
	store.companies["c2"] = &models.Company{CompanyID: "c2", Name: "Acme"}
	store.relationships = []*models.Relationship{
		{InvestorID: "uid1", CompanyID: "c1", Role: "owner"},
		{InvestorID: "uid2", CompanyID: "c2", Role: "owner"},
	}
	svc := NewCompanyService(store)

	list, err := svc.List(context.Background(), "uid1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 1 || list[0].CompanyID != "c1" {
		t.Errorf("unexpected portfolio: %+v", list)
	}
}
