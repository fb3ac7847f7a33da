package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ridgelinevc/portfolio-backend/internal/dto"
	"github.com/ridgelinevc/portfolio-backend/internal/errs"
	"github.com/ridgelinevc/portfolio-backend/internal/metrics"
	"github.com/ridgelinevc/portfolio-backend/internal/models"
)

// --- Fakes ---

type fakeReportStore struct {
	reports   map[string]*models.ReportTemplate
	createErr error
}

func newFakeReportStore() *fakeReportStore {
	return &fakeReportStore{reports: make(map[string]*models.ReportTemplate)}
}

func (f *fakeReportStore) Create(_ context.Context, _ string, r *models.ReportTemplate) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.reports[r.ReportID] = r
	return nil
}

func (f *fakeReportStore) Get(_ context.Context, _, reportID string) (*models.ReportTemplate, error) {
	r, ok := f.reports[reportID]
	if !ok {
		return nil, errs.NewNotFoundError("report not found")
	}
	return r, nil
}

func (f *fakeReportStore) List(_ context.Context, _ string) ([]*models.ReportTemplate, error) {
	out := make([]*models.ReportTemplate, 0, len(f.reports))
	for _, r := range f.reports {
		out = append(out, r)
	}
	return out, nil
}

type fakeReportMetrics struct {
	byCompany map[string]*metrics.CrossTab
	err       error
}

func (f *fakeReportMetrics) CrossTab(_ context.Context, _, companyID, _ string) (*metrics.CrossTab, error) {
	if f.err != nil {
		return nil, f.err
	}
	ct, ok := f.byCompany[companyID]
	if !ok {
		return nil, errs.NewNotFoundError("company not found")
	}
	return ct, nil
}

type fakeReportCompanies struct {
	companies map[string]*models.Company
}

func (f *fakeReportCompanies) Get(_ context.Context, _, companyID string) (*models.Company, error) {
	c, ok := f.companies[companyID]
	if !ok {
		return nil, errs.NewNotFoundError("company not found")
	}
	return c, nil
}

// --- Create tests ---

func TestCreateReport_OK(t *testing.T) {
	store := newFakeReportStore()
	svc := NewReportService(store, &fakeReportMetrics{}, &fakeReportCompanies{})

	r, err := svc.Create(context.Background(), "uid1", dto.CreateReportRequest{
		Name:       "Q2 LP Update",
		PeriodType: "quarterly",
		Sections: []models.ReportSection{
			{CompanyID: "c1", Metrics: []string{"ARR"}},
			{CompanyID: "c2", Window: 8},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ReportID == "" {
		t.Error("expected non-empty reportID")
	}
	if r.Sections[0].Window != 4 {
		t.Errorf("expected default section window 4, got %d", r.Sections[0].Window)
	}
	if r.Sections[1].Window != 8 {
		t.Errorf("explicit window overwritten: %d", r.Sections[1].Window)
	}
}

func TestCreateReport_Validation(t *testing.T) {
	cases := []struct {
		name string
		req  dto.CreateReportRequest
	}{
		{"missing name", dto.CreateReportRequest{PeriodType: "monthly", Sections: []models.ReportSection{{CompanyID: "c1"}}}},
		{"bad period type", dto.CreateReportRequest{Name: "r", PeriodType: "daily", Sections: []models.ReportSection{{CompanyID: "c1"}}}},
		{"no sections", dto.CreateReportRequest{Name: "r", PeriodType: "monthly"}},
		{"section without company", dto.CreateReportRequest{Name: "r", PeriodType: "monthly", Sections: []models.ReportSection{{}}}},
		{"window too large", dto.CreateReportRequest{Name: "r", PeriodType: "monthly", Sections: []models.ReportSection{{CompanyID: "c1", Window: 13}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewReportService(newFakeReportStore(), &fakeReportMetrics{}, &fakeReportCompanies{})
			_, err := svc.Create(context.Background(), "uid1", tc.req)
			var ve *errs.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %T: %v", err, err)
			}
		})
	}
}

// --- Generate tests ---

func TestGenerateReport_SectionsResolve(t *testing.T) {
	store := newFakeReportStore()
	store.reports["r1"] = &models.ReportTemplate{
		ReportID:   "r1",
		Name:       "Monthly Update",
		PeriodType: "monthly",
		Sections: []models.ReportSection{
			{CompanyID: "c1", Metrics: []string{"Revenue", "Headcount"}, Window: 2},
			{Title: "Acme Deep Dive", CompanyID: "c2", Window: 2},
		},
	}
	rm := &fakeReportMetrics{byCompany: map[string]*metrics.CrossTab{
		"c1": metrics.BuildCrossTab([]metrics.Record{
			monthlyRecord("Revenue", "2025-01-01", 100),
			monthlyRecord("Revenue", "2025-02-01", 200),
			monthlyRecord("Revenue", "2025-03-01", 300),
		}, nil),
		"c2": metrics.BuildCrossTab([]metrics.Record{
			monthlyRecord("Burn", "2025-03-01", 40),
		}, nil),
	}}
	companies := &fakeReportCompanies{companies: map[string]*models.Company{
		"c1": {CompanyID: "c1", Name: "Initech"},
		"c2": {CompanyID: "c2", Name: "Acme"},
	}}
	svc := NewReportService(store, rm, companies)

	data, err := svc.Generate(context.Background(), "uid1", "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(data.Sections))
	}

	first := data.Sections[0]
	if first.Title != "Initech" {
		t.Errorf("empty title should fall back to the company name, got %q", first.Title)
	}
	if len(first.Periods) != 2 || first.Periods[0] != "2025-02-01" {
		t.Errorf("window not applied: %v", first.Periods)
	}
	if len(first.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(first.Rows))
	}
	revenue := first.Rows[0]
	if revenue.MetricName != "Revenue" || revenue.Total != "$500" {
		t.Errorf("unexpected revenue row: %+v", revenue)
	}
	headcount := first.Rows[1]
	if headcount.Values[0] != "—" || headcount.Total != "—" {
		t.Errorf("unreported metric should render as placeholders: %+v", headcount)
	}

	second := data.Sections[1]
	if second.Title != "Acme Deep Dive" {
		t.Errorf("explicit title dropped: %q", second.Title)
	}
	if len(second.Rows) != 1 || second.Rows[0].MetricName != "Burn" {
		t.Errorf("empty metrics list should cover every reported metric: %+v", second.Rows)
	}
}

func TestGenerateReport_InaccessibleCompanyFails(t *testing.T) {
	store := newFakeReportStore()
	store.reports["r1"] = &models.ReportTemplate{
		ReportID:   "r1",
		PeriodType: "monthly",
		Sections:   []models.ReportSection{{CompanyID: "c9", Window: 2}},
	}
	svc := NewReportService(store, &fakeReportMetrics{}, &fakeReportCompanies{})

	_, err := svc.Generate(context.Background(), "uid1", "r1")
	var nfe *errs.NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("expected NotFoundError, got %T: %v", err, err)
	}
}

func TestGenerateReport_ReportNotFound(t *testing.T) {
	svc := NewReportService(newFakeReportStore(), &fakeReportMetrics{}, &fakeReportCompanies{})
	_, err := svc.Generate(context.Background(), "uid1", "nope")
	var nfe *errs.NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("expected NotFoundError, got %T: %v", err, err)
	}
}
