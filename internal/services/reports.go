package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ridgelinevc/portfolio-backend/internal/dto"
	"github.com/ridgelinevc/portfolio-backend/internal/errs"
	"github.com/ridgelinevc/portfolio-backend/internal/metrics"
	"github.com/ridgelinevc/portfolio-backend/internal/models"
)

// reportSectionLimit bounds how many section grids build concurrently.
const reportSectionLimit = 4

// reportStore is the storage interface for report templates.
type reportStore interface {
	Create(ctx context.Context, uid string, r *models.ReportTemplate) error
	Get(ctx context.Context, uid, reportID string) (*models.ReportTemplate, error)
	List(ctx context.Context, uid string) ([]*models.ReportTemplate, error)
}

// reportMetrics provides the grid behind each section.
type reportMetrics interface {
	CrossTab(ctx context.Context, uid, companyID, periodType string) (*metrics.CrossTab, error)
}

// reportCompanies resolves section companies, enforcing access on the way.
type reportCompanies interface {
	Get(ctx context.Context, uid, companyID string) (*models.Company, error)
}

type reportService struct {
	store     reportStore
	metrics   reportMetrics
	companies reportCompanies
}

func NewReportService(store reportStore, metrics reportMetrics, companies reportCompanies) *reportService {
	return &reportService{store: store, metrics: metrics, companies: companies}
}

// --- Public service methods ---

func (s *reportService) Create(ctx context.Context, uid string, req dto.CreateReportRequest) (*models.ReportTemplate, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errs.NewValidationError("name is required")
	}
	pt, ok := metrics.ParsePeriodType(req.PeriodType)
	if !ok {
		return nil, errs.NewValidationError("periodType must be one of: monthly, quarterly, yearly")
	}
	if len(req.Sections) == 0 {
		return nil, errs.NewValidationError("sections must not be empty")
	}
	for i, sec := range req.Sections {
		if sec.CompanyID == "" {
			return nil, errs.NewValidationError("every section needs a companyId")
		}
		if sec.Window < 0 || sec.Window > 12 {
			return nil, errs.NewValidationError("section window must be between 1 and 12")
		}
		if sec.Window == 0 {
			req.Sections[i].Window = metrics.DefaultPageSize
		}
	}

	r := &models.ReportTemplate{
		ReportID:   uuid.New().String(),
		UserID:     uid,
		Name:       name,
		PeriodType: string(pt),
		Sections:   req.Sections,
	}
	if err := s.store.Create(ctx, uid, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *reportService) List(ctx context.Context, uid string) ([]*models.ReportTemplate, error) {
	return s.store.List(ctx, uid)
}

func (s *reportService) Get(ctx context.Context, uid, reportID string) (*models.ReportTemplate, error) {
	return s.store.Get(ctx, uid, reportID)
}

// Generate resolves every section of the template to its windowed grid.
// Sections build concurrently; one failing section fails the report.
func (s *reportService) Generate(ctx context.Context, uid, reportID string) (dto.ReportData, error) {
	tpl, err := s.store.Get(ctx, uid, reportID)
	if err != nil {
		return dto.ReportData{}, err
	}

	sections := make([]dto.ReportSectionData, len(tpl.Sections))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reportSectionLimit)
	for i, sec := range tpl.Sections {
		g.Go(func() error {
			data, err := s.buildSection(gctx, uid, tpl.PeriodType, sec)
			if err != nil {
				return err
			}
			sections[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return dto.ReportData{}, err
	}

	return dto.ReportData{
		ReportID:    tpl.ReportID,
		Name:        tpl.Name,
		PeriodType:  tpl.PeriodType,
		GeneratedAt: time.Now(),
		Sections:    sections,
	}, nil
}

// --- Section assembly ---

func (s *reportService) buildSection(ctx context.Context, uid, periodType string, sec models.ReportSection) (dto.ReportSectionData, error) {
	company, err := s.companies.Get(ctx, uid, sec.CompanyID)
	if err != nil {
		return dto.ReportSectionData{}, err
	}
	ct, err := s.metrics.CrossTab(ctx, uid, sec.CompanyID, periodType)
	if err != nil {
		return dto.ReportSectionData{}, err
	}

	window := sec.Window
	if window <= 0 {
		window = metrics.DefaultPageSize
	}
	lo := len(ct.Periods) - window
	if lo < 0 {
		lo = 0
	}
	periods := ct.Periods[lo:]

	names := sec.Metrics
	if len(names) == 0 {
		names = ct.MetricNames()
	}

	rows := make([]dto.ReportRow, 0, len(names))
	for _, name := range names {
		row, ok := ct.Row(name)
		if !ok {
			// Requested but never reported: a row of em-dashes keeps the
			// section shape stable across companies.
			rows = append(rows, emptyReportRow(name, len(periods)))
			continue
		}
		values := row.ValuesIn(lo, len(ct.Periods))
		formatted := make([]string, len(values))
		for i, v := range values {
			formatted[i] = metrics.Format(v, row.MetricName)
		}
		total := metrics.Rolling(values, row.Aggregation)
		rows = append(rows, dto.ReportRow{
			MetricName:      row.MetricName,
			AggregationType: string(row.Aggregation),
			Values:          formatted,
			Total:           metrics.Format(total, row.MetricName),
		})
	}

	title := strings.TrimSpace(sec.Title)
	if title == "" {
		title = company.Name
	}
	return dto.ReportSectionData{
		Title:       title,
		CompanyID:   sec.CompanyID,
		CompanyName: company.Name,
		Periods:     periods,
		Rows:        rows,
	}, nil
}

func emptyReportRow(name string, periods int) dto.ReportRow {
	values := make([]string, periods)
	for i := range values {
		values[i] = metrics.Format(nil, name)
	}
	return dto.ReportRow{
		MetricName:      name,
		AggregationType: string(metrics.AggregationLatest),
		Values:          values,
		Total:           metrics.Format(nil, name),
	}
}
