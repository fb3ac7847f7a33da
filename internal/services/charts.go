package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ridgelinevc/portfolio-backend/internal/charts"
	"github.com/ridgelinevc/portfolio-backend/internal/dto"
	"github.com/ridgelinevc/portfolio-backend/internal/errs"
	"github.com/ridgelinevc/portfolio-backend/internal/metrics"
	"github.com/ridgelinevc/portfolio-backend/internal/models"
)

const (
	ChartKindTrend     = "trend"
	ChartKindBreakdown = "breakdown"
)

type chartTables interface {
	CrossTab(ctx context.Context, uid, companyID, periodType string) (*metrics.CrossTab, error)
}

type chartCompanies interface {
	Get(ctx context.Context, uid, companyID string) (*models.Company, error)
}

type chartService struct {
	tables    chartTables
	companies chartCompanies
	renders   *charts.RenderCache
}

// NewChartService wires the chart renderer to the cross-tab pipeline.
// Rendered markup is memoized for renderTTL keyed by the request shape.
func NewChartService(tables chartTables, companies chartCompanies, renderTTL time.Duration) *chartService {
	return &chartService{
		tables:    tables,
		companies: companies,
		renders:   charts.NewRenderCache(renderTTL),
	}
}

// Chart reduces the company grid to one of the chart payloads: a line chart
// of the named metrics over the full axis, or a pie of the latest period
// with data. Metric name matching is case-insensitive through the grid.
func (s *chartService) Chart(ctx context.Context, uid, companyID, kind, periodType string, metricNames []string) (dto.ChartResponse, error) {
	if kind != ChartKindTrend && kind != ChartKindBreakdown {
		return dto.ChartResponse{}, errs.NewValidationError(fmt.Sprintf("unknown chart kind %q", kind))
	}
	names := cleanMetricNames(metricNames)
	if len(names) == 0 {
		return dto.ChartResponse{}, errs.NewValidationError("at least one metric name is required")
	}
	pt := metrics.PeriodMonthly
	if periodType != "" {
		parsed, ok := metrics.ParsePeriodType(periodType)
		if !ok {
			return dto.ChartResponse{}, errs.NewValidationError("periodType must be one of: monthly, quarterly, yearly")
		}
		pt = parsed
	}

	company, err := s.companies.Get(ctx, uid, companyID)
	if err != nil {
		return dto.ChartResponse{}, err
	}
	ct, err := s.tables.CrossTab(ctx, uid, companyID, string(pt))
	if err != nil {
		return dto.ChartResponse{}, err
	}

	var html string
	key := chartKey(companyID, kind, string(pt), names)
	switch kind {
	case ChartKindTrend:
		series := ct.Series(names...)
		if len(series) == 0 {
			return dto.ChartResponse{}, errs.NewNotFoundError("no values recorded for the requested metrics")
		}
		html, err = s.renders.GetOrRender(key, func() (string, error) {
			return charts.TrendLine(company.Name, strings.Join(names, ", "), ct.Periods, series)
		})
	case ChartKindBreakdown:
		period, slices := ct.Breakdown(names...)
		if len(slices) == 0 {
			return dto.ChartResponse{}, errs.NewNotFoundError("no values recorded for the requested metrics")
		}
		html, err = s.renders.GetOrRender(key, func() (string, error) {
			return charts.BreakdownPie(company.Name, string(period), slices)
		})
	}
	if err != nil {
		return dto.ChartResponse{}, err
	}

	return dto.ChartResponse{
		Kind:       kind,
		Title:      company.Name,
		PeriodType: string(pt),
		Metrics:    names,
		HTML:       html,
	}, nil
}

func cleanMetricNames(raw []string) []string {
	names := make([]string, 0, len(raw))
	for _, n := range raw {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}

func chartKey(companyID, kind, periodType string, names []string) string {
	return companyID + "|" + kind + "|" + periodType + "|" + strings.ToLower(strings.Join(names, ","))
}
