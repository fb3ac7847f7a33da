package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ridgelinevc/portfolio-backend/internal/dto"
	"github.com/ridgelinevc/portfolio-backend/internal/errs"
	"github.com/ridgelinevc/portfolio-backend/internal/metrics"
	"github.com/ridgelinevc/portfolio-backend/internal/models"
)

// dashboardStore is the storage interface for widgets.
type dashboardStore interface {
	Create(ctx context.Context, uid string, w *models.Widget) error
	Get(ctx context.Context, uid, widgetID string) (*models.Widget, error)
	List(ctx context.Context, uid string) ([]*models.Widget, error)
	Update(ctx context.Context, uid string, w *models.Widget) error
	Delete(ctx context.Context, uid, widgetID string) error
	Count(ctx context.Context, uid string) (int, error)
	BulkUpdatePositions(ctx context.Context, uid string, positions map[string]int) error
}

// widgetMetrics is the slice of the metric service the dashboard reads
// through. Access checks happen behind it, so a company the user cannot read
// fails the same way everywhere.
type widgetMetrics interface {
	CrossTab(ctx context.Context, uid, companyID, periodType string) (*metrics.CrossTab, error)
	Table(ctx context.Context, uid, companyID, periodType string, window, start int) (dto.MetricsTableResponse, error)
}

type dashboardService struct {
	store   dashboardStore
	metrics widgetMetrics
}

func NewDashboardService(store dashboardStore, metrics widgetMetrics) *dashboardService {
	return &dashboardService{store: store, metrics: metrics}
}

// --- Public service methods ---

func (s *dashboardService) GetDashboard(ctx context.Context, uid string) ([]*models.Widget, error) {
	return s.store.List(ctx, uid)
}

func (s *dashboardService) AddWidget(ctx context.Context, uid string, req dto.CreateWidgetRequest) (*models.Widget, error) {
	if err := validateWidgetType(req.Type); err != nil {
		return nil, err
	}
	if err := validateVisualization(req.Type, req.Visualization); err != nil {
		return nil, err
	}
	req.Config = applyDefaults(req.Type, req.Config)
	if err := validateConfig(req.Type, req.Config); err != nil {
		return nil, err
	}
	count, err := s.store.Count(ctx, uid)
	if err != nil {
		return nil, err
	}
	w := &models.Widget{
		WidgetID:      uuid.New().String(),
		Type:          req.Type,
		Visualization: req.Visualization,
		Position:      count + 1,
		Config:        req.Config,
	}
	if err := s.store.Create(ctx, uid, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *dashboardService) UpdateWidgetConfig(ctx context.Context, uid, widgetID string, req dto.UpdateWidgetConfigRequest) (*models.Widget, error) {
	w, err := s.store.Get(ctx, uid, widgetID)
	if err != nil {
		return nil, err
	}
	req.Config = applyDefaults(w.Type, req.Config)
	if err := validateConfig(w.Type, req.Config); err != nil {
		return nil, err
	}
	w.Config = req.Config
	if err := s.store.Update(ctx, uid, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *dashboardService) ReorderWidgets(ctx context.Context, uid string, req dto.ReorderWidgetsRequest) error {
	if len(req.WidgetOrder) == 0 {
		return errs.NewValidationError("widgetOrder must not be empty")
	}
	positions := make(map[string]int, len(req.WidgetOrder))
	for _, item := range req.WidgetOrder {
		positions[item.WidgetID] = item.Position
	}
	return s.store.BulkUpdatePositions(ctx, uid, positions)
}

func (s *dashboardService) DeleteWidget(ctx context.Context, uid, widgetID string) error {
	return s.store.Delete(ctx, uid, widgetID)
}

func (s *dashboardService) GetWidgetData(ctx context.Context, uid, widgetID string) (dto.WidgetDataResponse, error) {
	w, err := s.store.Get(ctx, uid, widgetID)
	if err != nil {
		return dto.WidgetDataResponse{}, err
	}
	var data any
	switch w.Type {
	case dto.WidgetTypeKPICard:
		data, err = s.fetchKPICard(ctx, uid, w.Config)
	case dto.WidgetTypeMetricTrend:
		data, err = s.fetchMetricTrend(ctx, uid, w.Config)
	case dto.WidgetTypeMetricBreakdown:
		data, err = s.fetchMetricBreakdown(ctx, uid, w.Config)
	case dto.WidgetTypeMetricTable:
		data, err = s.fetchMetricTable(ctx, uid, w.Config)
	default:
		return dto.WidgetDataResponse{}, errs.NewValidationError("unknown widget type: " + w.Type)
	}
	if err != nil {
		return dto.WidgetDataResponse{}, err
	}
	return dto.WidgetDataResponse{
		WidgetID:    widgetID,
		Data:        data,
		LastUpdated: time.Now(),
	}, nil
}

// WidgetTypes is the catalog of widget types and the visualizations each
// accepts.
func (s *dashboardService) WidgetTypes() []dto.WidgetTypeInfo {
	types := []string{
		dto.WidgetTypeKPICard, dto.WidgetTypeMetricTrend,
		dto.WidgetTypeMetricBreakdown, dto.WidgetTypeMetricTable,
	}
	out := make([]dto.WidgetTypeInfo, len(types))
	for i, t := range types {
		out[i] = dto.WidgetTypeInfo{Type: t, Visualizations: validVisualizations[t]}
	}
	return out
}

// --- Private fetch methods ---

func (s *dashboardService) fetchKPICard(ctx context.Context, uid string, cfg models.WidgetConfig) (dto.KPICardData, error) {
	ct, err := s.metrics.CrossTab(ctx, uid, cfg.CompanyID, cfg.PeriodType)
	if err != nil {
		return dto.KPICardData{}, err
	}
	name := cfg.Metrics[0]
	data := dto.KPICardData{MetricName: name}

	row, ok := ct.Row(name)
	if !ok {
		// Metric not reported yet: a card with em-dash values, not an error.
		data.LatestFormatted = metrics.Format(nil, name)
		data.WindowTotalFormatted = metrics.Format(nil, name)
		data.AggregationType = string(metrics.AggregationLatest)
		return data, nil
	}
	data.MetricName = row.MetricName
	data.AggregationType = string(row.Aggregation)
	data.TotalSymbol = row.Aggregation.Symbol()

	values := row.Values()
	for i := len(values) - 1; i >= 0; i-- {
		if values[i] != nil {
			data.Latest = values[i]
			data.Period = ct.Periods[i]
			break
		}
	}
	data.LatestFormatted = metrics.Format(data.Latest, row.MetricName)

	lo := len(values) - cfg.Window
	if lo < 0 {
		lo = 0
	}
	data.WindowTotal = metrics.Rolling(row.ValuesIn(lo, len(values)), row.Aggregation)
	data.WindowTotalFormatted = metrics.Format(data.WindowTotal, row.MetricName)
	return data, nil
}

func (s *dashboardService) fetchMetricTrend(ctx context.Context, uid string, cfg models.WidgetConfig) (dto.MetricTrendData, error) {
	ct, err := s.metrics.CrossTab(ctx, uid, cfg.CompanyID, cfg.PeriodType)
	if err != nil {
		return dto.MetricTrendData{}, err
	}
	lo := len(ct.Periods) - cfg.Window
	if lo < 0 {
		lo = 0
	}
	series := ct.Series(cfg.Metrics...)
	for i := range series {
		series[i].Points = series[i].Points[lo:]
	}
	return dto.MetricTrendData{
		Periods: ct.Periods[lo:],
		Series:  series,
	}, nil
}

func (s *dashboardService) fetchMetricBreakdown(ctx context.Context, uid string, cfg models.WidgetConfig) (dto.MetricBreakdownData, error) {
	ct, err := s.metrics.CrossTab(ctx, uid, cfg.CompanyID, cfg.PeriodType)
	if err != nil {
		return dto.MetricBreakdownData{}, err
	}
	period, slices := ct.Breakdown(cfg.Metrics...)
	data := dto.MetricBreakdownData{Period: period, Slices: slices}
	for _, sl := range slices {
		data.Total += sl.Value
	}
	return data, nil
}

func (s *dashboardService) fetchMetricTable(ctx context.Context, uid string, cfg models.WidgetConfig) (dto.MetricsTableResponse, error) {
	return s.metrics.Table(ctx, uid, cfg.CompanyID, cfg.PeriodType, cfg.Window, -1)
}

// --- Validation ---

func validateWidgetType(t string) error {
	switch t {
	case dto.WidgetTypeKPICard, dto.WidgetTypeMetricTrend,
		dto.WidgetTypeMetricBreakdown, dto.WidgetTypeMetricTable:
		return nil
	}
	return errs.NewValidationError("unknown widget type: " + t)
}

var validVisualizations = map[string][]string{
	dto.WidgetTypeKPICard:         {dto.VisValue},
	dto.WidgetTypeMetricTrend:     {dto.VisLine, dto.VisBar, dto.VisArea},
	dto.WidgetTypeMetricBreakdown: {dto.VisPie, dto.VisDonut},
	dto.WidgetTypeMetricTable:     {dto.VisTable},
}

func validateVisualization(widgetType, vis string) error {
	for _, v := range validVisualizations[widgetType] {
		if v == vis {
			return nil
		}
	}
	return errs.NewValidationError(fmt.Sprintf("visualization %q is not valid for widget type %q", vis, widgetType))
}

func applyDefaults(widgetType string, cfg models.WidgetConfig) models.WidgetConfig {
	if cfg.Window == 0 {
		switch widgetType {
		case dto.WidgetTypeMetricTrend:
			cfg.Window = 12
		default:
			cfg.Window = metrics.DefaultPageSize
		}
	}
	return cfg
}

func validateConfig(widgetType string, cfg models.WidgetConfig) error {
	if cfg.CompanyID == "" {
		return errs.NewValidationError("config.companyId is required")
	}
	if cfg.PeriodType != "" {
		if _, ok := metrics.ParsePeriodType(cfg.PeriodType); !ok {
			return errs.NewValidationError("config.periodType must be one of: monthly, quarterly, yearly")
		}
	}

	switch widgetType {
	case dto.WidgetTypeKPICard:
		if len(cfg.Metrics) != 1 {
			return errs.NewValidationError("config.metrics must name exactly one metric for kpiCard")
		}
		if cfg.Window < 1 || cfg.Window > 36 {
			return errs.NewValidationError("config.window must be between 1 and 36 for kpiCard")
		}

	case dto.WidgetTypeMetricTrend:
		if len(cfg.Metrics) == 0 {
			return errs.NewValidationError("config.metrics must name at least one metric for metricTrend")
		}
		if cfg.Window < 2 || cfg.Window > 36 {
			return errs.NewValidationError("config.window must be between 2 and 36 for metricTrend")
		}

	case dto.WidgetTypeMetricBreakdown:
		if len(cfg.Metrics) < 2 {
			return errs.NewValidationError("config.metrics must name at least two metrics for metricBreakdown")
		}

	case dto.WidgetTypeMetricTable:
		// Metrics may be empty: the table then shows every reported metric.
		if cfg.Window < 1 || cfg.Window > 12 {
			return errs.NewValidationError("config.window must be between 1 and 12 for metricTable")
		}
	}
	return nil
}
