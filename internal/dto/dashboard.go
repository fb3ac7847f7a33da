package dto

import (
	"time"

	"github.com/ridgelinevc/portfolio-backend/internal/metrics"
	"github.com/ridgelinevc/portfolio-backend/internal/models"
)

// Widget type constants
const (
	WidgetTypeKPICard         = "kpiCard"
	WidgetTypeMetricTrend     = "metricTrend"
	WidgetTypeMetricBreakdown = "metricBreakdown"
	WidgetTypeMetricTable     = "metricTable"
)

// Visualization constants
const (
	VisValue = "value"
	VisLine  = "line"
	VisBar   = "bar"
	VisArea  = "area"
	VisPie   = "pie"
	VisDonut = "donut"
	VisTable = "table"
)

// --- Request types ---

type CreateWidgetRequest struct {
	Type          string              `json:"type"`
	Visualization string              `json:"visualization"`
	Config        models.WidgetConfig `json:"config"`
}

type UpdateWidgetConfigRequest struct {
	Config models.WidgetConfig `json:"config"`
}

type ReorderWidgetItem struct {
	WidgetID string `json:"widgetId"`
	Position int    `json:"position"`
}

type ReorderWidgetsRequest struct {
	WidgetOrder []ReorderWidgetItem `json:"widgetOrder"`
}

// WidgetTypeInfo is one entry of the widget-type catalog.
type WidgetTypeInfo struct {
	Type           string   `json:"type"`
	Visualizations []string `json:"visualizations"`
}

// --- Widget data response types ---

type WidgetDataResponse struct {
	WidgetID    string    `json:"widgetId"`
	Data        any       `json:"data"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// KPICardData is returned for kpiCard widgets: the newest reading plus the
// windowed total of one metric.
type KPICardData struct {
	MetricName           string            `json:"metricName"`
	Period               metrics.PeriodKey `json:"period,omitempty"`
	Latest               *float64          `json:"latest"`
	LatestFormatted      string            `json:"latestFormatted"`
	AggregationType      string            `json:"aggregationType"`
	TotalSymbol          string            `json:"totalSymbol"`
	WindowTotal          *float64          `json:"windowTotal"`
	WindowTotalFormatted string            `json:"windowTotalFormatted"`
}

// MetricTrendData is returned for metricTrend widgets.
type MetricTrendData struct {
	Periods []metrics.PeriodKey `json:"periods"`
	Series  []metrics.Series    `json:"series"`
}

// MetricBreakdownData is returned for metricBreakdown widgets: one period's
// positive contributions across the configured metrics.
type MetricBreakdownData struct {
	Period metrics.PeriodKey        `json:"period,omitempty"`
	Slices []metrics.BreakdownSlice `json:"slices"`
	Total  float64                  `json:"total"`
}
