package dto

import (
	"github.com/ridgelinevc/portfolio-backend/internal/metrics"
	"github.com/ridgelinevc/portfolio-backend/internal/models"
)

// --- Request types ---

type SubmitMetricRequest struct {
	MetricName   string           `json:"metricName"`
	PeriodType   string           `json:"periodType"`
	PeriodStart  string           `json:"periodStart"`
	PeriodEnd    string           `json:"periodEnd,omitempty"`
	Value        metrics.RawValue `json:"value"`
	Source       string           `json:"source,omitempty"`
	Aggregation  string           `json:"aggregationType,omitempty"`
	ChangeReason string           `json:"changeReason,omitempty"`
}

type ExtractMetricsRequest struct {
	Text       string `json:"text"`
	PeriodHint string `json:"periodHint,omitempty"`
}

type ReorderMetricsRequest struct {
	Order []string `json:"order"`
}

// --- Response types ---

type MetricsResponse struct {
	Metrics []models.MetricValue `json:"metrics"`
}

type MetricHistoryResponse struct {
	MetricName string               `json:"metricName"`
	History    []models.MetricAudit `json:"history"`
}

type ExtractMetricsResponse struct {
	Extracted []models.MetricValue `json:"extracted"`
	Skipped   int                  `json:"skipped"`
}

// MetricsTableResponse is the windowed table view: the visible slice of the
// period axis plus one row per metric with its rolling total over exactly
// that window.
type MetricsTableResponse struct {
	Periods      []metrics.PeriodKey `json:"periods"`
	Start        int                 `json:"start"`
	TotalPeriods int                 `json:"totalPeriods"`
	PageSize     int                 `json:"pageSize"`
	Rows         []MetricsTableRow   `json:"rows"`
}

type MetricsTableRow struct {
	MetricName      string         `json:"metricName"`
	AggregationType string         `json:"aggregationType"`
	TotalSymbol     string         `json:"totalSymbol"`
	TotalLabel      string         `json:"totalLabel"`
	Cells           []metrics.Cell `json:"cells"`
	Total           *float64       `json:"total"`
	TotalFormatted  string         `json:"totalFormatted"`
}
