package dto

import "github.com/ridgelinevc/portfolio-backend/internal/metrics"

type CreateScheduleRequest struct {
	MetricNames []string `json:"metricNames"`
	PeriodType  string   `json:"periodType"`
	RemindDays  int      `json:"remindDays,omitempty"`
}

// DueMetric is one metric a company still owes for a closed period.
type DueMetric struct {
	CompanyID   string            `json:"companyId"`
	MetricName  string            `json:"metricName"`
	PeriodType  string            `json:"periodType"`
	PeriodStart metrics.PeriodKey `json:"periodStart"`
	PeriodEnd   metrics.PeriodKey `json:"periodEnd"`
}

type DueMetricsResponse struct {
	Due []DueMetric `json:"due"`
}
