package models

import (
	"time"

	"github.com/ridgelinevc/portfolio-backend/internal/metrics"
)

// MetricValue is one stored metric observation for a company. The unique key
// is (companyId, metricName, periodType, periodStart); resubmitting the same
// key overwrites in place.
type MetricValue struct {
	CompanyID    string                  `json:"companyId"`
	MetricName   string                  `json:"metricName"`
	PeriodType   metrics.PeriodType      `json:"periodType"`
	PeriodStart  metrics.PeriodKey       `json:"periodStart"`
	PeriodEnd    metrics.PeriodKey       `json:"periodEnd"`
	Value        metrics.RawValue        `json:"value"`
	Source       metrics.Source          `json:"source"`
	AIConfidence *float64                `json:"aiConfidence,omitempty"`
	Aggregation  metrics.AggregationType `json:"aggregationType,omitempty"`
	SubmittedBy  string                  `json:"submittedBy,omitempty"`
	ChangeReason string                  `json:"changeReason,omitempty"`
	SubmittedAt  time.Time               `json:"submittedAt"`
	UpdatedAt    time.Time               `json:"updatedAt"`
}

// Record converts the stored row into the aggregation engine's input form.
func (m *MetricValue) Record() metrics.Record {
	return metrics.Record{
		MetricName:   m.MetricName,
		PeriodType:   m.PeriodType,
		PeriodStart:  m.PeriodStart,
		PeriodEnd:    m.PeriodEnd,
		Value:        m.Value,
		Source:       m.Source,
		AIConfidence: m.AIConfidence,
		Aggregation:  m.Aggregation,
		SubmittedAt:  m.SubmittedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// MetricAudit is one append-only history entry behind a metric cell.
type MetricAudit struct {
	ID           int64              `json:"id"`
	CompanyID    string             `json:"companyId"`
	MetricName   string             `json:"metricName"`
	PeriodType   metrics.PeriodType `json:"periodType"`
	PeriodStart  metrics.PeriodKey  `json:"periodStart"`
	Value        metrics.RawValue   `json:"value"`
	Source       metrics.Source     `json:"source"`
	AIConfidence *float64           `json:"aiConfidence,omitempty"`
	ChangeReason string             `json:"changeReason,omitempty"`
	SubmittedBy  string             `json:"submittedBy,omitempty"`
	RecordedAt   time.Time          `json:"recordedAt"`
}
