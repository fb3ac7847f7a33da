package dto

import (
	"time"

	"github.com/ridgelinevc/portfolio-backend/internal/metrics"
	"github.com/ridgelinevc/portfolio-backend/internal/models"
)

// Export format constants
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

type CreateReportRequest struct {
	Name       string                 `json:"name"`
	PeriodType string                 `json:"periodType"`
	Sections   []models.ReportSection `json:"sections"`
}

// ReportData is a generated report: every section resolved to its windowed
// metric grid.
type ReportData struct {
	ReportID    string              `json:"reportId"`
	Name        string              `json:"name"`
	PeriodType  string              `json:"periodType"`
	GeneratedAt time.Time           `json:"generatedAt"`
	Sections    []ReportSectionData `json:"sections"`
}

type ReportSectionData struct {
	Title       string              `json:"title"`
	CompanyID   string              `json:"companyId"`
	CompanyName string              `json:"companyName"`
	Periods     []metrics.PeriodKey `json:"periods"`
	Rows        []ReportRow         `json:"rows"`
}

type ReportRow struct {
	MetricName      string   `json:"metricName"`
	AggregationType string   `json:"aggregationType"`
	Values          []string `json:"values"` // formatted, aligned with Periods
	Total           string   `json:"total"`
}
