package models

import "time"

// ReportTemplate describes one LP report: which companies and metrics appear,
// section by section.
type ReportTemplate struct {
	ReportID   string          `json:"reportId"`
	UserID     string          `json:"userId"`
	Name       string          `json:"name"`
	PeriodType string          `json:"periodType"`
	Sections   []ReportSection `json:"sections"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// ReportSection is one company block of a report. An empty Metrics list
// means every metric the company reports.
type ReportSection struct {
	Title     string   `json:"title"`
	CompanyID string   `json:"companyId"`
	Metrics   []string `json:"metrics,omitempty"`
	Window    int      `json:"window,omitempty"`
}
