package models

import "time"

// Schedule registers which metrics a company is expected to report each
// period.
type Schedule struct {
	ScheduleID  string    `json:"scheduleId"`
	CompanyID   string    `json:"companyId"`
	MetricNames []string  `json:"metricNames"`
	PeriodType  string    `json:"periodType"`
	RemindDays  int       `json:"remindDays,omitempty"`
	CreatedBy   string    `json:"createdBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
