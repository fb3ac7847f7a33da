package models

import "time"

// Widget represents one tile of a user's dashboard.
type Widget struct {
	WidgetID      string       `json:"widgetId"`
	Type          string       `json:"type"`
	Visualization string       `json:"visualization"`
	Position      int          `json:"position"`
	Config        WidgetConfig `json:"config"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// WidgetConfig holds all possible configuration fields for any widget type.
// Not all fields are valid for all types; the service layer enforces per-type rules.
type WidgetConfig struct {
	CompanyID  string   `json:"companyId,omitempty"`
	Metrics    []string `json:"metrics,omitempty"`
	PeriodType string   `json:"periodType,omitempty"`
	Window     int      `json:"window,omitempty"` // visible periods for tables and totals
	Limit      int      `json:"limit,omitempty"`
}
