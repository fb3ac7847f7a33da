package models

import "time"

type Company struct {
	CompanyID string    `json:"companyId"`
	Name      string    `json:"name"`
	Sector    string    `json:"sector,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Relationship links an investor to a portfolio company and scopes what they
// may read.
type Relationship struct {
	InvestorID string    `json:"investorId"`
	CompanyID  string    `json:"companyId"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"createdAt"`
}
