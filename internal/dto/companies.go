package dto

type CreateCompanyRequest struct {
	Name   string `json:"name"`
	Sector string `json:"sector,omitempty"`
}
