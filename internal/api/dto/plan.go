package dto

import "crew-route-service/internal/domain"

type PlanRequest struct {
	CompanyID string `json:"company_id"`
	// Date is a civil date (YYYY-MM-DD); empty means today.
	Date    string `json:"date"`
	Refresh bool   `json:"refresh"`
}

type PlanResponse struct {
	CompanyID   string         `json:"company_id"`
	Date        string         `json:"date"`
	Routes      []domain.Route `json:"routes"`
	Deferred    []string       `json:"deferred"`
	FailedCrews []string       `json:"failed_crews"`
}
