// internal/domain/contract/dto.go
package contract

import "time"

// CreateContractRequest opens a new installation request. CustomerID is
// optional: a guest request carries only contact details. Draft holds the
// request back from the work queue until it is submitted.
type CreateContractRequest struct {
	CustomerID   *int64 `json:"customer_id,omitempty"`
	ContactPhone string `json:"contact_phone" binding:"required,max=20"`
	ContactName  string `json:"contact_name,omitempty"`
	Address      string `json:"address" binding:"required,max=500"`
	Notes        string `json:"notes,omitempty"`
	Draft        bool   `json:"draft,omitempty"`
}

type SubmitSurveyRequest struct {
	SurveyDate  time.Time `json:"survey_date" binding:"required"`
	SurveyNotes string    `json:"survey_notes" binding:"required"`
}

type ApproveSurveyRequest struct {
	InstallationFee float64 `json:"installation_fee" binding:"required,gt=0"`
	MonthlyFee      float64 `json:"monthly_fee" binding:"required,gt=0"`
}

type SendToInstallationRequest struct {
	TechnicalStaffID int64     `json:"technical_staff_id" binding:"required"`
	InstallationDate time.Time `json:"installation_date" binding:"required"`
}

// CompleteInstallationRequest closes out the installation: the submitted
// meter becomes the service contract's installed meter with the given
// initial reading.
type CompleteInstallationRequest struct {
	MeterCode      string  `json:"meter_code" binding:"required,max=50"`
	InitialReading float64 `json:"initial_reading" binding:"min=0"`
}

type AnnulContractRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

type ContractListFilters struct {
	Status   *Status `form:"status"`
	Phone    *string `form:"phone"`
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}

type ContractListResponse struct {
	Contracts  []Contract `json:"contracts"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}
