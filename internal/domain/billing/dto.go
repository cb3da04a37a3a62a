// internal/domain/billing/dto.go
package billing

type GenerateInvoiceRequest struct {
	Period        string  `json:"period" binding:"required,len=7"` // YYYY-MM
	UnitPrice     float64 `json:"unit_price" binding:"required,gt=0"`
	DueInDays     int     `json:"due_in_days" binding:"min=0"`
	IncludeFixedFee bool  `json:"include_fixed_fee"`
}

type RecordPaymentRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Method string  `json:"method" binding:"required,oneof=cash bank_transfer"`
}

type PaymentResult struct {
	Invoice *Invoice `json:"invoice"`
	Receipt *Receipt `json:"receipt"`
}
