// internal/domain/meter/dto.go
package meter

import "time"

type RegisterMeterRequest struct {
	MeterCode    string `json:"meter_code" binding:"required,max=50"`
	SerialNumber string `json:"serial_number" binding:"required,max=100"`
	Model        string `json:"model,omitempty"`
}

type SubmitReadingRequest struct {
	Period       string    `json:"period" binding:"required,len=7"` // YYYY-MM
	CurrentValue float64   `json:"current_value" binding:"min=0"`
	ReadAt       time.Time `json:"read_at" binding:"required"`
}

type ReplaceMeterRequest struct {
	NewMeterCode   string  `json:"new_meter_code" binding:"required,max=50"`
	FinalReading   float64 `json:"final_reading" binding:"min=0"`
	InitialReading float64 `json:"initial_reading" binding:"min=0"`
	Reason         string  `json:"reason" binding:"required,max=500"`
}
