// internal/handlers/meter/meter_handler.go
package meter

import (
	"net/http"
	"strconv"

	"aquaflow-service/internal/domain/meter"
	"aquaflow-service/internal/middleware"
	"aquaflow-service/internal/pkg/response"
	service "aquaflow-service/internal/service/meter"

	"github.com/gin-gonic/gin"
)

type MeterHandler struct {
	meterService *service.Service
}

func NewMeterHandler(meterService *service.Service) *MeterHandler {
	return &MeterHandler{
		meterService: meterService,
	}
}

// Register adds a new meter to stock
func (h *MeterHandler) Register(c *gin.Context) {
	var req meter.RegisterMeterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return
	}

	m, err := h.meterService.Register(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "meter registered", m)
}

// Get retrieves a meter by its code
func (h *MeterHandler) Get(c *gin.Context) {
	code := c.Param("code")

	m, err := h.meterService.Get(c.Request.Context(), code)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "meter retrieved", m)
}

func serviceContractID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid service contract ID", err)
		return 0, false
	}
	return id, true
}

// SubmitReading records one billing-period reading
func (h *MeterHandler) SubmitReading(c *gin.Context) {
	id, ok := serviceContractID(c)
	if !ok {
		return
	}
	staffID := middleware.MustGetStaffID(c)

	var req meter.SubmitReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return
	}

	mr, err := h.meterService.SubmitReading(c.Request.Context(), id, staffID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "reading recorded", mr)
}

// ListReadings retrieves recent readings for a service contract
func (h *MeterHandler) ListReadings(c *gin.Context) {
	id, ok := serviceContractID(c)
	if !ok {
		return
	}

	limitStr := c.DefaultQuery("limit", "24")
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		limit = 24
	}

	readings, err := h.meterService.ListReadings(c.Request.Context(), id, limit)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "readings retrieved", gin.H{
		"readings": readings,
		"count":    len(readings),
	})
}

// Replace swaps the installed meter
func (h *MeterHandler) Replace(c *gin.Context) {
	id, ok := serviceContractID(c)
	if !ok {
		return
	}
	staffID := middleware.MustGetStaffID(c)

	var req meter.ReplaceMeterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return
	}

	mi, err := h.meterService.Replace(c.Request.Context(), id, staffID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "meter replaced", mi)
}
