// internal/handlers/contract/contract_handler.go
package contract

import (
	"context"
	"net/http"
	"strconv"

	"aquaflow-service/internal/domain/contract"
	"aquaflow-service/internal/middleware"
	"aquaflow-service/internal/pkg/response"
	service "aquaflow-service/internal/service/contract"

	"github.com/gin-gonic/gin"
)

type ContractHandler struct {
	contractService *service.Service
}

func NewContractHandler(contractService *service.Service) *ContractHandler {
	return &ContractHandler{
		contractService: contractService,
	}
}

func contractID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid contract ID", err)
		return 0, false
	}
	return id, true
}

// Create opens a new installation request
func (h *ContractHandler) Create(c *gin.Context) {
	staffID := middleware.MustGetStaffID(c)

	var req contract.CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return
	}

	created, err := h.contractService.Create(c.Request.Context(), staffID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "contract request created", created)
}

// Get retrieves a contract by ID
func (h *ContractHandler) Get(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}

	found, err := h.contractService.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "contract retrieved", found)
}

// List retrieves contracts with filters and pagination
func (h *ContractHandler) List(c *gin.Context) {
	var filters contract.ContractListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	result, err := h.contractService.List(c.Request.Context(), &filters)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "contracts retrieved", result)
}

// Submit moves a draft request into the work queue
func (h *ContractHandler) Submit(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}
	staffID := middleware.MustGetStaffID(c)

	updated, err := h.contractService.Submit(c.Request.Context(), id, staffID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "contract request submitted", updated)
}

// SubmitSurvey records the site survey report
func (h *ContractHandler) SubmitSurvey(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}
	staffID := middleware.MustGetStaffID(c)

	var req contract.SubmitSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return
	}

	updated, err := h.contractService.SubmitSurvey(c.Request.Context(), id, staffID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "survey submitted", updated)
}

// ApproveSurvey accepts the survey and fixes the fees
func (h *ContractHandler) ApproveSurvey(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}
	staffID := middleware.MustGetStaffID(c)

	var req contract.ApproveSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return
	}

	updated, err := h.contractService.ApproveSurvey(c.Request.Context(), id, staffID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "survey approved", updated)
}

// SendForSignature hands the contract to the customer for signing
func (h *ContractHandler) SendForSignature(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}
	staffID := middleware.MustGetStaffID(c)

	updated, err := h.contractService.SendForSignature(c.Request.Context(), id, staffID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "contract sent for signature", updated)
}

// Sign records the customer signature
func (h *ContractHandler) Sign(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}
	staffID := middleware.MustGetStaffID(c)

	updated, err := h.contractService.Sign(c.Request.Context(), id, staffID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "contract signed", updated)
}

// SendToInstallation assigns a technician and schedules the installation
func (h *ContractHandler) SendToInstallation(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}
	staffID := middleware.MustGetStaffID(c)

	var req contract.SendToInstallationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return
	}

	updated, err := h.contractService.SendToInstallation(c.Request.Context(), id, staffID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "contract sent to installation", updated)
}

// CompleteInstallation closes out the installation and activates the service
func (h *ContractHandler) CompleteInstallation(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}
	staffID := middleware.MustGetStaffID(c)

	var req contract.CompleteInstallationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return
	}

	updated, err := h.contractService.CompleteInstallation(c.Request.Context(), id, staffID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "installation completed", updated)
}

// Annul cancels a contract before activation
func (h *ContractHandler) Annul(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}
	staffID := middleware.MustGetStaffID(c)

	var req contract.AnnulContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return
	}

	updated, err := h.contractService.Annul(c.Request.Context(), id, staffID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "contract annulled", updated)
}

// Suspend pauses an active contract
func (h *ContractHandler) Suspend(c *gin.Context) {
	h.postActivation(c, h.contractService.Suspend, "contract suspended")
}

// Resume reactivates a suspended contract
func (h *ContractHandler) Resume(c *gin.Context) {
	h.postActivation(c, h.contractService.Resume, "contract resumed")
}

// Terminate ends the contract and the ongoing service
func (h *ContractHandler) Terminate(c *gin.Context) {
	h.postActivation(c, h.contractService.Terminate, "contract terminated")
}

// Expire marks a contract past its term
func (h *ContractHandler) Expire(c *gin.Context) {
	h.postActivation(c, h.contractService.Expire, "contract expired")
}

func (h *ContractHandler) postActivation(c *gin.Context, fn func(ctx context.Context, id, actorID int64) (*contract.Contract, error), message string) {
	id, ok := contractID(c)
	if !ok {
		return
	}
	staffID := middleware.MustGetStaffID(c)

	updated, err := fn(c.Request.Context(), id, staffID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, message, updated)
}
