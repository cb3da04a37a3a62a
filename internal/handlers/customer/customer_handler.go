// internal/handlers/customer/customer_handler.go
package customer

import (
	"net/http"
	"strconv"

	"aquaflow-service/internal/domain/customer"
	"aquaflow-service/internal/pkg/response"
	service "aquaflow-service/internal/service/customer"

	"github.com/gin-gonic/gin"
)

type CustomerHandler struct {
	customerService *service.Service
}

func NewCustomerHandler(customerService *service.Service) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
	}
}

// Create registers a customer
func (h *CustomerHandler) Create(c *gin.Context) {
	var req customer.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return
	}

	created, err := h.customerService.Create(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "customer registered", created)
}

// Get retrieves a customer by ID
func (h *CustomerHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid customer ID", err)
		return
	}

	found, err := h.customerService.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "customer retrieved", found)
}

// FindByPhone looks a customer up by phone number
func (h *CustomerHandler) FindByPhone(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" {
		response.Error(c, http.StatusBadRequest, "phone query parameter is required", nil)
		return
	}

	found, err := h.customerService.FindByPhone(c.Request.Context(), phone)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "customer retrieved", found)
}
