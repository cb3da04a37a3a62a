// internal/domain/customer/dto.go
package customer

type CreateCustomerRequest struct {
	FullName string `json:"full_name" binding:"required,max=100"`
	Phone    string `json:"phone" binding:"required,max=20"`
	Email    string `json:"email,omitempty" binding:"omitempty,email"`
	Address  string `json:"address,omitempty" binding:"omitempty,max=500"`
}
