// internal/domain/staff/dto.go
package staff

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Device   string `json:"device,omitempty"`
}

type LoginResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	Account      *Account `json:"account"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type CreateAccountRequest struct {
	Email    string   `json:"email" binding:"required,email"`
	Password string   `json:"password" binding:"required,min=8"`
	FullName string   `json:"full_name" binding:"required,max=100"`
	Phone    string   `json:"phone,omitempty"`
	Roles    []string `json:"roles" binding:"required,min=1,dive,oneof=service_staff technical_staff cashier admin"`
}
