// internal/pkg/jwt/claims.go
package jwt

import (
	"aquaflow-service/internal/domain/staff"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the JWT claims carried by staff tokens.
type Claims struct {
	StaffID        int64    `json:"staff_id"`
	Roles          []string `json:"roles,omitempty"`
	Device         string   `json:"device,omitempty"`
	SessionPurpose string   `json:"session_purpose"` // access, refresh
	jwt.RegisteredClaims
}

// HasRole reports whether the token carries the given role.
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (c *Claims) IsAdmin() bool {
	return c.HasRole(staff.RoleAdmin)
}

// VerifyAudience reports whether the expected audience is listed in the
// claims. golang-jwt v5 dropped the helper, so it lives here.
func (c *Claims) VerifyAudience(audience string, required bool) bool {
	if len(c.Audience) == 0 {
		return !required
	}

	for _, aud := range c.Audience {
		if aud == audience {
			return true
		}
	}

	return false
}
