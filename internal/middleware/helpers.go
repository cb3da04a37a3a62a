// internal/middleware/helpers.go
package middleware

import (
	"aquaflow-service/internal/domain/staff"

	"github.com/gin-gonic/gin"
)

// GetStaffID gets the authenticated staff ID from context
func GetStaffID(c *gin.Context) (int64, bool) {
	staffID, exists := c.Get("staff_id")
	if !exists {
		return 0, false
	}

	id, ok := staffID.(int64)
	if !ok {
		return 0, false
	}

	return id, true
}

// MustGetStaffID gets the staff ID from context or panics
func MustGetStaffID(c *gin.Context) int64 {
	staffID, exists := GetStaffID(c)
	if !exists {
		panic("staff_id not found in context")
	}
	return staffID
}

// GetJTI gets the token ID from context
func GetJTI(c *gin.Context) (string, bool) {
	jti, exists := c.Get("jti")
	if !exists {
		return "", false
	}

	id, ok := jti.(string)
	if !ok {
		return "", false
	}

	return id, true
}

// GetRoles gets the caller's roles from context
func GetRoles(c *gin.Context) []string {
	roles, exists := c.Get("roles")
	if !exists {
		return []string{}
	}

	rolesList, ok := roles.([]string)
	if !ok {
		return []string{}
	}

	return rolesList
}

// HasRole checks if the caller holds a role
func HasRole(c *gin.Context, role string) bool {
	for _, r := range GetRoles(c) {
		if r == role {
			return true
		}
	}
	return false
}

// IsAuthenticated checks if request is authenticated
func IsAuthenticated(c *gin.Context) bool {
	_, exists := c.Get("staff_id")
	return exists
}

// IsAdmin checks if the caller is an admin
func IsAdmin(c *gin.Context) bool {
	return HasRole(c, staff.RoleAdmin)
}
