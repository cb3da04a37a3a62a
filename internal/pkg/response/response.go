// internal/pkg/response/response.go
package response

import (
	"net/http"

	xerrors "aquaflow-service/internal/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every JSON endpoint replies with.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Success writes the envelope with Success set. A zero status means 200.
func Success(c *gin.Context, status int, message string, data interface{}) {
	if status == 0 {
		status = http.StatusOK
	}

	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error writes the envelope with Success cleared and aborts the gin chain
// so later middleware cannot write a second body.
func Error(c *gin.Context, code int, message string, err error, data ...interface{}) {
	c.Abort()

	resp := Response{
		Success: false,
		Message: message,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	if len(data) > 0 {
		resp.Data = data[0]
	}
	c.JSON(code, resp)
}

// FromError maps a service error to the proper HTTP status. Invalid state
// transitions and version conflicts surface as 409, never as a generic 500.
// Unclassified errors get a generic body so internals are not echoed back.
func FromError(c *gin.Context, err error) {
	switch {
	case xerrors.Is(err, xerrors.ErrNotFound):
		Error(c, http.StatusNotFound, "resource not found", err)
	case xerrors.Is(err, xerrors.ErrInvalidState):
		Error(c, http.StatusConflict, "operation not allowed in current status", err)
	case xerrors.Is(err, xerrors.ErrVersionConflict):
		Error(c, http.StatusConflict, "resource was modified concurrently, retry", err)
	case xerrors.Is(err, xerrors.ErrDuplicateEntry):
		Error(c, http.StatusConflict, "resource already exists", err)
	case xerrors.Is(err, xerrors.ErrInvalidInput):
		Error(c, http.StatusBadRequest, "invalid input", err)
	case xerrors.Is(err, xerrors.ErrUnauthorized), xerrors.Is(err, xerrors.ErrSessionExpired):
		Error(c, http.StatusUnauthorized, "unauthorized", nil)
	case xerrors.Is(err, xerrors.ErrForbidden):
		Error(c, http.StatusForbidden, "forbidden", nil)
	case xerrors.Is(err, xerrors.ErrRateLimited):
		Error(c, http.StatusTooManyRequests, "too many requests", nil)
	default:
		Error(c, http.StatusInternalServerError, "internal server error", nil)
	}
}

// ValidationError sends a 400 Bad Request response for invalid input.
func ValidationError(c *gin.Context, message string, err error) {
	Error(c, http.StatusBadRequest, message, err)
}

// Unauthorized sends a 401 Unauthorized response.
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message, nil)
}
