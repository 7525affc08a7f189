package utils

import (
	"time"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope of every JSON API answer.
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

func ErrorResponse(message, detail string) APIResponse {
	return APIResponse{
		Success:   false,
		Message:   message,
		Error:     detail,
		Timestamp: time.Now().UTC(),
	}
}

func RespondOK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, SuccessResponse(message, data))
}

// RespondError aborts the chain. detail must be safe to show to callers.
func RespondError(c *gin.Context, status int, message, detail string) {
	c.AbortWithStatusJSON(status, ErrorResponse(message, detail))
}
