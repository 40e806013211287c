package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope of every API reply.
type APIResponse[T any] struct {
	Status    int       `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Data      T         `json:"data,omitempty"`
	Meta      any       `json:"meta,omitempty"`
	Error     any       `json:"error,omitempty"`
}

// Success builds and writes a success envelope.
func Success[T any](c *gin.Context, status int, data T, message string, meta any) APIResponse[T] {
	if status == 0 {
		status = http.StatusOK
	}
	resp := APIResponse[T]{
		Status:    status,
		Timestamp: time.Now().UTC(),
		RequestID: c.GetString("request_id"),
		Success:   true,
		Message:   message,
		Data:      data,
		Meta:      meta,
	}
	c.JSON(status, resp)
	return resp
}

// Error builds and writes an error envelope.
func Error[T any](c *gin.Context, status int, message string, err any) APIResponse[T] {
	resp := build[T](c, status, message, err)
	c.JSON(resp.Status, resp)
	return resp
}

// Abort writes an error envelope and stops the handler chain. Used by middleware.
func Abort(c *gin.Context, status int, message string, err any) {
	resp := build[any](c, status, message, err)
	c.AbortWithStatusJSON(resp.Status, resp)
}

func build[T any](c *gin.Context, status int, message string, err any) APIResponse[T] {
	if status == 0 {
		status = http.StatusBadRequest
	}
	return APIResponse[T]{
		Status:    status,
		Timestamp: time.Now().UTC(),
		RequestID: c.GetString("request_id"),
		Success:   false,
		Message:   message,
		Error:     err,
	}
}
