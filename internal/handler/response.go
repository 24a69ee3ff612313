package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TegaJeremy/Take-Am-Platform/internal/domain"
)

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func OK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, apiResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func Created(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, apiResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Fail maps the error's domain kind onto an HTTP status. Unclassified
// errors become opaque 500s so internals never leak to callers.
func Fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"
	switch domain.KindOf(err) {
	case domain.KindValidation:
		status = http.StatusBadRequest
		message = err.Error()
	case domain.KindAuth:
		status = http.StatusUnauthorized
		message = err.Error()
	case domain.KindForbidden:
		status = http.StatusForbidden
		message = err.Error()
	case domain.KindNotFound:
		status = http.StatusNotFound
		message = err.Error()
	case domain.KindConflict:
		status = http.StatusConflict
		message = err.Error()
	case domain.KindUpstream:
		status = http.StatusBadGateway
		message = err.Error()
	}
	c.JSON(status, apiResponse{
		Success: false,
		Message: message,
	})
}
