package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Status  int         `json:"-"`                 // HTTP status code
	Message string      `json:"message,omitempty"` // Optional message
	Error   string      `json:"error,omitempty"`   // Error message
	Data    interface{} `json:"data,omitempty"`    // Response data
}

// GatewayResponse is the body shape of the upload/delete routes; existing
// upload clients check "success" rather than the status code.
type GatewayResponse struct {
	Success     bool        `json:"success"`
	Message     string      `json:"message"`
	Data        interface{} `json:"data,omitempty"`
	Details     string      `json:"details,omitempty"`
	DeletedPath string      `json:"deletedPath,omitempty"`
}

// Success responses
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, &Response{
		Status: http.StatusOK,
		Data:   data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, &Response{
		Status:  http.StatusCreated,
		Message: "Resource created successfully",
		Data:    data,
	})
}

// Error responses
func Unauthorized(c *gin.Context, message string) {
	abortWith(c, http.StatusUnauthorized, message)
}

func BadRequest(c *gin.Context, message string) {
	abortWith(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context, message string) {
	abortWith(c, http.StatusNotFound, message)
}

func InternalError(c *gin.Context, message string) {
	abortWith(c, http.StatusInternalServerError, message)
}

func Conflict(c *gin.Context, message string) {
	abortWith(c, http.StatusConflict, message)
}

func Forbidden(c *gin.Context, message string) {
	abortWith(c, http.StatusForbidden, message)
}

func ServiceUnavailable(c *gin.Context, message string) {
	abortWith(c, http.StatusServiceUnavailable, message)
}

func abortWith(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, &Response{
		Status: status,
		Error:  message,
	})
}

func GatewaySuccess(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, &GatewayResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func GatewayError(c *gin.Context, status int, message, details string) {
	c.AbortWithStatusJSON(status, &GatewayResponse{
		Success: false,
		Message: message,
		Details: details,
	})
}
