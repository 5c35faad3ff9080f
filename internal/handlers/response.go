package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/practicetrack/practicetrack-backend/internal/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

// RespondAPIError maps a service error to its HTTP status and error code.
func RespondAPIError(c *gin.Context, err error) {
	apiErr := apierr.AsError(err)
	status := apiErr.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	msg := apiErr.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	c.JSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: apiErr.Code}})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
