package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/goliatone/go-restaurant-api/store"
)

// Status values of the response envelope.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope wraps every JSON response body.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

var errBadBody = errors.New("invalid request body")

func respond(c *gin.Context, code int, message string, data any) {
	c.JSON(code, Envelope{Status: StatusSuccess, Message: message, Data: data})
}

func notFound(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusNotFound, Envelope{
		Status:  StatusError,
		Message: message,
		Code:    store.TextCodeNotFound,
	})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Envelope{
		Status:  StatusError,
		Message: errBadBody.Error(),
		Error:   err.Error(),
		Code:    store.TextCodeValidation,
	})
}

// fail renders a repository error. Validation errors are the caller's fault,
// everything else is reported as a server error.
func fail(c *gin.Context, logger *slog.Logger, message string, err error) {
	code := http.StatusInternalServerError
	env := Envelope{Status: StatusError, Message: message, Error: err.Error()}

	switch {
	case store.IsValidation(err):
		code = http.StatusBadRequest
		env.Code = store.TextCodeValidation
	case store.IsNotFound(err):
		code = http.StatusNotFound
		env.Code = store.TextCodeNotFound
	case store.IsConstraintViolation(err):
		env.Code = store.TextCodeConstraintViolation
	case store.IsUnavailable(err):
		env.Code = store.TextCodeUnavailable
	}

	if code >= http.StatusInternalServerError {
		logger.ErrorContext(c.Request.Context(), message,
			slog.String("request_id", requestID(c)),
			slog.Any("error", err),
		)
	}
	c.AbortWithStatusJSON(code, env)
}
