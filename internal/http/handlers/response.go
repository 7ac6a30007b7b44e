package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-habit-backend/internal/http/middleware"
	"github.com/tbourn/go-habit-backend/internal/services"
)

// ErrorResponse is the envelope every failed request answers with.
//
//	HTTP/1.1 404 Not Found
//	{"request_id": "...", "code": "not_found", "message": "habit not found"}
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Code      string `json:"code" example:"not_found"`
	Message   string `json:"message" example:"habit not found"`
}

// serviceErrors maps service sentinels to responses; the first match wins.
var serviceErrors = []struct {
	target error
	status int
	code   string
}{
	{services.ErrHabitNotFound, http.StatusNotFound, ErrCodeNotFound},
	{services.ErrInvalidInput, http.StatusBadRequest, ErrCodeBadRequest},
	{services.ErrDuplicateName, http.StatusConflict, ErrCodeConflict},
}

const internalMessage = "internal server error"

// fail aborts with the error envelope. The request id is read back from the
// X-Request-ID response header set by middleware.RequestID.
func fail(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail lets the router answer NoRoute/NoMethod with the same envelope.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr answers with the status mapped from err. Unmapped errors are logged
// with the request logger and reported as a generic 500.
func failErr(c *gin.Context, err error) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			fail(c, m.status, m.code, err.Error())
			return
		}
	}
	middleware.LoggerFrom(c).Error().Err(err).
		Str("route", c.FullPath()).
		Msg("habit request failed")
	_ = c.Error(err)
	fail(c, http.StatusInternalServerError, ErrCodeInternal, internalMessage)
}

func ok(c *gin.Context, status int, body any) { c.JSON(status, body) }

func noContent(c *gin.Context) { c.Status(http.StatusNoContent) }
