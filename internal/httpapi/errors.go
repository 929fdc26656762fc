package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/goliatone/go-user-cache/internal/apperr"
)

// timestampLayout matches the user response timestamps.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Timestamp        string              `json:"timestamp"`
	Status           int                 `json:"status"`
	ErrorCode        string              `json:"errorCode"`
	Message          string              `json:"message"`
	Path             string              `json:"path"`
	ValidationErrors []apperr.FieldError `json:"validationErrors,omitempty"`
}

// writeError is the single point that turns an error into an HTTP response.
// Anything that is not an *apperr.Error is reported as a generic 500.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		appErr = apperr.Internal(err)
	}
	status := appErr.HTTPStatus()

	fields := []zap.Field{
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.String("code", appErr.Code),
		zap.String("request_id", requestID(c)),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", append(fields, zap.Error(err))...)
	} else {
		logger.Debug("request rejected", append(fields, zap.String("reason", appErr.Message))...)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Timestamp:        time.Now().UTC().Format(timestampLayout),
		Status:           status,
		ErrorCode:        appErr.Code,
		Message:          appErr.Message,
		Path:             c.Request.URL.Path,
		ValidationErrors: appErr.Fields,
	})
}
