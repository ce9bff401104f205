package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/apperr"
	"github.com/pageza/foodgram/backend/internal/logger"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   apperr.Kind       `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

const internalMessage = "Internal Server Error"

// RespondError writes err as JSON and aborts the chain. Unclassified errors become a generic 500;
// the original error stays on c.Errors for the request logger.
func RespondError(c *gin.Context, err error) {
	_ = c.Error(err)

	status := apperr.HTTPStatus(err)
	body := ErrorResponse{Error: internalMessage, Code: apperr.KindInternal}
	var appErr *apperr.Error
	if status != http.StatusInternalServerError && errors.As(err, &appErr) {
		body = ErrorResponse{Error: appErr.Message, Code: appErr.Kind, Fields: appErr.Fields}
	}
	c.AbortWithStatusJSON(status, body)
}

// Recovery turns a panic into a JSON 500
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic recovered", "panic", rec, "path", c.Request.URL.Path)
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Error: internalMessage,
					Code:  apperr.KindInternal,
				})
			}
		}()
		c.Next()
	}
}
