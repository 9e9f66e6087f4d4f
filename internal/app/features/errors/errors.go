// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/jsonutil"
	"go.uber.org/zap"
)

// ErrorLogger wraps the zap logger for error logging.
type ErrorLogger struct {
	logger *zap.Logger
}

// NewErrorLogger creates a new ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{logger: logger}
}

// Log logs an error with the given message and error.
func (e *ErrorLogger) Log(r *http.Request, msg string, err error) {
	e.logger.Error(msg,
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	)
}

// LogWithFields logs an error with additional fields.
func (e *ErrorLogger) LogWithFields(r *http.Request, msg string, err error, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	}, fields...)
	e.logger.Error(msg, allFields...)
}

// Handler provides error response handlers for router fallbacks.
type Handler struct{}

// NewHandler creates a new error Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Forbidden writes the 403 forbidden response.
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	jsonutil.Forbidden(w, "Access denied")
}

// Unauthorized writes the 401 unauthorized response.
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	jsonutil.Unauthorized(w, "Sign in required")
}

// NotFound writes the 404 not found response.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	jsonutil.NotFound(w, "Not found")
}

// InternalError writes the 500 internal server error response.
func (h *Handler) InternalError(w http.ResponseWriter, r *http.Request) {
	jsonutil.InternalError(w, "Internal server error")
}
