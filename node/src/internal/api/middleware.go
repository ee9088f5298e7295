package api

import (
	"encoding/json"
	"net/http"
	"time"

	tsErr "github.com/sajjad-MoBe/TupleSpace/node/src/internal/errors"
	"github.com/sajjad-MoBe/TupleSpace/node/src/internal/shared"

	"github.com/gorilla/mux"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// RecoveryMiddleware recovers panics and writes JSON errors
func RecoveryMiddleware(logger *shared.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err := tsErr.RecoverError(rec)
					logger.WithError(err).Error("admin handler panicked on %s", r.URL.Path)
					handleError(w, err)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// handleError writes an error response to the client
func handleError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	errType := string(tsErr.ErrorTypeInternal)
	if t := tsErr.TypeOf(err); t != "" {
		errType = string(t)
	}

	response := ErrorResponse{}
	response.Error.Type = errType
	response.Error.Message = err.Error()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// LoggingMiddleware logs request details and counts them
func LoggingMiddleware(logger *shared.Logger, metrics *Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			path := r.URL.Path
			if route := mux.CurrentRoute(r); route != nil {
				if tmpl, err := route.GetPathTemplate(); err == nil {
					path = tmpl
				}
			}
			metrics.observeHTTP(r.Method, path, rw.statusCode)
			logger.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     path,
				"status":   rw.statusCode,
				"duration": time.Since(start).String(),
			}).Debug("admin request")
		})
	}
}

// responseWriter is a custom response writer that captures the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
