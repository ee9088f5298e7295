package api

import (
	"net/http"

	"github.com/sajjad-MoBe/TupleSpace/node/src/internal/shared"

	"github.com/gorilla/mux"
)

// Router creates and configures the admin HTTP router
func Router(handler *Handler, metrics *Metrics, logger *shared.Logger) http.Handler {
	router := mux.NewRouter()

	router.Use(
		LoggingMiddleware(logger, metrics),
		RecoveryMiddleware(logger),
	)

	router.HandleFunc("/health", handler.HealthCheckHandler).Methods(http.MethodGet)
	router.HandleFunc("/stats", handler.StatsHandler).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	return router
}
