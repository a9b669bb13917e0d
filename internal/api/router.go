package api

import (
	"net/http"

	"github.com/damienjburks/ops-seal/internal/server"
)

// NewRouter builds the service's HTTP handler.
func NewRouter(srv server.Server) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/", HealthHandler(srv))
	mux.Handle("/api/v1/cache", CacheHandler(srv))
	mux.Handle("/api/v1/cache/", CacheKeyHandler(srv))
	mux.Handle("/api/v1/documents/", DocumentsHandler(srv))
	mux.Handle("/api/v1/tfc/start-processing-job", SweepHandler(srv))

	return mux
}
