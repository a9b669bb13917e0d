package api

import (
	"net/http"

	"github.com/damienjburks/ops-seal/internal/server"
)

// HealthResponse reports that the service is up.
type HealthResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// HealthHandler responds on the root path so load balancers and humans can
// check that the service is running.
func HealthHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The root pattern matches every otherwise-unrouted path.
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		respondJSON(w, http.StatusOK, HealthResponse{
			Message: "It's ALIVE!",
			Status:  "running",
		}, srv.Logger)
	})
}
