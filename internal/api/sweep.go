package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/damienjburks/ops-seal/internal/server"
	"github.com/damienjburks/ops-seal/internal/sweep"
	"github.com/damienjburks/ops-seal/pkg/tfc"
)

// SweepResponse summarizes a completed sweep pass. Individual workspace
// failures are reflected in the counts, not in the HTTP status.
type SweepResponse struct {
	Message          string `json:"message"`
	PassID           string `json:"pass_id"`
	Excluded         int    `json:"excluded"`
	AlreadyDestroyed int    `json:"already_destroyed"`
	DestroyTriggered int    `json:"destroy_triggered"`
	Failed           int    `json:"failed"`
}

// SweepHandler triggers a destroy-sweep pass synchronously. A pass that is
// already running is reported as a conflict rather than queued.
func SweepHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		srv.Logger.Info("sweep requested via API")
		summary, err := srv.Sweeps.Run(r.Context())
		if errors.Is(err, sweep.ErrSweepInFlight) {
			http.Error(w, "A processing job is already running",
				http.StatusConflict)
			return
		}
		if err != nil {
			srv.Logger.Error("sweep failed", "error", err)
			http.Error(w, fmt.Sprintf("Processing job failed: %q", err),
				http.StatusInternalServerError)
			return
		}

		respondJSON(w, http.StatusOK, SweepResponse{
			Message:          "Processing job is completed.",
			PassID:           summary.PassID,
			Excluded:         summary.Count(tfc.ResultExcluded),
			AlreadyDestroyed: summary.Count(tfc.ResultAlreadyDestroyed),
			DestroyTriggered: summary.Count(tfc.ResultDestroyTriggered),
			Failed:           summary.Count(tfc.ResultFailed),
		}, srv.Logger)
	})
}
