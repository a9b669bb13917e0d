package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/damienjburks/ops-seal/internal/cache"
	"github.com/damienjburks/ops-seal/internal/server"
)

// CacheSetRequest contains the fields allowed in a cache write.
type CacheSetRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// CacheEntryResponse is a single cache entry.
type CacheEntryResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// MessageResponse is a generic confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}

// CacheHandler writes key-value pairs into the cache. Writes carry the
// configured expiry (1 hour by default).
func CacheHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if srv.Cache == nil {
			http.Error(w, "Cache is unavailable", http.StatusServiceUnavailable)
			return
		}

		req := &CacheSetRequest{}
		if err := decodeRequest(r, req); err != nil {
			srv.Logger.Warn("error decoding cache request", "error", err)
			http.Error(w, fmt.Sprintf("Bad request: %q", err),
				http.StatusBadRequest)
			return
		}
		if req.Key == "" {
			http.Error(w, "Bad request: key is required", http.StatusBadRequest)
			return
		}

		ttl := time.Duration(srv.Config.Cache.TTLSeconds) * time.Second
		if err := srv.Cache.Set(r.Context(), req.Key, req.Value, ttl); err != nil {
			srv.Logger.Error("error setting cache key",
				"error", err, "key", req.Key)
			http.Error(w, "Error setting key", http.StatusInternalServerError)
			return
		}

		respondJSON(w, http.StatusOK, MessageResponse{
			Message: fmt.Sprintf(
				"Key %q set successfully with a TTL of %s", req.Key, ttl),
		}, srv.Logger)
	})
}

// CacheKeyHandler reads and deletes individual cache keys.
func CacheKeyHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if srv.Cache == nil {
			http.Error(w, "Cache is unavailable", http.StatusServiceUnavailable)
			return
		}

		key, err := parseResourceIDFromURL(r.URL.Path, "cache")
		if err != nil {
			http.Error(w, "Bad request: missing key", http.StatusBadRequest)
			return
		}

		switch r.Method {
		case http.MethodGet:
			value, err := srv.Cache.Get(r.Context(), key)
			if errors.Is(err, cache.ErrKeyNotFound) {
				http.Error(w, "Key not found", http.StatusNotFound)
				return
			}
			if err != nil {
				srv.Logger.Error("error getting cache key",
					"error", err, "key", key)
				http.Error(w, "Error getting key", http.StatusInternalServerError)
				return
			}

			respondJSON(w, http.StatusOK, CacheEntryResponse{
				Key:   key,
				Value: value,
			}, srv.Logger)

		case http.MethodDelete:
			err := srv.Cache.Delete(r.Context(), key)
			if errors.Is(err, cache.ErrKeyNotFound) {
				http.Error(w, "Key not found", http.StatusNotFound)
				return
			}
			if err != nil {
				srv.Logger.Error("error deleting cache key",
					"error", err, "key", key)
				http.Error(w, "Error deleting key", http.StatusInternalServerError)
				return
			}

			respondJSON(w, http.StatusOK, MessageResponse{
				Message: fmt.Sprintf("Key %q deleted successfully", key),
			}, srv.Logger)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}
