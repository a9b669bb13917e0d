package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/damienjburks/ops-seal/internal/server"
)

// DocumentInsertResponse carries the ID of an inserted document.
type DocumentInsertResponse struct {
	InsertedID string `json:"inserted_id"`
}

// DocumentsHandler inserts and queries documents in a named collection.
//
//	POST /api/v1/documents/{collection}  body is the document to insert
//	GET  /api/v1/documents/{collection}  optional body is the query filter
func DocumentsHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if srv.Documents == nil {
			http.Error(w, "Document store is unavailable",
				http.StatusServiceUnavailable)
			return
		}

		collection, err := parseResourceIDFromURL(r.URL.Path, "documents")
		if err != nil {
			http.Error(w, "Bad request: missing collection name",
				http.StatusBadRequest)
			return
		}

		switch r.Method {
		case http.MethodPost:
			doc := map[string]interface{}{}
			if err := decodeRequest(r, &doc); err != nil {
				srv.Logger.Warn("error decoding document", "error", err)
				http.Error(w, fmt.Sprintf("Bad request: %q", err),
					http.StatusBadRequest)
				return
			}

			id, err := srv.Documents.Insert(r.Context(), collection, doc)
			if err != nil {
				srv.Logger.Error("error inserting document",
					"error", err, "collection", collection)
				http.Error(w, "Insert failed", http.StatusInternalServerError)
				return
			}

			respondJSON(w, http.StatusOK, DocumentInsertResponse{
				InsertedID: id,
			}, srv.Logger)

		case http.MethodGet:
			// The filter body is optional; an absent or empty body matches
			// every document in the collection.
			filter := map[string]interface{}{}
			body, err := io.ReadAll(r.Body)
			if err == nil && len(body) > 0 {
				if err := json.Unmarshal(body, &filter); err != nil {
					http.Error(w, fmt.Sprintf("Bad request: %q", err),
						http.StatusBadRequest)
					return
				}
			}

			docs, err := srv.Documents.Find(r.Context(), collection, filter)
			if err != nil {
				srv.Logger.Error("error finding documents",
					"error", err, "collection", collection)
				http.Error(w, "Find failed", http.StatusInternalServerError)
				return
			}

			respondJSON(w, http.StatusOK, docs, srv.Logger)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}
