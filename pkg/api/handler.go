// Package api exposes the guarded bookstore over HTTP. The handlers do no
// authorization of their own: credentials pass through to the guarded
// store, and its denials map onto 401/403/409 responses.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bookwise/bookguard/pkg/bookstore"
	"github.com/bookwise/bookguard/pkg/policy"
	"github.com/bookwise/bookguard/pkg/store"
)

// Handler serves the bookstore resources.
type Handler struct {
	db *bookstore.Guarded
}

// NewHandler creates a handler over the guarded store.
func NewHandler(db *bookstore.Guarded) *Handler {
	return &Handler{db: db}
}

// credentials extracts Basic auth. Requests without credentials are
// rejected before touching the store.
func credentials(w http.ResponseWriter, r *http.Request) (username, token string, ok bool) {
	username, token, ok = r.BasicAuth()
	if !ok {
		writeError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "basic auth credentials required")
	}
	return username, token, ok
}

// list serves GET /<resource>. The optional columns query parameter
// requests an explicit projection; omitting it returns the caller's full
// granted column set.
func (h *Handler) list(resource policy.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, token, ok := credentials(w, r)
		if !ok {
			return
		}
		columns := splitColumns(r.URL.Query().Get("columns"))
		rows, err := h.db.Query(username, token, resource, columns, nil)
		if err != nil {
			respondError(w, err)
			return
		}
		records, err := store.ScanMaps(rows)
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

// listOrderItems serves GET /orders/{id}/items.
func (h *Handler) listOrderItems(w http.ResponseWriter, r *http.Request) {
	username, token, ok := credentials(w, r)
	if !ok {
		return
	}
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "order id must be an integer")
		return
	}
	columns := splitColumns(r.URL.Query().Get("columns"))
	rows, err := h.db.Query(username, token, policy.ResourceOrderItems, columns, store.Predicate{"order_id": orderID})
	if err != nil {
		respondError(w, err)
		return
	}
	records, err := store.ScanMaps(rows)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// update serves PATCH /<resource>/{id}. The body is a flat column/value
// object; one non-whitelisted column rejects the whole update.
func (h *Handler) update(resource policy.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, token, ok := credentials(w, r)
		if !ok {
			return
		}
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ID", "id must be an integer")
			return
		}
		var values map[string]any
		if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
			return
		}
		if len(values) == 0 {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "update body names no columns")
			return
		}
		affected, err := h.db.ApplyUpdate(username, token, resource, values, store.Predicate{"id": id})
		if err != nil {
			respondError(w, err)
			return
		}
		slog.Info("update applied", "resource", resource, "id", id, "rows", affected)
		writeJSON(w, http.StatusOK, map[string]any{"updated": affected})
	}
}

// insertBooks serves POST /books, the only insert any role is granted.
func (h *Handler) insertBooks(w http.ResponseWriter, r *http.Request) {
	username, token, ok := credentials(w, r)
	if !ok {
		return
	}
	var values map[string]any
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	id, err := h.db.Insert(username, token, policy.ResourceBooks, values)
	if err != nil {
		respondError(w, err)
		return
	}
	slog.Info("book created", "id", id)
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

// createSession serves POST /sessions and returns a session token bound to
// the role resolved at login.
func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	username, token, ok := credentials(w, r)
	if !ok {
		return
	}
	session, err := h.db.CreateSession(username, token)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id": session.ID,
		"role":       session.Role,
		"expires_at": session.ExpiresAt,
	})
}

// deleteSession serves DELETE /sessions/{id}.
func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.db.TerminateSession(chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "")
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func splitColumns(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	columns := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			columns = append(columns, trimmed)
		}
	}
	return columns
}
