package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bookwise/bookguard/pkg/authz"
	"github.com/bookwise/bookguard/pkg/bookstore"
)

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, errorResponse{Error: code, Detail: detail})
}

// respondError maps domain errors onto HTTP statuses. Denials carry the
// failed check in the body; the denied data itself never appears.
func respondError(w http.ResponseWriter, err error) {
	var accessErr *authz.AccessError
	if errors.As(err, &accessErr) {
		status := http.StatusForbidden
		if accessErr.Code == authz.CodeReferentialViolation {
			status = http.StatusConflict
		}
		writeError(w, status, string(accessErr.Code), accessErr.Error())
		return
	}

	var dbErr *bookstore.DBError
	if errors.As(err, &dbErr) {
		switch dbErr.Code {
		case "AUTH_FAILED", "AUTH_ERROR", "SESSION_INVALID":
			writeError(w, http.StatusUnauthorized, dbErr.Code, "authentication failed")
			return
		case "PARSE_ERROR", "UNSUPPORTED_QUERY", "NOT_A_QUERY", "NOT_AN_EXEC", "INVALID_INPUT":
			writeError(w, http.StatusBadRequest, dbErr.Code, dbErr.Message)
			return
		}
	}

	slog.Error("request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "")
}
