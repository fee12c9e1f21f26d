package httpapi

import (
	"net/http"

	"jobagent-engine/internal/store"
)

type DBHandler struct {
	DB *store.DB
}

// Checkpoint folds the WAL back into the database file (local callers only).
func (h DBHandler) Checkpoint(w http.ResponseWriter, r *http.Request) {
	if !IsLocal(r) {
		WriteError(w, r, http.StatusForbidden, CodeForbidden, "forbidden")
		return
	}
	if _, err := h.DB.Pool.ExecContext(r.Context(), `PRAGMA wal_checkpoint(FULL);`); err != nil {
		WriteError(w, r, http.StatusInternalServerError, CodeDB, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
