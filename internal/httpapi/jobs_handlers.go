package httpapi

import (
	"net/http"
	"strconv"

	"jobagent-engine/internal/store"
)

type JobsHandler struct {
	DB *store.DB
}

func (h JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	jobs, err := h.DB.ListJobs(r.Context(), store.ListJobsOpts{
		Sort: q.Get("sort"), Window: q.Get("window"), Limit: limit,
	})
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, CodeDB, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, jobs)
}

func (h JobsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.DB.Stats(r.Context())
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, CodeDB, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, st)
}

func (h JobsHandler) Scans(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	scans, err := h.DB.RecentScans(r.Context(), limit)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, CodeDB, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, scans)
}
