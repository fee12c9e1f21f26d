package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"sync/atomic"

	"jobagent-engine/internal/config"
	"jobagent-engine/internal/domain"
	"jobagent-engine/internal/events"
	"jobagent-engine/internal/report"
	"jobagent-engine/internal/scrape"
)

type SearchRequest struct {
	Roles    []string `json:"roles"`
	Location string   `json:"location"`
	Language string   `json:"language"`
}

type StatusResponse struct {
	domain.RunProgress
	ReadyToDownload bool           `json:"ready_to_download"`
	Filters         *SearchRequest `json:"filters,omitempty"`
}

type SearchHandler struct {
	CfgVal      *atomic.Value
	Status      *events.Status
	Report      *report.Writer
	StartSearch func(req scrape.Request) error

	last *atomic.Pointer[SearchRequest]
}

func NewSearchHandler(d Deps) SearchHandler {
	return SearchHandler{
		CfgVal:      d.CfgVal,
		Status:      d.Status,
		Report:      d.Report,
		StartSearch: d.StartSearch,
		last:        &atomic.Pointer[SearchRequest]{},
	}
}

func (h SearchHandler) Start(w http.ResponseWriter, r *http.Request) {
	var in SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeInvalidJSON, "invalid JSON: "+err.Error())
		return
	}

	req, err := h.resolve(in)
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}

	if err := h.StartSearch(req); err != nil {
		switch {
		case errors.Is(err, scrape.ErrAlreadyRunning):
			WriteError(w, r, http.StatusConflict, CodeAlreadyRunning, "Search already in progress")
			return
		case errors.Is(err, scrape.ErrUnsupportedLanguage):
			WriteError(w, r, http.StatusBadRequest, CodeInvalidRequest, err.Error())
			return
		}
		WriteError(w, r, http.StatusInternalServerError, CodeStartFailed, err.Error())
		return
	}

	h.last.Store(&SearchRequest{Roles: req.Roles, Location: req.Location, Language: string(req.Language)})
	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true, "message": "Search started"})
}

// resolve fills omitted fields from the configured search.
func (h SearchHandler) resolve(in SearchRequest) (scrape.Request, error) {
	var cfg config.Config
	if h.CfgVal != nil {
		cfg, _ = h.CfgVal.Load().(config.Config)
	}

	var roles []string
	for _, role := range in.Roles {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}
	if len(in.Roles) == 0 {
		roles = cfg.Search.Roles
	}
	if len(roles) == 0 {
		return scrape.Request{}, errors.New("at least one role is required")
	}

	loc := strings.TrimSpace(in.Location)
	if loc == "" {
		loc = cfg.Search.Location
	}

	langName := in.Language
	if strings.TrimSpace(langName) == "" {
		langName = cfg.Search.Language
	}
	lang, ok := domain.ParseLanguage(langName)
	if !ok {
		return scrape.Request{}, errors.New("unsupported language: " + langName)
	}

	return scrape.Request{Roles: roles, Location: loc, Language: lang}, nil
}

func (h SearchHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	snap := h.Status.Snapshot()
	WriteJSON(w, http.StatusOK, StatusResponse{
		RunProgress:     snap,
		ReadyToDownload: !snap.Active && h.Report != nil && h.Report.Exists(),
		Filters:         h.last.Load(),
	})
}

func (h SearchHandler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	if h.Report == nil {
		WriteError(w, r, http.StatusNotFound, CodeNoReport, "Report not found")
		return
	}
	b, err := h.Report.Read(r.Context())
	if errors.Is(err, report.ErrNoReport) {
		WriteError(w, r, http.StatusNotFound, CodeNoReport, "Report not found")
		return
	}
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, CodeReportRead, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(h.Report.Path())+`"`)
	_, _ = w.Write(b)
}
