package httpapi

import "net/http"

// NewMux returns the raw mux so main() can still attach /shutdown (needs srv+token).
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Search runs
	sh := NewSearchHandler(d)
	mux.HandleFunc("/api/start-search", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.Start,
	}))
	mux.HandleFunc("/api/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: sh.GetStatus,
	}))
	mux.HandleFunc("/api/download-report", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: sh.DownloadReport,
	}))

	// Stored postings
	jh := JobsHandler{DB: d.DB}
	mux.HandleFunc("/api/jobs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: jh.List,
	}))
	mux.HandleFunc("/api/stats", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: jh.Stats,
	}))
	mux.HandleFunc("/api/scans", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: jh.Scans,
	}))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))

	// Secrets (use CfgVal, NOT a snapshot cfg)
	sec := SecretsHandler{CfgVal: d.CfgVal}
	mux.HandleFunc("/api/secrets/imap", methodMux(map[string]http.HandlerFunc{
		http.MethodPost:   sec.SetIMAPPassword,
		http.MethodDelete: sec.DeleteIMAPPassword,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub, Status: d.Status}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	dh := DBHandler{DB: d.DB}
	mux.HandleFunc("/db/checkpoint", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: dh.Checkpoint,
	}))

	hh := HealthHandler{Status: d.Status}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	return mux
}

// Handler wraps h with the standard middleware stack.
func Handler(h http.Handler, serviceName string) http.Handler {
	return Chain(h,
		OTel(serviceName),
		RequestID,
		AccessLog,
		Recover,
		Cors,
	)
}
