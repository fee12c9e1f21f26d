package httpapi

import (
	"sync/atomic"

	"jobagent-engine/internal/config"
	"jobagent-engine/internal/events"
	"jobagent-engine/internal/report"
	"jobagent-engine/internal/scrape"
	"jobagent-engine/internal/store"
)

type Deps struct {
	DB     *store.DB
	Hub    *events.Hub
	Status *events.Status
	Report *report.Writer

	// CfgVal stores config.Config
	CfgVal *atomic.Value

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// StartSearch launches a run in the background; it returns
	// scrape.ErrAlreadyRunning while another run is active.
	StartSearch func(req scrape.Request) error
}
