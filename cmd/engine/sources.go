package main

import (
	"fmt"
	"log"
	"net"
	"strconv"
	"time"

	"jobagent-engine/internal/config"
	"jobagent-engine/internal/domain"
	"jobagent-engine/internal/scrape"
	"jobagent-engine/internal/scrape/mailbox"
	"jobagent-engine/internal/scrape/portal"
	"jobagent-engine/internal/scrape/types"
	"jobagent-engine/internal/scrape/util"
	"jobagent-engine/internal/secrets"
)

const jobRetention = 90 * 24 * time.Hour

// buildSources turns the enabled portals (in config order) and the optional
// alert mailbox into runner sources.
func buildSources(cfg config.Config) ([]types.Source, error) {
	lim := util.NewHostLimiter(cfg.Sources.RequestsPerSecond, 1)
	builtin := portal.Builtin()

	var out []types.Source
	scrapers := map[string]*portal.Scraper{}
	for _, p := range cfg.Sources.Portals {
		site, ok := builtin[p.Name]
		if !ok {
			return nil, fmt.Errorf("unknown portal %q", p.Name)
		}
		if p.SearchURL != "" {
			site.SearchURL = p.SearchURL
		}
		if p.BaseURL != "" {
			site.BaseURL = p.BaseURL
		}
		s := portal.New(site, portal.WithLimiter(lim), portal.WithUserAgent(cfg.Sources.UserAgent))
		scrapers[p.Name] = s
		if p.Enabled {
			out = append(out, s)
		}
	}

	if mb := cfg.Sources.Mailbox; mb.Enabled {
		// alert links point at LinkedIn, so its scraper loads the details
		li, ok := scrapers["linkedin"]
		if !ok {
			li = portal.New(portal.LinkedIn(), portal.WithLimiter(lim), portal.WithUserAgent(cfg.Sources.UserAgent))
		}
		pw, err := secrets.IMAPPassword(secrets.IMAPKeyringAccount(mb.Username, mb.IMAPHost), cfg.IMAPPassword)
		if err != nil {
			log.Printf("[mailbox] disabled: %v", err)
			return out, nil
		}
		inbox := &mailbox.IMAPInbox{
			Addr:     net.JoinHostPort(mb.IMAPHost, strconv.Itoa(mb.IMAPPort)),
			Username: mb.Username,
			Password: pw,
			Mailbox:  mb.Mailbox,
		}
		out = append(out, mailbox.NewSource(inbox, li.Description, mailbox.Options{
			Lookback:    time.Duration(mb.SinceDays) * 24 * time.Hour,
			MaxMessages: mb.MaxMessages,
		}))
	}
	return out, nil
}

// configuredRequest is the search the scheduler runs.
func configuredRequest(cfg config.Config) (scrape.Request, error) {
	lang, ok := domain.ParseLanguage(cfg.Search.Language)
	if !ok {
		return scrape.Request{}, fmt.Errorf("unsupported language %q", cfg.Search.Language)
	}
	return scrape.Request{Roles: cfg.Search.Roles, Location: cfg.Search.Location, Language: lang}, nil
}
