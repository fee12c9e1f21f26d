package config

import (
	"fmt"
	"strings"

	"jobagent-engine/internal/domain"
)

var knownPortals = map[string]bool{
	"linkedin":    true,
	"stepstone":   true,
	"indeed":      true,
	"startupjobs": true,
}

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy of cfg together with every
// problem found.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	out.Search.Roles = trimList(out.Search.Roles)
	out.Sources.Portals = append([]Portal(nil), cfg.Sources.Portals...)
	out.Search.Location = strings.TrimSpace(out.Search.Location)

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	if len(out.Search.Roles) == 0 {
		res.addWarn("search.roles is empty; scheduled runs will find nothing.")
	}
	if lang, ok := domain.ParseLanguage(out.Search.Language); ok {
		out.Search.Language = string(lang)
	} else {
		res.addErr("search.language %q is not supported (use one of %v)", out.Search.Language, domain.Languages())
	}
	if out.Search.MaxPerSource <= 0 {
		res.addErr("search.max_per_source must be > 0")
	}
	if out.Search.SourceTimeoutSeconds <= 0 {
		res.addErr("search.source_timeout_seconds must be > 0")
	}
	if out.Search.ScheduleMinutes < 0 {
		res.addErr("search.schedule_minutes must be >= 0")
	} else if out.Search.ScheduleMinutes > 0 && out.Search.ScheduleMinutes < 15 {
		res.addWarn("search.schedule_minutes is very low (%d) and may get you rate limited.", out.Search.ScheduleMinutes)
	}

	if out.Language.QuickMinChars < 0 {
		res.addErr("language.quick_min_chars must be >= 0")
	}
	if out.Language.MinConfidence < 0 || out.Language.MinConfidence > 1 {
		res.addErr("language.min_confidence must be within 0..1")
	}

	if out.Sources.RequestsPerSecond <= 0 {
		res.addErr("sources.requests_per_second must be > 0")
	}
	enabled := 0
	seen := map[string]bool{}
	for i, p := range out.Sources.Portals {
		name := strings.ToLower(strings.TrimSpace(p.Name))
		out.Sources.Portals[i].Name = name
		switch {
		case !knownPortals[name]:
			res.addErr("sources.portals[%d].name %q is unknown", i, p.Name)
		case seen[name]:
			res.addErr("sources.portals[%d].name %q is listed twice", i, p.Name)
		}
		seen[name] = true
		if p.Enabled {
			enabled++
		}
	}

	mb := out.Sources.Mailbox
	if mb.Enabled {
		enabled++
		if strings.TrimSpace(mb.IMAPHost) == "" {
			res.addErr("sources.mailbox.imap_host is required when the mailbox is enabled")
		}
		if strings.TrimSpace(mb.Username) == "" {
			res.addErr("sources.mailbox.username is required when the mailbox is enabled")
		}
		if mb.IMAPPort <= 0 || mb.IMAPPort > 65535 {
			res.addErr("sources.mailbox.imap_port must be 1..65535")
		}
		if mb.SinceDays <= 0 {
			res.addErr("sources.mailbox.since_days must be > 0")
		}
	}
	if enabled == 0 {
		res.addErr("no sources enabled: enable at least one portal or the mailbox")
	}

	if strings.TrimSpace(out.Report.Path) == "" {
		res.addErr("report.path is required")
	}
	return out, res
}

func trimList(xs []string) []string {
	seen := map[string]bool{}
	ys := []string{}
	for _, x := range xs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		key := strings.ToLower(x)
		if seen[key] {
			continue
		}
		seen[key] = true
		ys = append(ys, x)
	}
	return ys
}
