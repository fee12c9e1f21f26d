// Package mailbox turns LinkedIn job-alert mails into posting candidates.
package mailbox

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"jobagent-engine/internal/domain"
	"jobagent-engine/internal/scrape/util"
)

// Inbox lists recent mails, newest first.
type Inbox interface {
	Recent(ctx context.Context, since time.Time, max int) ([]Message, error)
}

// DetailFunc loads the full description behind a posting link.
type DetailFunc func(ctx context.Context, link string) (string, error)

type Options struct {
	Lookback    time.Duration
	MaxMessages int
}

type Source struct {
	inbox  Inbox
	detail DetailFunc
	opts   Options
}

func NewSource(inbox Inbox, detail DetailFunc, opts Options) *Source {
	if opts.Lookback <= 0 {
		opts.Lookback = 72 * time.Hour
	}
	if opts.MaxMessages <= 0 {
		opts.MaxMessages = 50
	}
	return &Source{inbox: inbox, detail: detail, opts: opts}
}

func (s *Source) Name() string { return "JobAlerts" }

// FetchCandidates returns alert postings whose title mentions every word of
// role. Location is left to the alert subscription itself.
func (s *Source) FetchCandidates(ctx context.Context, role, _ string, limit int) ([]domain.RawPosting, error) {
	msgs, err := s.inbox.Recent(ctx, time.Now().Add(-s.opts.Lookback), s.opts.MaxMessages)
	if err != nil {
		return nil, fmt.Errorf("alert inbox: %w", err)
	}

	words := strings.Fields(strings.ToLower(role))
	seen := map[string]bool{}
	var out []domain.RawPosting

	for _, m := range msgs {
		plain, htmlBody := m.Bodies()
		if htmlBody == "" || !IsJobAlert(m.From, m.Subject, htmlBody+plain) {
			continue
		}
		jobs, err := ParseAlertHTML(htmlBody)
		if err != nil {
			log.Printf("[mailbox] uid=%d parse: %v", m.UID, err)
			continue
		}

		for _, j := range jobs {
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
			if seen[j.Link] || !matchesAll(strings.ToLower(j.Title), words) {
				continue
			}
			seen[j.Link] = true

			raw := domain.RawPosting{
				Title:      j.Title,
				Company:    j.Company,
				Link:       util.CanonicalizeURL(j.Link),
				Snippet:    strings.TrimSpace(j.Title + " " + j.Location),
				SourceName: s.Name(),
			}
			if s.detail != nil {
				link := raw.Link
				raw.FetchDescription = func(ctx context.Context) (string, error) {
					return s.detail(ctx, link)
				}
			}
			out = append(out, raw)
		}
	}
	return out, nil
}

func matchesAll(title string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(title, w) {
			return false
		}
	}
	return true
}
