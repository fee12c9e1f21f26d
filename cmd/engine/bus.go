package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"jobagent-engine/internal/config"
	"jobagent-engine/internal/domain"
	"jobagent-engine/internal/natsutil"
	"jobagent-engine/internal/scrape"
)

// runSummary is published on <prefix>.runs after every finished run.
type runSummary struct {
	Roles      []string  `json:"roles"`
	Location   string    `json:"location"`
	Language   string    `json:"language"`
	Found      int       `json:"found"`
	New        int       `json:"new"`
	ReportPath string    `json:"report_path,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// bus mirrors run activity onto NATS. A nil *bus is a valid no-op.
type bus struct {
	nc     *nats.Conn
	prefix string
}

func connectBus(cfg config.Config) (*bus, error) {
	if cfg.NATS.URL == "" {
		return nil, errors.New("no url configured")
	}
	nc, err := natsutil.Connect(cfg.NATS.URL, serviceName)
	if err != nil {
		return nil, err
	}
	log.Printf("[nats] connected url=%s prefix=%s", nc.ConnectedUrl(), cfg.NATS.SubjectPrefix)
	return &bus{nc: nc, prefix: cfg.NATS.SubjectPrefix}, nil
}

func (b *bus) Close() {
	if b == nil {
		return
	}
	_ = b.nc.Drain()
}

func (b *bus) forwardProgress(p domain.RunProgress) {
	if b == nil {
		return
	}
	if err := natsutil.Publish(context.Background(), b.nc, natsutil.Subject(b.prefix, natsutil.SubjectProgress), p); err != nil {
		log.Printf("[nats] progress publish failed: %v", err)
	}
}

func (b *bus) publishRun(req scrape.Request, res scrape.Result) {
	if b == nil {
		return
	}
	sum := runSummary{
		Roles:      req.Roles,
		Location:   req.Location,
		Language:   string(req.Language),
		Found:      len(res.Postings),
		New:        res.NewCount,
		ReportPath: res.ReportPath,
		FinishedAt: time.Now().UTC(),
	}
	if err := natsutil.Publish(context.Background(), b.nc, natsutil.Subject(b.prefix, natsutil.SubjectRuns), sum); err != nil {
		log.Printf("[nats] run publish failed: %v", err)
	}
}

// serveStart lets other processes trigger a search by publishing a
// scrape.Request on <prefix>.search.start.
func (b *bus) serveStart(start func(scrape.Request) error) error {
	if b == nil {
		return nil
	}
	_, err := natsutil.Subscribe(b.nc, natsutil.Subject(b.prefix, natsutil.SubjectStart), func(_ context.Context, req scrape.Request) {
		req, err := startRequest(req)
		if err != nil {
			log.Printf("[nats] ignoring start: %v", err)
			return
		}
		if err := start(req); err != nil {
			log.Printf("[nats] start rejected: %v", err)
		}
	})
	return err
}

// startRequest checks a bus start message. An omitted language means English.
func startRequest(req scrape.Request) (scrape.Request, error) {
	if len(req.Roles) == 0 {
		return req, errors.New("no roles")
	}
	if strings.TrimSpace(string(req.Language)) == "" {
		req.Language = domain.English
		return req, nil
	}
	lang, ok := domain.ParseLanguage(string(req.Language))
	if !ok {
		return req, fmt.Errorf("%w: %q", scrape.ErrUnsupportedLanguage, req.Language)
	}
	req.Language = lang
	return req, nil
}
