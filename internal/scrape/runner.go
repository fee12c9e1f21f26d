package scrape

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/errgroup"

	"jobagent-engine/internal/contact"
	"jobagent-engine/internal/domain"
	"jobagent-engine/internal/langfilter"
	"jobagent-engine/internal/scrape/types"
	"jobagent-engine/internal/scrape/util"
)

// ErrAlreadyRunning is returned by Run and Start when another run is active.
var ErrAlreadyRunning = errors.New("search already in progress")

// ErrUnsupportedLanguage is returned for a language selector ParseLanguage
// does not know. The run is not started.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// ResultSink receives the final posting set of a run.
type ResultSink interface {
	Persist(ctx context.Context, postings []domain.Posting) (added int, err error)
	LogScan(ctx context.Context, rec domain.ScanRecord) error
	RenderReport(ctx context.Context, postings []domain.Posting) (path string, err error)
}

type Request struct {
	Roles    []string        `json:"roles"`
	Location string          `json:"location"`
	Language domain.Language `json:"language"`
}

type Result struct {
	Postings   []domain.Posting
	NewCount   int
	ReportPath string
}

type Options struct {
	// MaxPerSource caps raw candidates per (role, source).
	MaxPerSource  int
	SourceTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{MaxPerSource: 8, SourceTimeout: 3 * time.Minute}
}

// Runner aggregates postings from all sources, one role at a time.
type Runner struct {
	sources []types.Source
	filter  *langfilter.Classifier
	sink    ResultSink
	opts    Options

	running atomic.Bool

	mu      sync.Mutex
	cur     domain.RunProgress
	version uint64
}

func NewRunner(sources []types.Source, filter *langfilter.Classifier, sink ResultSink, opts Options) *Runner {
	if opts.MaxPerSource <= 0 {
		opts.MaxPerSource = DefaultOptions().MaxPerSource
	}
	if opts.SourceTimeout <= 0 {
		opts.SourceTimeout = DefaultOptions().SourceTimeout
	}
	return &Runner{
		sources: sources,
		filter:  filter,
		sink:    sink,
		opts:    opts,
		cur:     domain.IdleProgress(),
	}
}

// Progress returns the latest published snapshot.
func (r *Runner) Progress() domain.RunProgress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cur
}

func (r *Runner) Active() bool { return r.running.Load() }

func (r *Runner) SourceNames() []string {
	names := make([]string, 0, len(r.sources))
	for _, s := range r.sources {
		names = append(names, s.Name())
	}
	return names
}

// publish applies mutate to a copy of the current snapshot, installs it and
// hands it to onProgress. Publishes of one run never overlap.
func (r *Runner) publish(onProgress func(domain.RunProgress), mutate func(p *domain.RunProgress)) {
	r.mu.Lock()
	next := r.cur
	mutate(&next)
	r.version++
	next.Version = r.version
	r.cur = next
	r.mu.Unlock()

	if onProgress != nil {
		onProgress(next)
	}
}

// Run executes one aggregation run. It blocks until every role has been
// processed and the sink has been handed the result. Once the request is
// accepted the only error it returns is ErrAlreadyRunning.
func (r *Runner) Run(ctx context.Context, req Request, onProgress func(domain.RunProgress)) (Result, error) {
	req, err := normalize(req)
	if err != nil {
		return Result{}, err
	}
	if !r.running.CompareAndSwap(false, true) {
		return Result{}, ErrAlreadyRunning
	}
	r.begin(onProgress)
	return r.run(ctx, req, onProgress), nil
}

// Start is Run in the background. The run is claimed before Start returns,
// so a second Start fails with ErrAlreadyRunning right away. The channel
// receives the result once.
func (r *Runner) Start(ctx context.Context, req Request, onProgress func(domain.RunProgress)) (<-chan Result, error) {
	req, err := normalize(req)
	if err != nil {
		return nil, err
	}
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	r.begin(onProgress)
	done := make(chan Result, 1)
	go func() { done <- r.run(ctx, req, onProgress) }()
	return done, nil
}

// normalize maps the language selector onto its canonical value, so "german"
// and "Both" reach the classifier as German and All.
func normalize(req Request) (Request, error) {
	lang, ok := domain.ParseLanguage(string(req.Language))
	if !ok {
		return req, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, req.Language)
	}
	req.Language = lang
	return req, nil
}

// begin publishes the first snapshot of a claimed run.
func (r *Runner) begin(onProgress func(domain.RunProgress)) {
	r.publish(onProgress, func(p *domain.RunProgress) {
		*p = domain.RunProgress{Active: true, Message: "Initializing..."}
	})
}

func (r *Runner) run(ctx context.Context, req Request, onProgress func(domain.RunProgress)) Result {
	defer r.running.Store(false)

	started := time.Now()
	total := len(req.Roles)
	seen := mapset.NewThreadUnsafeSet[string]()
	var all []domain.Posting

	for i, role := range req.Roles {
		r.publish(onProgress, func(p *domain.RunProgress) {
			p.CurrentRole = role
			p.Progress = percent(i, total)
			p.Message = fmt.Sprintf("Deploying agent for %s...", role)
		})
		r.publish(onProgress, func(p *domain.RunProgress) {
			p.Message = fmt.Sprintf("Gathering %s leads (%s)...", role, strings.Join(r.SourceNames(), ", "))
		})

		added := 0
		for _, batch := range r.fanOut(ctx, role, req, seen) {
			for _, post := range batch {
				if !seen.Add(post.Link) {
					continue
				}
				all = append(all, post)
				added++
			}
		}
		log.Printf("[agent] role=%q added=%d total=%d", role, added, len(all))

		r.publish(onProgress, func(p *domain.RunProgress) {
			p.JobCount = len(all)
			p.Progress = percent(i+1, total)
			p.Message = fmt.Sprintf("Role %s complete: Scanned %d new strict matches.", role, added)
		})
	}

	r.publish(onProgress, func(p *domain.RunProgress) {
		p.Progress = 100
		p.Message = "Exporting results..."
	})

	if len(all) == 0 {
		log.Printf("[agent] run finished with no jobs dur_ms=%d", time.Since(started).Milliseconds())
		r.publish(onProgress, func(p *domain.RunProgress) {
			p.Active = false
			p.Message = "No jobs found."
		})
		return Result{}
	}

	res := r.finish(ctx, req, all)
	log.Printf("[agent] run finished total=%d new=%d report=%q dur_ms=%d",
		len(all), res.NewCount, res.ReportPath, time.Since(started).Milliseconds())

	r.publish(onProgress, func(p *domain.RunProgress) {
		p.Active = false
		p.Message = fmt.Sprintf("Finished! Found %d total (%d new saved).", len(all), res.NewCount)
	})
	return res
}

// finish hands the postings to the sink. Sink failures are logged; the run
// still completes.
func (r *Runner) finish(ctx context.Context, req Request, all []domain.Posting) Result {
	res := Result{Postings: all}
	if r.sink == nil {
		res.NewCount = len(all)
		return res
	}

	added, err := r.sink.Persist(ctx, all)
	if err != nil {
		log.Printf("[agent] persist error: %v", err)
	}
	res.NewCount = added

	rec := domain.ScanRecord{
		Roles:     req.Roles,
		Location:  req.Location,
		Language:  string(req.Language),
		JobCount:  len(all),
		Timestamp: time.Now().UTC(),
	}
	if err := r.sink.LogScan(ctx, rec); err != nil {
		log.Printf("[agent] log scan error: %v", err)
	}

	path, err := r.sink.RenderReport(ctx, all)
	if err != nil {
		log.Printf("[agent] report error: %v", err)
	}
	res.ReportPath = path
	return res
}

// fanOut runs every source for one role concurrently and waits for all of
// them. prior is only read while the sources run.
func (r *Runner) fanOut(ctx context.Context, role string, req Request, prior mapset.Set[string]) [][]domain.Posting {
	batches := make([][]domain.Posting, len(r.sources))

	var g errgroup.Group
	for i, src := range r.sources {
		g.Go(func() error {
			batches[i] = r.collect(ctx, src, role, req, prior)
			return nil // best-effort: a failing source never cancels its siblings
		})
	}
	_ = g.Wait()
	return batches
}

// collect fetches and filters one (role, source) pair. Any failure or a
// timeout yields an empty batch.
func (r *Runner) collect(ctx context.Context, src types.Source, role string, req Request, prior mapset.Set[string]) []domain.Posting {
	sctx, cancel := context.WithTimeout(ctx, r.opts.SourceTimeout)
	defer cancel()

	name := src.Name()
	raws, err := isolate(sctx, func() ([]domain.RawPosting, error) {
		return src.FetchCandidates(sctx, role, req.Location, r.opts.MaxPerSource)
	})
	if err != nil {
		log.Printf("[agent:%s] role=%q fetch error: %v", name, role, err)
		return nil
	}
	if len(raws) > r.opts.MaxPerSource {
		raws = raws[:r.opts.MaxPerSource]
	}

	out := make([]domain.Posting, 0, len(raws))
	for _, raw := range raws {
		post, why := r.accept(sctx, raw, req, prior)
		if sctx.Err() != nil {
			log.Printf("[agent:%s] role=%q timed out after %s", name, role, r.opts.SourceTimeout)
			return nil
		}
		if why != "" {
			log.Printf("[agent:%s] skipped (%s) title=%q url=%q", name, why, raw.Title, raw.Link)
			continue
		}
		if post.Source == "" {
			post.Source = name
		}
		out = append(out, post)
	}
	log.Printf("[agent:%s] role=%q candidates=%d kept=%d", name, role, len(raws), len(out))
	return out
}

// accept runs the filter chain on one candidate. A non-empty reason means
// the candidate was dropped.
func (r *Runner) accept(ctx context.Context, raw domain.RawPosting, req Request, prior mapset.Set[string]) (domain.Posting, string) {
	link := strings.TrimSpace(raw.Link)
	if link == "" {
		return domain.Posting{}, "no_link"
	}
	// already accepted for an earlier role; skip the detail fetch
	if prior.Contains(link) {
		return domain.Posting{}, "seen"
	}

	if r.filter != nil && !r.filter.QuickAccept(raw.SnippetOrTitle(), req.Language) {
		return domain.Posting{}, "quick_language"
	}

	text := raw.Snippet
	if raw.HasDetail() {
		desc := raw.Description
		if desc == "" {
			var err error
			desc, err = isolate(ctx, func() (string, error) { return raw.FetchDescription(ctx) })
			if err != nil {
				return domain.Posting{}, "detail: " + err.Error()
			}
		}
		if r.filter != nil && !r.filter.StrictAccept(desc, req.Language) {
			return domain.Posting{}, "strict_language"
		}
		text = desc
	}

	return domain.Posting{
		Title:    util.CleanText(raw.Title),
		Company:  util.CleanText(raw.Company),
		Location: req.Location,
		Link:     link,
		Emails:   contact.ExtractEmails(text),
		Source:   raw.SourceName,
	}, ""
}

// isolate runs fn on its own goroutine, turning panics into errors and
// returning as soon as ctx is done even if fn ignores it. In that case the
// goroutine is abandoned, not stopped: it runs until fn returns, so fn must
// be bounded some other way (the portal adapters use an HTTP client timeout).
func isolate[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				ch <- result{err: fmt.Errorf("panic: %v", rec)}
			}
		}()
		v, err := fn()
		ch <- result{v: v, err: err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case res := <-ch:
		return res.v, res.err
	}
}

func percent(done, total int) int {
	if total <= 0 {
		return 100
	}
	return 100 * done / total
}
