package scrape

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobagent-engine/internal/domain"
	"jobagent-engine/internal/langfilter"
	"jobagent-engine/internal/scrape/types"
)

type detectorFunc func(string) langfilter.Detection

func (f detectorFunc) Detect(s string) langfilter.Detection { return f(s) }

// germanIfMarked detects German only when the text says "Deutsch".
func germanIfMarked(s string) langfilter.Detection {
	if strings.Contains(s, "Deutsch") {
		return langfilter.Detection{Code: "de", Confidence: 1}
	}
	return langfilter.Detection{Code: "en", Confidence: 1}
}

func newClassifier() *langfilter.Classifier {
	return langfilter.New(detectorFunc(germanIfMarked), langfilter.DefaultOptions(), nil)
}

type fakeSink struct {
	mu       sync.Mutex
	persist  [][]domain.Posting
	scans    []domain.ScanRecord
	reports  int
	existing map[string]bool
	fail     bool
}

func (s *fakeSink) Persist(_ context.Context, ps []domain.Posting) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persist = append(s.persist, ps)
	if s.fail {
		return 0, errors.New("disk full")
	}
	n := 0
	for _, p := range ps {
		if !s.existing[p.Link] {
			n++
		}
	}
	return n, nil
}

func (s *fakeSink) LogScan(_ context.Context, rec domain.ScanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scans = append(s.scans, rec)
	return nil
}

func (s *fakeSink) RenderReport(context.Context, []domain.Posting) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports++
	return "/tmp/Job_Leads.xlsx", nil
}

func raw(link, title string) domain.RawPosting {
	return domain.RawPosting{
		Title:       title,
		Company:     " Acme  GmbH ",
		Link:        link,
		Description: "Build web apps in an English speaking team. Contact hr@acme.io",
	}
}

// byRole returns a source serving fixed candidates per role.
func byRole(name string, m map[string][]domain.RawPosting) types.Source {
	return types.SourceFunc{SourceName: name, Fetch: func(_ context.Context, role, _ string, _ int) ([]domain.RawPosting, error) {
		return m[role], nil
	}}
}

type recorder struct {
	mu    sync.Mutex
	snaps []domain.RunProgress
}

func (r *recorder) add(p domain.RunProgress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, p)
}

func (r *recorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.snaps))
	for _, s := range r.snaps {
		out = append(out, s.Message)
	}
	return out
}

func TestRunDedupAcrossSourcesAndRoles(t *testing.T) {
	a := byRole("A", map[string][]domain.RawPosting{
		"r1": {raw("https://x/1", "One"), raw("https://x/2", "Two")},
		"r2": {raw("https://x/1", "One again"), raw("https://x/4", "Four")},
	})
	b := byRole("B", map[string][]domain.RawPosting{
		"r1": {raw("https://x/2", "Two from B"), raw("https://x/3", "Three")},
	})
	sink := &fakeSink{existing: map[string]bool{"https://x/3": true}}
	r := NewRunner([]types.Source{a, b}, newClassifier(), sink, Options{})

	rec := &recorder{}
	res, err := r.Run(context.Background(), Request{Roles: []string{"r1", "r2"}, Location: "Berlin", Language: domain.English}, rec.add)
	require.NoError(t, err)

	links := make([]string, 0, len(res.Postings))
	for _, p := range res.Postings {
		links = append(links, p.Link)
	}
	assert.Equal(t, []string{"https://x/1", "https://x/2", "https://x/3", "https://x/4"}, links)
	assert.Equal(t, "A", res.Postings[1].Source)
	assert.Equal(t, "Two", res.Postings[1].Title)
	assert.Equal(t, "Acme GmbH", res.Postings[0].Company)
	assert.Equal(t, "Berlin", res.Postings[0].Location)
	assert.Equal(t, []string{"hr@acme.io"}, res.Postings[0].Emails)
	assert.Equal(t, 3, res.NewCount)
	assert.Equal(t, "/tmp/Job_Leads.xlsx", res.ReportPath)

	require.Len(t, sink.persist, 1)
	assert.Len(t, sink.persist[0], 4)
	require.Len(t, sink.scans, 1)
	assert.Equal(t, domain.ScanRecord{
		Roles: []string{"r1", "r2"}, Location: "Berlin", Language: "English", JobCount: 4, Timestamp: sink.scans[0].Timestamp,
	}, sink.scans[0])
	assert.Equal(t, 1, sink.reports)

	msgs := rec.messages()
	assert.Equal(t, "Initializing...", msgs[0])
	assert.Contains(t, msgs, "Deploying agent for r1...")
	assert.Contains(t, msgs, "Gathering r1 leads (A, B)...")
	assert.Contains(t, msgs, "Role r1 complete: Scanned 3 new strict matches.")
	assert.Contains(t, msgs, "Role r2 complete: Scanned 1 new strict matches.")
	assert.Contains(t, msgs, "Exporting results...")
	assert.Equal(t, "Finished! Found 4 total (3 new saved).", msgs[len(msgs)-1])
}

func TestRunProgressIsMonotonic(t *testing.T) {
	src := byRole("A", map[string][]domain.RawPosting{
		"a": {raw("https://x/1", "One")},
		"b": {raw("https://x/2", "Two")},
		"c": {raw("https://x/3", "Three")},
	})
	r := NewRunner([]types.Source{src}, newClassifier(), &fakeSink{}, Options{})

	rec := &recorder{}
	_, err := r.Run(context.Background(), Request{Roles: []string{"a", "b", "c"}, Language: domain.AnyLang}, rec.add)
	require.NoError(t, err)

	snaps := rec.snaps
	require.NotEmpty(t, snaps)
	for i := 1; i < len(snaps); i++ {
		assert.Greater(t, snaps[i].Version, snaps[i-1].Version)
		assert.GreaterOrEqual(t, snaps[i].Progress, snaps[i-1].Progress)
		assert.GreaterOrEqual(t, snaps[i].JobCount, snaps[i-1].JobCount)
	}
	for _, s := range snaps[:len(snaps)-1] {
		assert.True(t, s.Active)
	}
	last := snaps[len(snaps)-1]
	assert.False(t, last.Active)
	assert.Equal(t, 100, last.Progress)
	assert.Equal(t, 3, last.JobCount)
	assert.Equal(t, last, r.Progress())
	assert.False(t, r.Active())

	// per-role completion lands on floor(100*done/total)
	var roleDone []int
	for _, s := range snaps {
		if strings.HasPrefix(s.Message, "Role ") {
			roleDone = append(roleDone, s.Progress)
		}
	}
	assert.Equal(t, []int{33, 66, 100}, roleDone)
}

func TestRunNoJobsSkipsSink(t *testing.T) {
	sink := &fakeSink{}
	r := NewRunner([]types.Source{byRole("A", nil)}, newClassifier(), sink, Options{})

	rec := &recorder{}
	res, err := r.Run(context.Background(), Request{Roles: []string{"x"}, Language: domain.English}, rec.add)
	require.NoError(t, err)
	assert.Empty(t, res.Postings)
	assert.Empty(t, sink.persist)
	assert.Empty(t, sink.scans)
	assert.Zero(t, sink.reports)

	last := r.Progress()
	assert.Equal(t, "No jobs found.", last.Message)
	assert.Equal(t, 100, last.Progress)
	assert.False(t, last.Active)
}

func TestRunEmptyRoles(t *testing.T) {
	r := NewRunner([]types.Source{byRole("A", nil)}, newClassifier(), &fakeSink{}, Options{})
	res, err := r.Run(context.Background(), Request{Language: domain.English}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Postings)
	assert.Equal(t, "No jobs found.", r.Progress().Message)
}

func TestRunIsolatesFailingSources(t *testing.T) {
	failing := types.SourceFunc{SourceName: "fail", Fetch: func(context.Context, string, string, int) ([]domain.RawPosting, error) {
		return []domain.RawPosting{raw("https://x/ignored", "ignored")}, errors.New("blocked")
	}}
	panicking := types.SourceFunc{SourceName: "panic", Fetch: func(context.Context, string, string, int) ([]domain.RawPosting, error) {
		panic("selector exploded")
	}}
	stubborn := types.SourceFunc{SourceName: "stubborn", Fetch: func(context.Context, string, string, int) ([]domain.RawPosting, error) {
		time.Sleep(500 * time.Millisecond) // ignores ctx
		return []domain.RawPosting{raw("https://x/late", "late")}, nil
	}}
	polite := types.SourceFunc{SourceName: "polite", Fetch: func(ctx context.Context, _, _ string, _ int) ([]domain.RawPosting, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	good := byRole("good", map[string][]domain.RawPosting{"r": {raw("https://x/ok", "ok")}})

	sink := &fakeSink{}
	r := NewRunner([]types.Source{failing, panicking, stubborn, polite, good}, newClassifier(), sink,
		Options{SourceTimeout: 50 * time.Millisecond})

	start := time.Now()
	res, err := r.Run(context.Background(), Request{Roles: []string{"r"}, Language: domain.English}, nil)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 400*time.Millisecond)

	require.Len(t, res.Postings, 1)
	assert.Equal(t, "https://x/ok", res.Postings[0].Link)
	assert.Equal(t, "good", res.Postings[0].Source)
}

func TestRunLanguageTiers(t *testing.T) {
	var detailCalls atomic.Int32
	detail := func(text string) func(context.Context) (string, error) {
		return func(context.Context) (string, error) {
			detailCalls.Add(1)
			return text, nil
		}
	}

	src := byRole("A", map[string][]domain.RawPosting{"r": {
		// quick tier rejects: the snippet is confidently German
		{Title: "Entwickler", Snippet: "Wir suchen Deutsch Muttersprachler", Link: "https://x/de", FetchDescription: detail("ignored")},
		// strict tier rejects: German required in the description
		{Title: "Dev", Link: "https://x/req", FetchDescription: detail("Great team. Fluent German is required for this role.")},
		// detail fetch fails
		{Title: "Dev", Link: "https://x/err", FetchDescription: func(context.Context) (string, error) {
			detailCalls.Add(1)
			return "", errors.New("404")
		}},
		// no detail available: kept on the quick tier, emails from the snippet
		{Title: "Designer", Snippet: "Apply via jobs@studio.io or anna@studio.io", Link: "https://x/snippet"},
		// accepted by both tiers
		{Title: "Frontend", Link: "https://x/ok", FetchDescription: detail("We build React apps in English. Write to max@corp.io or careers@corp.io")},
	}})

	r := NewRunner([]types.Source{src}, newClassifier(), nil, Options{})
	res, err := r.Run(context.Background(), Request{Roles: []string{"r"}, Location: "Remote", Language: domain.English}, nil)
	require.NoError(t, err)

	require.Len(t, res.Postings, 2)
	assert.Equal(t, "https://x/snippet", res.Postings[0].Link)
	assert.Equal(t, []string{"jobs@studio.io", "anna@studio.io"}, res.Postings[0].Emails)
	assert.Equal(t, "https://x/ok", res.Postings[1].Link)
	assert.Equal(t, []string{"careers@corp.io", "max@corp.io"}, res.Postings[1].Emails)
	assert.Equal(t, int32(3), detailCalls.Load())
	assert.Equal(t, 2, res.NewCount)
}

func TestRunCapsCandidatesPerSource(t *testing.T) {
	var many []domain.RawPosting
	for i := 0; i < 12; i++ {
		many = append(many, raw(fmt.Sprintf("https://x/%d", i), "job"))
	}
	var gotLimit int
	src := types.SourceFunc{SourceName: "A", Fetch: func(_ context.Context, _, _ string, limit int) ([]domain.RawPosting, error) {
		gotLimit = limit
		return many, nil
	}}

	r := NewRunner([]types.Source{src}, newClassifier(), nil, Options{})
	res, err := r.Run(context.Background(), Request{Roles: []string{"r"}, Language: domain.AnyLang}, nil)
	require.NoError(t, err)
	assert.Equal(t, 8, gotLimit)
	assert.Len(t, res.Postings, 8)
}

func TestRunRejectsConcurrentRun(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	var once sync.Once
	src := types.SourceFunc{SourceName: "A", Fetch: func(context.Context, string, string, int) ([]domain.RawPosting, error) {
		once.Do(func() { close(entered) })
		<-release
		return []domain.RawPosting{raw("https://x/1", "one")}, nil
	}}

	sink := &fakeSink{}
	r := NewRunner([]types.Source{src}, newClassifier(), sink, Options{})

	done := make(chan Result, 1)
	go func() {
		res, _ := r.Run(context.Background(), Request{Roles: []string{"r"}, Language: domain.English}, nil)
		done <- res
	}()
	<-entered

	require.True(t, r.Active())
	before := r.Progress()
	_, err := r.Run(context.Background(), Request{Roles: []string{"other"}, Language: domain.German}, nil)
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.Equal(t, before, r.Progress())

	close(release)
	res := <-done
	assert.Len(t, res.Postings, 1)
	assert.False(t, r.Active())
	assert.Len(t, sink.persist, 1)
}

func TestRunSinkFailureStillFinishes(t *testing.T) {
	sink := &fakeSink{fail: true}
	src := byRole("A", map[string][]domain.RawPosting{"r": {raw("https://x/1", "one")}})
	r := NewRunner([]types.Source{src}, newClassifier(), sink, Options{})

	res, err := r.Run(context.Background(), Request{Roles: []string{"r"}, Language: domain.English}, nil)
	require.NoError(t, err)
	assert.Zero(t, res.NewCount)
	assert.Equal(t, "Finished! Found 1 total (0 new saved).", r.Progress().Message)
	assert.False(t, r.Progress().Active)
}

func TestStartClaimsRunSynchronously(t *testing.T) {
	release := make(chan struct{})
	src := types.SourceFunc{SourceName: "A", Fetch: func(context.Context, string, string, int) ([]domain.RawPosting, error) {
		<-release
		return []domain.RawPosting{raw("https://x/1", "one")}, nil
	}}
	r := NewRunner([]types.Source{src}, newClassifier(), nil, Options{})

	done, err := r.Start(context.Background(), Request{Roles: []string{"r"}, Language: domain.English}, nil)
	require.NoError(t, err)

	_, err = r.Start(context.Background(), Request{Roles: []string{"r"}, Language: domain.English}, nil)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	close(release)
	res := <-done
	assert.Len(t, res.Postings, 1)
	assert.Eventually(t, func() bool { return !r.Active() }, time.Second, 5*time.Millisecond)
}

func TestRunNormalizesLanguageSelector(t *testing.T) {
	germanOnly := func(link string) types.Source {
		return byRole("A", map[string][]domain.RawPosting{"r": {
			{Title: "Entwickler", Snippet: "Deutsch sprechendes Team in Berlin", Link: link, FetchDescription: func(context.Context) (string, error) {
				return "Wir suchen Verstärkung. Deutsch ist Pflicht.", nil
			}},
		}})
	}

	tests := []struct {
		lang  domain.Language
		count int
	}{
		{"German", 1},
		{"german", 1},
		{"Both", 1},
		{"all", 1},
		{"", 1},
		{"English", 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.lang), func(t *testing.T) {
			r := NewRunner([]types.Source{germanOnly("https://x/de")}, newClassifier(), nil, Options{})
			res, err := r.Run(context.Background(), Request{Roles: []string{"r"}, Language: tt.lang}, nil)
			require.NoError(t, err)
			assert.Len(t, res.Postings, tt.count)
		})
	}
}

func TestRunRejectsUnknownLanguage(t *testing.T) {
	var calls atomic.Int32
	src := types.SourceFunc{SourceName: "A", Fetch: func(context.Context, string, string, int) ([]domain.RawPosting, error) {
		calls.Add(1)
		return nil, nil
	}}
	var rec recorder
	r := NewRunner([]types.Source{src}, newClassifier(), nil, Options{})

	_, err := r.Run(context.Background(), Request{Roles: []string{"r"}, Language: "Klingon"}, rec.add)
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)

	_, err = r.Start(context.Background(), Request{Roles: []string{"r"}, Language: "Klingon"}, rec.add)
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)

	assert.False(t, r.Active())
	assert.Zero(t, calls.Load())
	assert.Empty(t, rec.messages())
	assert.Equal(t, domain.IdleProgress(), r.Progress())
}
