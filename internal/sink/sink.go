// Package sink persists finished runs: new postings go to the database, every
// run gets a scan record, and the spreadsheet report is regenerated.
package sink

import (
	"context"
	"fmt"

	"jobagent-engine/internal/domain"
)

type Store interface {
	SavePostings(ctx context.Context, postings []domain.Posting) (int, error)
	LogScan(ctx context.Context, rec domain.ScanRecord) error
}

type Renderer interface {
	Render(ctx context.Context, postings []domain.Posting) (string, error)
}

// Sink implements scrape.ResultSink. Either part may be nil, in which case
// that step is skipped.
type Sink struct {
	store    Store
	renderer Renderer
}

func New(store Store, renderer Renderer) *Sink {
	return &Sink{store: store, renderer: renderer}
}

// Persist returns how many postings were not stored before. Without a store
// every posting counts as new.
func (s *Sink) Persist(ctx context.Context, postings []domain.Posting) (int, error) {
	if s.store == nil {
		return len(postings), nil
	}
	n, err := s.store.SavePostings(ctx, postings)
	if err != nil {
		return 0, fmt.Errorf("persist postings: %w", err)
	}
	return n, nil
}

func (s *Sink) LogScan(ctx context.Context, rec domain.ScanRecord) error {
	if s.store == nil {
		return nil
	}
	return s.store.LogScan(ctx, rec)
}

func (s *Sink) RenderReport(ctx context.Context, postings []domain.Posting) (string, error) {
	if s.renderer == nil || len(postings) == 0 {
		return "", nil
	}
	path, err := s.renderer.Render(ctx, postings)
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return path, nil
}
