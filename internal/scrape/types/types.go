package types

import (
	"context"

	"jobagent-engine/internal/domain"
)

// Source is one job portal. FetchCandidates returns the raw listing for a
// role; it must honour ctx and must not share mutable state with other
// sources.
type Source interface {
	Name() string
	FetchCandidates(ctx context.Context, role, location string, limit int) ([]domain.RawPosting, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc struct {
	SourceName string
	Fetch      func(ctx context.Context, role, location string, limit int) ([]domain.RawPosting, error)
}

func (f SourceFunc) Name() string { return f.SourceName }

func (f SourceFunc) FetchCandidates(ctx context.Context, role, location string, limit int) ([]domain.RawPosting, error) {
	return f.Fetch(ctx, role, location, limit)
}
