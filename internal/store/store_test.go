package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobagent-engine/internal/domain"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	d, err := Open(context.Background(), filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestMigrateIdempotent(t *testing.T) {
	d := openTemp(t)
	require.NoError(t, d.Migrate(context.Background()))

	var v int
	require.NoError(t, d.Pool.QueryRow(`PRAGMA user_version;`).Scan(&v))
	assert.Equal(t, schemaVersion, v)
}

func TestSavePostingsCountsOnlyNew(t *testing.T) {
	d := openTemp(t)
	ctx := context.Background()

	first := []domain.Posting{
		{Title: "Frontend Dev", Company: "Acme", Location: "Berlin", Link: "https://x/1", Emails: []string{"hr@acme.de", "a@acme.de"}, Source: "Indeed"},
		{Title: "", Company: "Beta", Link: "https://x/2", Source: "LinkedIn"},
	}
	added, err := d.SavePostings(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	second := []domain.Posting{
		{Title: "Frontend Dev (changed)", Link: "https://x/1"},
		{Title: "Backend Dev", Link: "https://x/3"},
	}
	added, err = d.SavePostings(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	jobs, err := d.ListJobs(ctx, ListJobsOpts{Sort: "title"})
	require.NoError(t, err)
	require.Len(t, jobs, 3)

	byLink := map[string]Job{}
	for _, j := range jobs {
		byLink[j.Link] = j
	}
	assert.Equal(t, "Frontend Dev", byLink["https://x/1"].Title)
	assert.Equal(t, []string{"hr@acme.de", "a@acme.de"}, byLink["https://x/1"].Emails)
	assert.Equal(t, "Job Posting", byLink["https://x/2"].Title)
	assert.Equal(t, []string{}, byLink["https://x/2"].Emails)
	assert.Equal(t, "new", byLink["https://x/3"].Status)

	added, err = d.SavePostings(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, added)
}

func TestListJobsLimitAndWindow(t *testing.T) {
	d := openTemp(t)
	ctx := context.Background()

	_, err := d.SavePostings(ctx, []domain.Posting{
		{Title: "b", Link: "l1"}, {Title: "a", Link: "l2"}, {Title: "c", Link: "l3"},
	})
	require.NoError(t, err)
	_, err = d.Pool.Exec(`UPDATE jobs SET created_at = datetime('now','-30 days') WHERE link = 'l3';`)
	require.NoError(t, err)

	jobs, err := d.ListJobs(ctx, ListJobsOpts{Sort: "title", Limit: 2})
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "a", jobs[0].Title)

	recent, err := d.ListJobs(ctx, ListJobsOpts{Window: "7d"})
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	deleted, err := d.CleanupOldJobs(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestScansAndStats(t *testing.T) {
	d := openTemp(t)
	ctx := context.Background()

	require.NoError(t, d.LogScan(ctx, domain.ScanRecord{
		Roles: []string{"Frontend", "Backend"}, Location: "Germany", Language: "English", JobCount: 4, Timestamp: time.Now(),
	}))
	_, err := d.SavePostings(ctx, []domain.Posting{{Title: "x", Link: "l"}})
	require.NoError(t, err)

	scans, err := d.RecentScans(ctx, 0)
	require.NoError(t, err)
	require.Len(t, scans, 1)
	assert.Equal(t, "Frontend, Backend", scans[0].Roles)
	assert.Equal(t, 4, scans[0].JobCount)

	st, err := d.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{TotalJobs: 1, TotalScans: 1}, st)
}
