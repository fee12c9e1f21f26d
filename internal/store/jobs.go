package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"jobagent-engine/internal/domain"
)

type Job struct {
	ID        int64    `json:"id"`
	Title     string   `json:"title"`
	Company   string   `json:"company"`
	Location  string   `json:"location"`
	Link      string   `json:"link"`
	Emails    []string `json:"emails"`
	Source    string   `json:"source"`
	CreatedAt string   `json:"created_at"`
	Status    string   `json:"status"`
}

type ListJobsOpts struct {
	Sort   string // date | company | title
	Window string // 24h | 7d | all
	Limit  int
}

// SavePostings inserts postings whose link is not stored yet and returns
// how many rows were added. Existing rows are left untouched.
func (d *DB) SavePostings(ctx context.Context, postings []domain.Posting) (added int, err error) {
	if len(postings) == 0 {
		return 0, nil
	}
	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT OR IGNORE INTO jobs (title, company, location, link, emails, source)
VALUES (?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range postings {
		title := p.Title
		if title == "" {
			title = "Job Posting"
		}
		res, err := stmt.ExecContext(ctx, title, p.Company, p.Location, p.Link, strings.Join(p.Emails, "\n"), p.Source)
		if err != nil {
			return 0, fmt.Errorf("insert job %q: %w", p.Link, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return added, nil
}

func (d *DB) ListJobs(ctx context.Context, opts ListJobsOpts) ([]Job, error) {
	if opts.Limit <= 0 || opts.Limit > 2000 {
		opts.Limit = 100
	}

	// whitelist sort columns
	order := map[string]string{
		"date":    "created_at DESC, id DESC",
		"company": "company ASC, id DESC",
		"title":   "title ASC, id DESC",
	}[opts.Sort]
	if order == "" {
		order = "created_at DESC, id DESC"
	}

	where := ""
	switch opts.Window {
	case "24h":
		where = "WHERE created_at >= datetime('now','-24 hours')"
	case "7d":
		where = "WHERE created_at >= datetime('now','-7 days')"
	}

	query := fmt.Sprintf(`
SELECT id, title, company, location, link, emails, source, created_at, status
FROM jobs
%s
ORDER BY %s
LIMIT ?;`, where, order)

	rows, err := d.Pool.QueryContext(ctx, query, opts.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Job{}
	for rows.Next() {
		var j Job
		var emails string
		if err := rows.Scan(&j.ID, &j.Title, &j.Company, &j.Location, &j.Link, &emails, &j.Source, &j.CreatedAt, &j.Status); err != nil {
			return nil, err
		}
		j.Emails = splitEmails(emails)
		out = append(out, j)
	}
	return out, rows.Err()
}

// CleanupOldJobs deletes postings first seen before now-maxAge.
func (d *DB) CleanupOldJobs(ctx context.Context, maxAge time.Duration) (deleted int64, err error) {
	cutoff := time.Now().UTC().Add(-maxAge).Format("2006-01-02 15:04:05")
	res, err := d.Pool.ExecContext(ctx, `DELETE FROM jobs WHERE created_at < ?;`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup old jobs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func splitEmails(s string) []string {
	out := []string{}
	for _, e := range strings.Split(s, "\n") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}
