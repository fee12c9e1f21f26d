package store

import (
	"context"
	"fmt"
	"strings"

	"jobagent-engine/internal/domain"
)

type Stats struct {
	TotalJobs  int `json:"total_jobs"`
	TotalScans int `json:"total_scans"`
}

type Scan struct {
	ID        int64  `json:"id"`
	Roles     string `json:"roles"`
	Location  string `json:"location"`
	Language  string `json:"language"`
	JobCount  int    `json:"job_count"`
	Timestamp string `json:"timestamp"`
}

func (d *DB) LogScan(ctx context.Context, rec domain.ScanRecord) error {
	ts := rec.Timestamp.UTC().Format("2006-01-02 15:04:05")
	_, err := d.Pool.ExecContext(ctx, `
INSERT INTO scans (roles, location, language, job_count, timestamp)
VALUES (?, ?, ?, ?, ?);`,
		strings.Join(rec.Roles, ", "), rec.Location, rec.Language, rec.JobCount, ts)
	if err != nil {
		return fmt.Errorf("log scan: %w", err)
	}
	return nil
}

func (d *DB) RecentScans(ctx context.Context, limit int) ([]Scan, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.Pool.QueryContext(ctx, `
SELECT id, roles, location, language, job_count, timestamp
FROM scans ORDER BY id DESC LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Scan{}
	for rows.Next() {
		var s Scan
		if err := rows.Scan(&s.ID, &s.Roles, &s.Location, &s.Language, &s.JobCount, &s.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (d *DB) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	if err := d.Pool.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs;`).Scan(&s.TotalJobs); err != nil {
		return Stats{}, err
	}
	if err := d.Pool.QueryRowContext(ctx, `SELECT COUNT(*) FROM scans;`).Scan(&s.TotalScans); err != nil {
		return Stats{}, err
	}
	return s, nil
}
