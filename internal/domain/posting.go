package domain

import (
	"context"
	"time"
)

// RawPosting is a candidate produced by one source adapter. Snippet is cheap
// (listing card text); Description may be empty and fetched through
// FetchDescription only after the snippet passes the quick language check.
type RawPosting struct {
	Title       string
	Company     string
	Link        string
	Snippet     string
	Description string
	SourceName  string

	FetchDescription func(ctx context.Context) (string, error)
}

// SnippetOrTitle is the text fed to the quick language check.
func (r RawPosting) SnippetOrTitle() string {
	if r.Snippet == "" {
		return r.Title
	}
	if r.Title == "" {
		return r.Snippet
	}
	return r.Title + " " + r.Snippet
}

// HasDetail reports whether a fuller description is available.
func (r RawPosting) HasDetail() bool {
	return r.Description != "" || r.FetchDescription != nil
}

// Posting is the canonical, deduplicated record. Link is the dedup key.
type Posting struct {
	Title    string   `json:"title"`
	Company  string   `json:"company"`
	Location string   `json:"location"`
	Link     string   `json:"link"`
	Emails   []string `json:"emails"`
	Source   string   `json:"source"`
}

type ScanRecord struct {
	Roles     []string  `json:"roles"`
	Location  string    `json:"location"`
	Language  string    `json:"language"`
	JobCount  int       `json:"job_count"`
	Timestamp time.Time `json:"timestamp"`
}
