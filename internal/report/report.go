// Package report renders postings into the downloadable spreadsheet.
package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/xuri/excelize/v2"

	"jobagent-engine/internal/domain"
	"jobagent-engine/internal/scrape/util"
)

const (
	SheetName = "Job Leads"
	LinkLabel = "OPEN JOB POSTING"
)

// ErrNoReport is returned by Read when nothing has been rendered yet.
var ErrNoReport = errors.New("report not found")

var columns = []struct {
	header string
	width  float64
}{
	{"Title", 40},
	{"Company", 25},
	{"Location", 20},
	{"Link", 25},
	{"Emails", 35},
	{"Source", 15},
}

// Writer owns one report file. Renders and reads are serialized through a
// lock file next to it so a download never sees a half-written workbook.
type Writer struct {
	path string
	lock *flock.Flock
}

func NewWriter(path string) *Writer {
	return &Writer{path: path, lock: flock.New(path + ".lock")}
}

func (w *Writer) Path() string { return w.path }

// Render replaces the report with postings and returns its absolute path.
func (w *Writer) Render(ctx context.Context, postings []domain.Posting) (string, error) {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return "", err
	}
	locked, err := w.lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return "", fmt.Errorf("lock report: %w", err)
	}
	if !locked {
		return "", errors.New("lock report: not acquired")
	}
	defer func() { _ = w.lock.Unlock() }()

	f, err := build(postings)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(w.path), ".report-*.xlsx")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := f.Write(tmp); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		return "", fmt.Errorf("replace report: %w", err)
	}

	abs, err := filepath.Abs(w.path)
	if err != nil {
		return w.path, nil
	}
	return abs, nil
}

// Read returns the current report bytes.
func (w *Writer) Read(ctx context.Context) ([]byte, error) {
	locked, err := w.lock.TryRLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("lock report: %w", err)
	}
	if !locked {
		return nil, errors.New("lock report: not acquired")
	}
	defer func() { _ = w.lock.Unlock() }()

	b, err := os.ReadFile(w.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoReport
	}
	return b, err
}

func (w *Writer) Exists() bool {
	_, err := os.Stat(w.path)
	return err == nil
}

func build(postings []domain.Posting) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		_ = f.Close()
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 12},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"1F4E78"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	bodyStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true},
	})
	linkStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Color: "0563C1", Underline: "single"},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true},
	})

	for i, c := range columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetCellValue(SheetName, col+"1", c.header)
		_ = f.SetColWidth(SheetName, col, col, c.width)
	}
	_ = f.SetCellStyle(SheetName, "A1", "F1", headerStyle)

	for i, p := range postings {
		row := i + 2
		vals := []string{
			p.Title,
			p.Company,
			p.Location,
			p.Link,
			strings.Join(p.Emails, "\n"),
			p.Source,
		}
		for j, v := range vals {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			_ = f.SetCellValue(SheetName, cell, util.StripControl(v))
		}
		first, _ := excelize.CoordinatesToCellName(1, row)
		last, _ := excelize.CoordinatesToCellName(len(columns), row)
		_ = f.SetCellStyle(SheetName, first, last, bodyStyle)

		if strings.HasPrefix(p.Link, "http") {
			cell, _ := excelize.CoordinatesToCellName(4, row)
			_ = f.SetCellValue(SheetName, cell, LinkLabel)
			if err := f.SetCellHyperLink(SheetName, cell, p.Link, "External"); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("hyperlink row %d: %w", row, err)
			}
			_ = f.SetCellStyle(SheetName, cell, cell, linkStyle)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}
