package report

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"jobagent-engine/internal/domain"
)

func TestRenderWritesWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "Job_Leads.xlsx")
	w := NewWriter(path)
	assert.False(t, w.Exists())

	got, err := w.Render(context.Background(), []domain.Posting{
		{Title: "Frontend\x00 Dev", Company: "Acme", Location: "Berlin", Link: "https://x/1", Emails: []string{"hr@acme.de", "a@acme.de"}, Source: "Indeed"},
		{Title: "Backend", Company: "Beta", Location: "Berlin", Link: "not-a-url", Source: "LinkedIn"},
	})
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
	assert.True(t, w.Exists())

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Title", "Company", "Location", "Link", "Emails", "Source"}, rows[0])
	assert.Equal(t, []string{"Frontend Dev", "Acme", "Berlin", LinkLabel, "hr@acme.de\na@acme.de", "Indeed"}, rows[1])
	assert.Equal(t, "not-a-url", rows[2][3])

	ok, target, err := f.GetCellHyperLink(SheetName, "D2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://x/1", target)

	width, err := f.GetColWidth(SheetName, "A")
	require.NoError(t, err)
	assert.Equal(t, 40.0, width)
}

func TestReadBeforeAndAfterRender(t *testing.T) {
	w := NewWriter(filepath.Join(t.TempDir(), "r.xlsx"))

	_, err := w.Read(context.Background())
	assert.ErrorIs(t, err, ErrNoReport)

	_, err = w.Render(context.Background(), []domain.Posting{{Title: "x", Link: "https://x"}})
	require.NoError(t, err)

	b, err := w.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "PK", string(b[:2]))
}
