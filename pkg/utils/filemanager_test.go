package utils

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 9, 14, 30, 5, 0, time.UTC)

func newTestManager(t *testing.T) *FileManager {
	t.Helper()
	root := t.TempDir()
	fm := NewFileManager(
		filepath.Join(root, "input"),
		filepath.Join(root, "output"),
		filepath.Join(root, "input_archive"),
		filepath.Join(root, "output_archive"),
	)
	fm.Now = func() time.Time { return fixedNow }
	require.NoError(t, fm.EnsureDirectories())
	return fm
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestDiscoverInputFiles(t *testing.T) {
	fm := newTestManager(t)
	touch(t, filepath.Join(fm.InputDir, "b.csv"))
	touch(t, filepath.Join(fm.InputDir, "a.xlsx"))
	touch(t, filepath.Join(fm.InputDir, "notes.txt"))
	require.NoError(t, os.Mkdir(filepath.Join(fm.InputDir, "dir.csv"), 0o755))

	files, err := fm.DiscoverInputFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(fm.InputDir, "a.xlsx"),
		filepath.Join(fm.InputDir, "b.csv"),
	}, files)

	files, err = fm.DiscoverInputFiles("*.csv", "b.*")
	require.NoError(t, err)
	assert.Len(t, files, 1, "duplicates are dropped")
}

func TestArchiveFiles(t *testing.T) {
	fm := newTestManager(t)
	input := filepath.Join(fm.InputDir, "orders.csv")
	touch(t, input)

	archived, err := fm.ArchiveInputFile(input)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fm.InputArchiveDir, "2024", "03", "09", "orders.csv"), archived)
	assert.NoFileExists(t, input)
	assert.FileExists(t, archived)

	output := filepath.Join(fm.OutputDir, "report.csv")
	touch(t, output)
	copied, err := fm.ArchiveOutputFile(output)
	require.NoError(t, err)
	assert.FileExists(t, output, "outputs are copied, not moved")
	assert.FileExists(t, copied)
}

func TestOutputFileName(t *testing.T) {
	name := OutputFileName("{report}_{source}_{timestamp}", fixedNow,
		map[string]string{"report": "supplier_totals", "source": "orders"}, ".csv")
	assert.Equal(t, "supplier_totals_orders_20240309_143005.csv", name)

	name = OutputFileName("{source}-{uuid}.xml", fixedNow, map[string]string{"source": "../etc/x"}, ".xml")
	assert.Regexp(t, regexp.MustCompile(`^__etc_x-[0-9a-f-]{36}\.xml$`), name)
}

func TestWriteLogs(t *testing.T) {
	fm := newTestManager(t)

	path, err := WriteErrorLog(nil, fm.OutputDir, fixedNow)
	require.NoError(t, err)
	assert.Empty(t, path)

	path, err = WriteErrorLog([]ErrorLogEntry{{
		Timestamp: fixedNow, FileName: "orders.csv", ErrorType: "validation",
		ErrorMessage: "not a number", RowNumber: 4, FieldName: "quantity", FieldValue: "two",
	}}, fm.OutputDir, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "error_log_20240309_143005.txt", filepath.Base(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Row Number:     4")
	assert.Contains(t, string(data), "Value:          two")

	summaryPath, err := WriteSummaryLog(RunSummary{
		StartTime: fixedNow.Add(-time.Minute), EndTime: fixedNow,
		TotalFiles: 2, SuccessfulFiles: 1, FailedFiles: 1,
		Processed: []ProcessedFileInfo{{InputFile: "a.csv", OutputFiles: []string{"r1.csv", "r2.csv"}}},
		Failed:    []FailedFileInfo{{InputFile: "b.csv", ErrorMessage: "boom"}},
	}, fm.OutputDir)
	require.NoError(t, err)
	data, err = os.ReadFile(summaryPath)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Duration:        1m0s")
	assert.Equal(t, 2, strings.Count(text, "Output:"))
	assert.Contains(t, text, "Error: boom")
}

func TestCleanOldArchives(t *testing.T) {
	fm := newTestManager(t)
	old := filepath.Join(fm.OutputArchiveDir, "old.csv")
	fresh := filepath.Join(fm.OutputArchiveDir, "fresh.csv")
	touch(t, old)
	touch(t, fresh)
	require.NoError(t, os.Chtimes(old, fixedNow.AddDate(0, 0, -40), fixedNow.AddDate(0, 0, -40)))
	require.NoError(t, os.Chtimes(fresh, fixedNow.AddDate(0, 0, -1), fixedNow.AddDate(0, 0, -1)))

	removed, err := CleanOldArchives(fm.OutputArchiveDir, 30*24*time.Hour, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)

	removed, err = CleanOldArchives(filepath.Join(fm.OutputArchiveDir, "missing"), time.Hour, fixedNow)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestWriteAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")

	err := WriteAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "a,b\n")
		return err
	})
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))

	errRender := errors.New("render failed")
	err = WriteAtomic(path, func(w io.Writer) error {
		io.WriteString(w, "partial")
		return errRender
	})
	assert.ErrorIs(t, err, errRender)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data), "existing file is left alone")
	assert.NoFileExists(t, path+".tmp")

	missing := filepath.Join(t.TempDir(), "new.csv")
	err = WriteAtomic(missing, func(w io.Writer) error { return errRender })
	assert.ErrorIs(t, err, errRender)
	assert.NoFileExists(t, missing)
	assert.NoFileExists(t, missing+".tmp")
}
