// =============================================================================
// Order Reports - File Management Utilities
// =============================================================================
//
// File housekeeping for batch runs:
//   - Discovering order exports in the input directory
//   - Naming report files from a filename pattern
//   - Archiving processed exports and written reports
//   - Writing the error log and run summary
//   - Pruning old archives
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager owns the input, output and archive directories of a run.
type FileManager struct {
	InputDir         string
	OutputDir        string
	InputArchiveDir  string
	OutputArchiveDir string

	// UseTimestampSubdirs files archives under YYYY/MM/DD.
	UseTimestampSubdirs bool

	// Now is the clock used for archive paths and log names.
	Now func() time.Time
}

// NewFileManager creates a file manager for the given directories.
func NewFileManager(inputDir, outputDir, inputArchiveDir, outputArchiveDir string) *FileManager {
	return &FileManager{
		InputDir:            inputDir,
		OutputDir:           outputDir,
		InputArchiveDir:     inputArchiveDir,
		OutputArchiveDir:    outputArchiveDir,
		UseTimestampSubdirs: true,
		Now:                 time.Now,
	}
}

// EnsureDirectories creates every directory the run writes to.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.InputDir, fm.OutputDir, fm.InputArchiveDir, fm.OutputArchiveDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DiscoverInputFiles returns the regular files in InputDir matching any of
// patterns, sorted and without duplicates. No patterns means "*.csv" and
// "*.xlsx".
func (fm *FileManager) DiscoverInputFiles(patterns ...string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = []string{"*.csv", "*.xlsx"}
	}

	seen := make(map[string]bool)
	var result []string
	for _, pattern := range patterns {
		files, err := filepath.Glob(filepath.Join(fm.InputDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to scan input directory: %w", err)
		}
		for _, file := range files {
			if seen[file] {
				continue
			}
			info, err := os.Stat(file)
			if err != nil || info.IsDir() {
				continue
			}
			seen[file] = true
			result = append(result, file)
		}
	}

	sort.Strings(result)
	return result, nil
}

// ArchiveInputFile moves a processed export into InputArchiveDir.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	archivePath, err := fm.prepareArchivePath(fm.InputArchiveDir, filePath)
	if err != nil {
		return "", err
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Rename fails across filesystems.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// ArchiveOutputFile copies a written report into OutputArchiveDir.
func (fm *FileManager) ArchiveOutputFile(filePath string) (string, error) {
	archivePath, err := fm.prepareArchivePath(fm.OutputArchiveDir, filePath)
	if err != nil {
		return "", err
	}

	if err := copyFile(filePath, archivePath); err != nil {
		return "", fmt.Errorf("failed to copy file to archive: %w", err)
	}

	return archivePath, nil
}

func (fm *FileManager) prepareArchivePath(archiveDir, filePath string) (string, error) {
	dir := archiveDir
	if fm.UseTimestampSubdirs {
		now := fm.now()
		dir = filepath.Join(archiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
		)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	return filepath.Join(dir, filepath.Base(filePath)), nil
}

func (fm *FileManager) now() time.Time {
	if fm.Now == nil {
		return time.Now()
	}
	return fm.Now()
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// OutputFileName expands a filename pattern. Built-in placeholders are
// {uuid}, {timestamp}, {date} and {time}; params add more, e.g.
// {"report": "supplier_totals"} for {report}. Path separators in values
// are replaced so a name never escapes the output directory. ext is
// appended unless the name already ends with it.
func OutputFileName(pattern string, now time.Time, params map[string]string, ext string) string {
	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	pairs := make([]string, 0, len(replacements)*2)
	for placeholder, value := range replacements {
		pairs = append(pairs, placeholder, sanitizeFileName(value))
	}
	result := strings.NewReplacer(pairs...).Replace(pattern)

	if ext != "" && !strings.HasSuffix(strings.ToLower(result), strings.ToLower(ext)) {
		result += ext
	}

	return result
}

func sanitizeFileName(s string) string {
	return strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(s)
}

// =============================================================================
// ERROR LOG
// =============================================================================

// ErrorLogEntry is one line of the error log.
type ErrorLogEntry struct {
	Timestamp    time.Time
	FileName     string
	ErrorType    string
	ErrorMessage string
	RowNumber    int
	FieldName    string
	FieldValue   string
}

// WriteErrorLog writes entries to error_log_<timestamp>.txt in outputDir.
// It writes nothing and returns "" when there are no entries.
func WriteErrorLog(entries []ErrorLogEntry, outputDir string, now time.Time) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	logPath := filepath.Join(outputDir, fmt.Sprintf("error_log_%s.txt", now.Format("20060102_150405")))

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Order Reports - Error Log\n"+
		"Generated: %s\n"+
		"Total Errors: %d\n"+
		"================================================================================\n\n",
		now.Format("2006-01-02 15:04:05"), len(entries))

	for i, entry := range entries {
		fmt.Fprintf(writer, "Error #%d\n"+
			"  Timestamp:      %s\n"+
			"  File:           %s\n"+
			"  Error Type:     %s\n"+
			"  Message:        %s\n",
			i+1,
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.FileName,
			entry.ErrorType,
			entry.ErrorMessage)

		if entry.RowNumber > 0 {
			fmt.Fprintf(writer, "  Row Number:     %d\n", entry.RowNumber)
		}
		if entry.FieldName != "" {
			fmt.Fprintf(writer, "  Field:          %s\n", entry.FieldName)
		}
		if entry.FieldValue != "" {
			fmt.Fprintf(writer, "  Value:          %s\n", entry.FieldValue)
		}
		writer.WriteString("\n")
	}

	writer.WriteString("================================================================================\n" +
		"End of Error Log\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}

	return logPath, nil
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// RunSummary summarises a batch run.
type RunSummary struct {
	StartTime       time.Time
	EndTime         time.Time
	TotalFiles      int
	SuccessfulFiles int
	FailedFiles     int
	TotalEntries    int
	TotalOrders     int
	ReportsWritten  int
	Processed       []ProcessedFileInfo
	Failed          []FailedFileInfo
}

// ProcessedFileInfo describes one successfully processed export.
type ProcessedFileInfo struct {
	InputFile   string
	OutputFiles []string
	ArchivePath string
	Entries     int
	Orders      int
	ProcessTime time.Duration
}

// FailedFileInfo describes one export that failed.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
}

// WriteSummaryLog writes processing_summary_<timestamp>.txt in outputDir.
func WriteSummaryLog(summary RunSummary, outputDir string) (string, error) {
	summaryPath := filepath.Join(outputDir,
		fmt.Sprintf("processing_summary_%s.txt", summary.EndTime.Format("20060102_150405")))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Order Reports - Processing Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Start Time:      %s\n"+
		"  End Time:        %s\n"+
		"  Duration:        %s\n\n"+
		"Statistics:\n"+
		"  Total Files:     %d\n"+
		"  Successful:      %d\n"+
		"  Failed:          %d\n"+
		"  Line Items:      %d\n"+
		"  Orders:          %d\n"+
		"  Reports Written: %d\n\n",
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		summary.TotalFiles,
		summary.SuccessfulFiles,
		summary.FailedFiles,
		summary.TotalEntries,
		summary.TotalOrders,
		summary.ReportsWritten)

	if len(summary.Processed) > 0 {
		writer.WriteString("Successful Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, pf := range summary.Processed {
			fmt.Fprintf(writer, "  Input:        %s\n", pf.InputFile)
			for _, out := range pf.OutputFiles {
				fmt.Fprintf(writer, "  Output:       %s\n", out)
			}
			if pf.ArchivePath != "" {
				fmt.Fprintf(writer, "  Archived to:  %s\n", pf.ArchivePath)
			}
			fmt.Fprintf(writer, "  Line Items:   %d\n", pf.Entries)
			fmt.Fprintf(writer, "  Orders:       %d\n", pf.Orders)
			fmt.Fprintf(writer, "  Process Time: %s\n\n", pf.ProcessTime.String())
		}
	}

	if len(summary.Failed) > 0 {
		writer.WriteString("Failed Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, ff := range summary.Failed {
			fmt.Fprintf(writer, "  File:  %s\n", ff.InputFile)
			fmt.Fprintf(writer, "  Error: %s\n\n", ff.ErrorMessage)
		}
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// WriteAtomic writes path through write. Output goes to a temporary file
// next to path that is renamed into place only after write and Close both
// succeed, so a failed write never leaves a truncated file behind.
func WriteAtomic(path string, write func(w io.Writer) error) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// CleanOldArchives removes files under archiveDir last modified before
// now-maxAge. A missing archive directory is not an error.
func CleanOldArchives(archiveDir string, maxAge time.Duration, now time.Time) (int, error) {
	if _, err := os.Stat(archiveDir); os.IsNotExist(err) {
		return 0, nil
	}

	cutoff := now.Add(-maxAge)
	removed := 0

	err := filepath.Walk(archiveDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("failed to clean archives: %w", err)
	}

	return removed, nil
}
