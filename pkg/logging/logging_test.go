package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestSetup_ConsoleAndFile(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var console bytes.Buffer
	logFile := filepath.Join(t.TempDir(), "logs", "reports.log")

	logger, closeFn, err := Setup(Options{Level: "warn", File: logFile, Console: &console, NoColor: true})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.With("report", "supplier_totals").Warn("slow build", "rows", 3)
	require.NoError(t, closeFn())

	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), "slow build")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	assert.Equal(t, "slow build", record["msg"])
	assert.Equal(t, "supplier_totals", record["report"])
	assert.EqualValues(t, 3, record["rows"])
}

func TestSetup_EnvAndVerbose(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var console bytes.Buffer
	t.Setenv("LOG_LEVEL", "error")
	logger, _, err := Setup(Options{Level: "debug", Console: &console, NoColor: true})
	require.NoError(t, err)
	logger.Warn("suppressed")
	assert.Empty(t, console.String())

	logger, _, err = Setup(Options{Verbose: true, Console: &console, NoColor: true})
	require.NoError(t, err)
	logger.Debug("shown")
	assert.Contains(t, console.String(), "shown")
}
