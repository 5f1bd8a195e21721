package report_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/schemini/refsync/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

// 🧪 TestFileName tests the deterministic report naming
func TestFileName(t *testing.T) {
	startedAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	assert.Equal(t, "scan_20260314_092653.log", report.FileName("scan", startedAt))
	assert.Equal(t, "file_add_20260314_092653.log", report.FileName("file_add", startedAt))
}

// 🧪 TestWrite tests rendering and persisting one report
func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	w := &report.Writer{Dir: dir}

	startedAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	name, err := w.Write(testContext(t), "update", startedAt,
		[]report.Detail{
			{Key: "Reference Folder", Value: "/data/ref"},
			{Key: "Target Folder", Value: "/data/tgt"},
		},
		[]string{"Updated A100", "Skipped B200"},
		[]string{"Updated: 1", "Failed: 0"},
	)
	require.NoError(t, err)
	assert.Equal(t, "update_20260314_092653.log", name)

	raw, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	content := string(raw)

	assert.Contains(t, content, "REFSYNC - DETAILED OPERATION REPORT")
	assert.Contains(t, content, "Operation Type: UPDATE")
	assert.Contains(t, content, "Reference Folder: /data/ref")
	assert.Contains(t, content, "Updated A100")
	assert.Contains(t, content, "SUMMARY:")
	assert.Contains(t, content, "Updated: 1")
}

// 🧪 TestWriteNoSummary tests that the summary block is omitted when empty
func TestWriteNoSummary(t *testing.T) {
	w := &report.Writer{Dir: t.TempDir()}

	name, err := w.Write(testContext(t), "scan", time.Now(), nil, []string{"line"}, nil)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(w.Dir, name))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "SUMMARY:")
}
