package biosync

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteMetrics(t *testing.T) {
	t.Run("WritesTextfile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "biosync.prom")
		start := time.Date(2026, 10, 19, 3, 0, 0, 0, time.UTC)
		report := Report{
			StartedAt:  start,
			FinishedAt: start.Add(90 * time.Second),
			Stats:      Stats{Processed: 3, Success: 1, Failed: 2, NoUpdate: 1, Timeout: 1},
			Outcomes: []Outcome{
				{Model: "tn3604ya", Before: 300, After: 301, Status: StatusSuccess},
				{Model: "ux3405ma", Before: 310, After: 310, Status: StatusNoUpdate},
				{Model: "b9403cva", Before: NoVersion, After: NoVersion, Status: StatusTimeout},
			},
		}

		require.NoError(t, WriteMetrics(path, report))

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		text := string(content)

		assert.Contains(t, text, "biosync_models_processed 3")
		assert.Contains(t, text, "biosync_models_succeeded 1")
		assert.Contains(t, text, "biosync_models_failed 2")
		assert.Contains(t, text, "biosync_last_run_duration_seconds 90")
		assert.Contains(t, text, "biosync_last_run_cancelled 0")
		assert.Contains(t, text, `biosync_outcomes{status="no-update"} 1`)
		assert.Contains(t, text, `biosync_outcomes{status="timeout"} 1`)
		assert.Contains(t, text, `biosync_firmware_version{model="tn3604ya"} 301`)
		assert.Contains(t, text, `biosync_firmware_version{model="ux3405ma"} 310`)
		assert.NotContains(t, text, `model="b9403cva"`, "Unknown versions should not be exported")
	})

	t.Run("MissingDirectory", func(t *testing.T) {
		err := WriteMetrics(filepath.Join(t.TempDir(), "missing", "biosync.prom"), Report{})

		assert.Error(t, err)
	})
}
