package utils

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry(t *testing.T) {
	RetryDelay = time.Millisecond

	t.Run("SucceedsFirstTime", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), func() error {
			calls++
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("SucceedsAfterFailures", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return errors.New("net::ERR_CONNECTION_RESET")
			}
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("GivesUp", func(t *testing.T) {
		calls := 0
		cause := errors.New("net::ERR_NAME_NOT_RESOLVED")
		err := Retry(context.Background(), func() error {
			calls++
			return cause
		})

		assert.ErrorIs(t, err, cause, "Last error should be wrapped")
		assert.Equal(t, maxRetries+1, calls)
	})

	t.Run("StopsWhenCancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := Retry(ctx, func() error {
			calls++
			cancel()
			return errors.New("timeout")
		})

		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "TN3604YA.301")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(dir), "Directories are not files")
	assert.False(t, FileExists(filepath.Join(dir, "missing")))
}

func TestFreeSpace(t *testing.T) {
	t.Run("ExistingDirectory", func(t *testing.T) {
		free, err := FreeSpace(t.TempDir())

		require.NoError(t, err)
		assert.Greater(t, free, uint64(0))
	})

	t.Run("NotYetCreated", func(t *testing.T) {
		free, err := FreeSpace(filepath.Join(t.TempDir(), "bios", "downloads"))

		require.NoError(t, err, "Should fall back to the nearest existing parent")
		assert.Greater(t, free, uint64(0))
	})
}
