package biosync

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_Await(t *testing.T) {
	t.Run("FileAlreadyPresent", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "TN3604YAAS301.zip")
		require.NoError(t, os.WriteFile(path, nil, 0644))

		start := time.Now()
		err := Watcher{Timeout: time.Second, Interval: 100 * time.Millisecond}.Await(context.Background(), path)

		assert.NoError(t, err)
		assert.Less(t, time.Since(start), 100*time.Millisecond, "Should return without sleeping")
	})

	t.Run("FileAppearsLater", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "TN3604YAAS301.zip")
		go func() {
			time.Sleep(50 * time.Millisecond)
			os.WriteFile(path, nil, 0644)
		}()

		err := Watcher{Timeout: 2 * time.Second, Interval: 10 * time.Millisecond}.Await(context.Background(), path)

		assert.NoError(t, err)
	})

	t.Run("TimeoutBounds", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "never.zip")
		timeout := 200 * time.Millisecond
		interval := 50 * time.Millisecond

		start := time.Now()
		err := Watcher{Timeout: timeout, Interval: interval}.Await(context.Background(), path)
		elapsed := time.Since(start)

		assert.ErrorIs(t, err, ErrDownloadTimeout)
		assert.GreaterOrEqual(t, elapsed, timeout, "Should not give up before the timeout")
		// Allow some scheduling slack on top of the documented bound.
		assert.Less(t, elapsed, timeout+interval+100*time.Millisecond, "Should not wait past timeout plus one interval")
	})

	t.Run("Cancelled", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "never.zip")
		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(30*time.Millisecond, cancel)

		start := time.Now()
		err := Watcher{Timeout: 10 * time.Second, Interval: 20 * time.Millisecond}.Await(ctx, path)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("AlreadyCancelledStillChecksOnce", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "TN3604YAAS301.zip")
		require.NoError(t, os.WriteFile(path, nil, 0644))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := Watcher{}.Await(ctx, path)

		assert.NoError(t, err, "An archive already on disk is found even after cancellation")
	})
}
