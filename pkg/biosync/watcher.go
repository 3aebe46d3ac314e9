package biosync

import (
	"context"
	"errors"
	"time"

	"github.com/criteo/biosync/pkg/utils"
)

const (
	DefaultDownloadTimeout = 60 * time.Second
	DefaultPollInterval    = time.Second
)

var ErrDownloadTimeout = errors.New("download did not complete in time")

// Watcher waits for a triggered download to show up on disk.
type Watcher struct {
	Timeout  time.Duration
	Interval time.Duration
}

// Await polls for path until it exists, the timeout elapses or ctx is
// cancelled. It returns nil when the file was found, ErrDownloadTimeout on
// timeout and ctx.Err() on cancellation. Cancellation is checked before every
// sleep, so the total wait never exceeds Timeout plus one Interval.
func (w Watcher) Await(ctx context.Context, path string) error {
	timeout, interval := w.Timeout, w.Interval
	if timeout <= 0 {
		timeout = DefaultDownloadTimeout
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	start := time.Now()
	for {
		if utils.FileExists(path) {
			return nil
		}
		if time.Since(start) >= timeout {
			return ErrDownloadTimeout
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
