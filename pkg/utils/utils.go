package utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
)

const maxRetries = 3

// RetryDelay is the base backoff; attempt n waits n times this long.
var RetryDelay = time.Second

// Retry calls fn until it succeeds, up to maxRetries extra attempts, with a
// linear backoff between attempts. It gives up early when ctx is done.
func Retry(ctx context.Context, fn func() error) error {
	var err error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == maxRetries {
			break
		}
		if ctx.Err() != nil {
			return fmt.Errorf("gave up after %d attempts: %w", attempt+1, err)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("gave up after %d attempts: %w", attempt+1, err)
		case <-time.After(time.Duration(attempt+1) * RetryDelay):
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", maxRetries+1, err)
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// FreeSpace returns the number of bytes available on the filesystem holding
// path. The nearest existing parent is used when path does not exist yet.
func FreeSpace(path string) (uint64, error) {
	for {
		if _, err := os.Stat(path); err == nil {
			break
		}
		parent := filepath.Dir(path)
		if parent == path {
			break
		}
		path = parent
	}

	usage, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}
