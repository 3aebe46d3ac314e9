package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// setupLogger sends logs to stderr and to <logsDir>/bios.log. When the log
// file cannot be opened, stderr is still configured and the error returned.
// The returned function is always safe to call.
func setupLogger(logsDir, level string) (func(), error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))

	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return func() {}, fmt.Errorf("create logs directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(logsDir, "bios.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return func() {}, fmt.Errorf("open log file: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(io.MultiWriter(os.Stderr, f), opts)))
	return func() { f.Close() }, nil
}
