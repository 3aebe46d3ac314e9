package biosync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

var ErrNoNewerFirmware = errors.New("no newer firmware found after extraction")

type Config struct {
	DownloadDir     string
	DownloadTimeout time.Duration
	PollInterval    time.Duration
}

// Engine brings the local firmware archive up to date, one model at a time.
type Engine struct {
	Config    Config
	source    Source
	extractor Extractor
	progress  ProgressFunc
	start     StartFunc
}

func NewEngine(config Config, source Source, extractor Extractor) *Engine {
	return &Engine{
		Config:    config,
		source:    source,
		extractor: extractor,
	}
}

// OnStart registers the callback invoked before each model is processed.
func (e *Engine) OnStart(fn StartFunc) {
	e.start = fn
}

// OnProgress registers the callback invoked after each model is finalized.
// The callback runs on the engine goroutine and must not block.
func (e *Engine) OnProgress(fn ProgressFunc) {
	e.progress = fn
}

// Run processes models in order and returns the run report. A failing model
// never stops the batch. Cancelling ctx prevents further models from
// starting; outcomes already produced are kept in the report.
func (e *Engine) Run(ctx context.Context, models []Model) Report {
	report := Report{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
		Outcomes:  make([]Outcome, 0, len(models)),
	}
	logger := slog.With("run", report.RunID.String())

	if err := os.MkdirAll(e.Config.DownloadDir, 0755); err != nil {
		logger.Warn("Failed to create download directory", "dir", e.Config.DownloadDir, "error", err)
	}

	logger.Info("Starting firmware sync", "models", len(models), "dir", e.Config.DownloadDir)

	for i, model := range models {
		if ctx.Err() != nil {
			logger.Info("Shutdown requested, stopping processing", "remaining", len(models)-i)
			report.Cancelled = true
			break
		}

		modelLogger := logger.With("model", model.String(), "step", fmt.Sprintf("%d/%d", i+1, len(models)))
		modelLogger.Info("Processing model")
		if e.start != nil {
			e.start(model, i+1, len(models))
		}

		outcome := e.processModel(ctx, modelLogger, model)
		outcome.RunID = report.RunID
		report.Stats.record(outcome)
		report.Outcomes = append(report.Outcomes, outcome)

		if outcome.Status == StatusSuccess {
			modelLogger.Info("Firmware updated", "before", outcome.Before, "after", outcome.After)
		} else {
			modelLogger.Warn("Firmware not updated", "status", outcome.Status, "detail", outcome.Detail)
		}

		if e.progress != nil {
			e.progress(outcome, report.Stats)
		}
	}

	// A model interrupted mid-wait still ends the run as cancelled.
	if ctx.Err() != nil {
		report.Cancelled = true
	}

	report.FinishedAt = time.Now()
	logger.Info("Completed firmware sync",
		"processed", report.Stats.Processed,
		"success", report.Stats.Success,
		"failed", report.Stats.Failed,
		"cancelled", report.Cancelled,
	)
	return report
}

func (e *Engine) processModel(ctx context.Context, logger *slog.Logger, model Model) (outcome Outcome) {
	start := time.Now()
	outcome = Outcome{Model: model, Before: NoVersion, After: NoVersion}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Recovered from panic while processing model", "panic", r)
			outcome.Status = StatusError
			outcome.Detail = fmt.Sprintf("panic: %v", r)
		}
		outcome.Duration = time.Since(start)
	}()

	dir := e.Config.DownloadDir

	before, err := e.localVersion(logger, model)
	if err != nil {
		return finish(outcome, StatusError, "resolve local version: %v", err)
	}
	outcome.Before = before
	outcome.After = before

	release, err := e.source.CheckForUpdate(ctx, model)
	if err != nil {
		return finish(outcome, StatusError, "remote check failed: %v", err)
	}
	defer release.release()

	if release == nil {
		return finish(outcome, StatusNoUpdate, "no firmware published")
	}
	if release.Version <= before {
		logger.Info("No new firmware version available", "local", before, "remote", release.Version)
		return finish(outcome, StatusNoUpdate, "no newer firmware (local %s, remote %s)", before, release.Version)
	}
	if release.Trigger == nil {
		return finish(outcome, StatusError, "release %s has no download trigger", release.Version)
	}

	logger.Info("New firmware version available", "local", before, "remote", release.Version)

	archive := filepath.Join(dir, release.ArchiveName())
	if err := release.Trigger(ctx, dir); err != nil {
		return finish(outcome, StatusError, "trigger download: %v", err)
	}

	watcher := Watcher{Timeout: e.Config.DownloadTimeout, Interval: e.Config.PollInterval}
	logger.Info("Waiting for download", "archive", archive)
	if err := watcher.Await(ctx, archive); err != nil {
		if errors.Is(err, ErrDownloadTimeout) {
			return finish(outcome, StatusTimeout, "%s not found: %v", filepath.Base(archive), err)
		}
		return finish(outcome, StatusError, "waiting for download cancelled: %v", err)
	}

	logger.Info("Extracting firmware archive", "archive", archive)
	if err := e.extractor.Extract(archive, dir); err != nil {
		// The archive stays in place for manual recovery.
		return finish(outcome, StatusError, "extract %s: %v", filepath.Base(archive), err)
	}
	if err := os.Remove(archive); err != nil {
		logger.Warn("Failed to remove firmware archive", "archive", archive, "error", err)
	} else {
		logger.Info("Removed firmware archive", "archive", archive)
	}

	after, err := e.localVersion(logger, model)
	if err != nil {
		return finish(outcome, StatusError, "resolve local version after extraction: %v", err)
	}
	outcome.After = after

	if !outcome.Succeeded() {
		return finish(outcome, StatusError, "%v (expected %s, found %s)", ErrNoNewerFirmware, release.Version, after)
	}
	return finish(outcome, StatusSuccess, "")
}

// localVersion treats a missing download directory as "no firmware yet".
func (e *Engine) localVersion(logger *slog.Logger, model Model) (Version, error) {
	v, err := ResolveVersion(e.Config.DownloadDir, model)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, ErrNotDirectory) {
		logger.Warn("Firmware directory not found", "dir", e.Config.DownloadDir, "error", err)
		return NoVersion, nil
	}
	return v, err
}

func finish(o Outcome, status Status, format string, args ...any) Outcome {
	o.Status = status
	if format != "" {
		o.Detail = fmt.Sprintf(format, args...)
	}
	return o
}
