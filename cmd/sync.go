package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/robfig/cron/v3"

	"github.com/criteo/biosync/pkg/biosync"
	"github.com/criteo/biosync/pkg/extract"
	"github.com/criteo/biosync/pkg/utils"
	"github.com/criteo/biosync/pkg/vendors/asus"
)

// Below this much free space a BIOS download is likely to fail midway.
const minFreeSpace = 1 << 30

func runSync(ctx context.Context, g GlobalFlags, flags SyncFlags) biosync.Report {
	models := loadModels(g)

	if free, err := utils.FreeSpace(g.DownloadPath); err != nil {
		slog.Warn("Failed to check free space", "dir", g.DownloadPath, "error", err)
	} else if free < minFreeSpace {
		slog.Warn("Low free space on download directory", "dir", g.DownloadPath, "free_bytes", free)
	}

	engine := biosync.NewEngine(biosync.Config{
		DownloadDir:     g.DownloadPath,
		DownloadTimeout: flags.Timeout,
		PollInterval:    flags.PollInterval,
	}, asus.NewASUSVendor(g.Chromedriver, flags.Headless), extract.NewZipExtractor())

	journal, err := biosync.NewJournalWriter(filepath.Join(g.Logs, "outcomes.jsonl"))
	if err != nil {
		slog.Error("Failed to open outcome journal", "error", err)
	} else {
		defer journal.Close()
	}

	total := len(models)
	fmt.Printf("Total models to process: %d\n", total)
	engine.OnStart(func(m biosync.Model, step, total int) {
		fmt.Printf("[%d/%d] Processing: %s\n", step, total, m)
	})
	engine.OnProgress(func(o biosync.Outcome, s biosync.Stats) {
		fmt.Printf("[%d/%d] %s\n", s.Processed, total, o)
		if journal != nil {
			if err := journal.Write(o); err != nil {
				slog.Error("Failed to write outcome journal", "error", err)
			}
		}
	})

	report := engine.Run(ctx, models)

	if report.Cancelled {
		fmt.Println("Stopped by user")
	}
	fmt.Printf("Processing complete! Success: %d, Failed: %d (no update: %d, timeout: %d, error: %d)\n",
		report.Stats.Success, report.Stats.Failed,
		report.Stats.NoUpdate, report.Stats.Timeout, report.Stats.Errors,
	)

	if flags.MetricsFile != "" {
		if err := biosync.WriteMetrics(flags.MetricsFile, report); err != nil {
			slog.Error("Failed to write metrics", "path", flags.MetricsFile, "error", err)
		}
	}
	return report
}

func runWatch(ctx context.Context, g GlobalFlags, flags SyncFlags, schedule string, runOnStart bool) {
	logger := cronLogger{slog.With("component", "scheduler")}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	job := cron.FuncJob(func() {
		if ctx.Err() != nil {
			return
		}
		runSync(ctx, g, flags)
	})

	if _, err := c.AddJob(schedule, job); err != nil {
		slog.Error("Invalid schedule", "schedule", schedule, "error", err)
		return
	}

	if runOnStart {
		runSync(ctx, g, flags)
	}

	c.Start()
	for _, entry := range c.Entries() {
		slog.Info("Waiting for next scheduled sync", "schedule", schedule, "next", entry.Next)
	}

	<-ctx.Done()
	slog.Info("Shutdown requested, waiting for the running sync to finish")
	<-c.Stop().Done()
}

// cronLogger routes scheduler logs to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
