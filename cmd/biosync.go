package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/criteo/biosync/pkg/biosync"
)

type GlobalFlags struct {
	Config       kong.ConfigFlag `help:"Configuration file (JSON or YAML)." short:"c"`
	Chromedriver string          `help:"Path to the Chrome or Chromium binary used to browse the vendor site. Looked up in PATH when empty." type:"path"`
	ModelList    string          `help:"Model list file. The model ID is the second whitespace-separated column of each line." default:"model_list.txt" type:"path"`
	Logs         string          `help:"Directory receiving bios.log and outcomes.jsonl." default:"logs" type:"path"`
	DownloadPath string          `help:"Directory holding the local BIOS archive." default:"BIOS" type:"path"`
	LogLevel     string          `help:"Minimum log level." default:"info" enum:"debug,info,warn,error"`
}

type SyncFlags struct {
	Timeout      time.Duration `help:"How long to wait for a triggered download to appear." default:"60s"`
	PollInterval time.Duration `help:"How often to look for the downloaded archive." default:"1s"`
	Headless     bool          `help:"Run the browser without a window." default:"true" negatable:""`
	MetricsFile  string        `help:"Write run metrics in Prometheus text format to this file (node_exporter textfile collector)." type:"path"`
}

var args struct {
	GlobalFlags `embed:""`

	Sync struct {
		SyncFlags `embed:""`
	} `cmd:"" help:"Download the newest BIOS of every listed model that is newer than the local copy."`
	Watch struct {
		SyncFlags  `embed:""`
		Schedule   string `help:"Cron schedule of the sync runs (5 fields or descriptors such as @daily)." default:"@daily"`
		RunOnStart bool   `help:"Run a sync immediately instead of waiting for the first scheduled time."`
	} `cmd:"" help:"Keep running and sync on a schedule. Runs never overlap."`
	Models struct {
	} `cmd:"" help:"List the models read from the model list."`
	Status struct {
	} `cmd:"" help:"Show the BIOS version held locally for every listed model."`
}

func main() {
	cli := kong.Parse(&args,
		kong.Name("biosync"),
		kong.Description("Keep a local archive of ASUS BIOS images up to date."),
		kong.Configuration(loadConfig, "config.json", "config.yaml"),
	)

	closeLog, err := setupLogger(args.Logs, args.LogLevel)
	if err != nil {
		slog.Warn("Logging to stderr only", "error", err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cli.Command() {
	case "sync":
		runSync(ctx, args.GlobalFlags, args.Sync.SyncFlags)
	case "watch":
		runWatch(ctx, args.GlobalFlags, args.Watch.SyncFlags, args.Watch.Schedule, args.Watch.RunOnStart)
	case "models":
		listModels(args.GlobalFlags)
	case "status":
		showStatus(args.GlobalFlags)
	default:
		panic(cli.Command())
	}
}

func loadModels(g GlobalFlags) []biosync.Model {
	models, err := biosync.LoadCatalog(g.ModelList)
	if err != nil {
		slog.Error("Failed to load model list", "path", g.ModelList, "error", err)
	}
	return models
}

func listModels(g GlobalFlags) {
	models := loadModels(g)
	for i, m := range models {
		fmt.Printf("%3d. %s\n", i+1, m)
	}
	fmt.Printf("Models: %d\n", len(models))
}

func showStatus(g GlobalFlags) {
	for _, m := range loadModels(g) {
		version, err := biosync.ResolveVersion(g.DownloadPath, m)
		if err != nil {
			slog.Warn("Failed to resolve local version", "model", m.String(), "error", err)
		}
		fmt.Printf("%-20s %s\n", m, version)
	}
}
