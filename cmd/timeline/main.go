package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/sandeepkv93/timeline/internal/alerts"
	"github.com/sandeepkv93/timeline/internal/config"
	"github.com/sandeepkv93/timeline/internal/logging"
	"github.com/sandeepkv93/timeline/internal/model"
	"github.com/sandeepkv93/timeline/internal/scheduler"
	"github.com/sandeepkv93/timeline/internal/storage"
	"github.com/sandeepkv93/timeline/internal/taskfile"
	"github.com/sandeepkv93/timeline/internal/update"
)

// Version information set via ldflags
var version = "dev"

type options struct {
	configPath  string
	dbPath      string
	importPath  string
	exportPath  string
	logLevel    string
	bulkPolicy  string
	showVersion bool
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if opts.showVersion {
		fmt.Fprintf(stdout, "timeline %s\n", version)
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "timeline: %v\n", err)
		return 1
	}
	applyFlags(&cfg, opts)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "timeline: %v\n", err)
		return 1
	}

	interactive := opts.importPath == "" && opts.exportPath == ""
	logger, closer, err := newLogger(cfg, interactive, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "timeline: %v\n", err)
		return 1
	}
	if closer != nil {
		defer closer.Close()
	}

	repo, err := storage.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Error("open database", "path", cfg.DBPath, "err", err)
		fmt.Fprintf(stderr, "timeline: %v\n", err)
		return 1
	}
	defer repo.Close()

	coll, err := storage.LoadCollection(ctx, repo)
	if err != nil {
		fmt.Fprintf(stderr, "timeline: %v\n", err)
		return 1
	}
	engine := scheduler.NewEngine(coll.Snapshot, coll.Commit,
		scheduler.WithLogger(logger),
		scheduler.WithDefaultDuration(cfg.DefaultDuration()),
		scheduler.WithBulkPolicy(cfg.Policy()),
	)

	switch {
	case opts.importPath != "":
		return runImport(engine, opts.importPath, stdout, stderr)
	case opts.exportPath != "":
		if err := taskfile.WriteFile(opts.exportPath, engine.Tasks()); err != nil {
			fmt.Fprintf(stderr, "timeline: export: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "exported %d task(s) to %s\n", len(engine.Tasks()), opts.exportPath)
		return 0
	}

	modelOpts := update.Options{
		Logger:         logger,
		DesktopEnabled: cfg.DesktopNotifications,
	}
	if cfg.DesktopNotifications {
		modelOpts.Notifier = update.ExecDesktopNotifier{}
	}
	if cfg.Alerts {
		dispatcher := startAlerts(coll, cfg, logger)
		defer stopAlerts(dispatcher, logger)
		modelOpts.Alerts = dispatcher.C()
	}

	program := tea.NewProgram(update.NewModel(engine, modelOpts), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(stderr, "timeline failed: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("timeline", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "path to config.toml")
	fs.StringVar(&opts.dbPath, "db", "", "path to the sqlite database")
	fs.StringVar(&opts.importPath, "import", "", "import tasks from a JSON task file and exit")
	fs.StringVar(&opts.exportPath, "export", "", "export tasks to a JSON task file and exit")
	fs.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&opts.bulkPolicy, "policy", "", "bulk import policy: strict or tolerant")
	fs.BoolVar(&opts.showVersion, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.importPath != "" && opts.exportPath != "" {
		fmt.Fprintln(stderr, "timeline: -import and -export are mutually exclusive")
		return options{}, errors.New("conflicting flags")
	}
	return opts, nil
}

func applyFlags(cfg *config.Config, opts options) {
	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.bulkPolicy != "" {
		cfg.BulkPolicy = opts.bulkPolicy
	}
}

// newLogger keeps the terminal clean while the TUI owns it: interactive runs
// log to log_file or nowhere.
func newLogger(cfg config.Config, interactive bool, stderr io.Writer) (*log.Logger, io.Closer, error) {
	if cfg.LogFile != "" {
		return logging.OpenFile(cfg.LogFile, cfg.Logging())
	}
	if interactive {
		return logging.Discard(), nil, nil
	}
	return logging.New(stderr, cfg.Logging()), nil, nil
}

func runImport(engine *scheduler.Engine, path string, stdout, stderr io.Writer) int {
	items, err := taskfile.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "timeline: import: %v\n", err)
		return 1
	}
	res, err := engine.AddBulkTasks(items)
	if err != nil {
		fmt.Fprintf(stderr, "timeline: import: %v\n", err)
		return 1
	}
	for _, item := range res.Items {
		if len(item.Errors) > 0 && !item.Created {
			fmt.Fprintf(stderr, "skipped item %d: %v\n", item.Index, item.Errors)
		}
	}
	fmt.Fprintf(stdout, "imported %d of %d task(s)\n", res.Created(), len(items))
	if len(res.Invalid()) > 0 && res.Created() == 0 {
		return 1
	}
	return 0
}

// startAlerts seeds the dispatcher from the stored tasks and re-plans it after
// every commit.
func startAlerts(coll *storage.Collection, cfg config.Config, logger *log.Logger) *alerts.Dispatcher {
	dispatcher := alerts.NewDispatcher(cfg.AlertBuffer, logger)
	dispatcher.Start()
	replan := func(tasks []model.Task) {
		if err := dispatcher.Reset(alerts.FromTasks(tasks, time.Now(), cfg.Lead())); err != nil {
			logger.Warn("alerts not rescheduled", "err", err)
		}
	}
	replan(coll.Snapshot())
	coll.OnCommit(replan)
	return dispatcher
}

func stopAlerts(dispatcher *alerts.Dispatcher, logger *log.Logger) {
	dispatcher.Stop()
	if n := dispatcher.Dropped(); n > 0 {
		logger.Warn("alerts dropped while the UI was busy", "count", n)
	}
}
