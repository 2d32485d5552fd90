package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ramonehamilton/AOE-Rec-Companion/internal/actions"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/analysis"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/charts"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/commands"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/config"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/export"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/storage"
)

// commonFlags are accepted by every subcommand.
type commonFlags struct {
	exclude    string
	format     string
	output     string
	open       bool
	archive    bool
	configPath string
	debugMode  bool
	debugShort bool
	overwrite  bool
}

func newFlagSet(name string) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	opts := &commonFlags{}
	fs.StringVar(&opts.exclude, "exclude", "", "Comma separated action types to drop in addition to GAME and DE_TRANSFORM")
	fs.StringVar(&opts.format, "format", "", "Output format: json or csv (default from config)")
	fs.StringVar(&opts.output, "o", "", "Output file (default: stdout, or <recording>_chart.html for chart)")
	fs.BoolVar(&opts.open, "open", false, "Open the written chart in the browser")
	fs.BoolVar(&opts.archive, "archive", false, "Store the analysed match in the archive database")
	fs.StringVar(&opts.configPath, "config", "", "Path to config.toml (default: ~/.aoe-rec/config.toml)")
	fs.BoolVar(&opts.debugMode, "debug-mode", false, "Enable verbose debug logging")
	fs.BoolVar(&opts.debugShort, "d", false, "Enable debug logging (shorthand for -debug-mode)")
	fs.BoolVar(&opts.overwrite, "force", false, "Overwrite existing output files")
	return fs, opts
}

// env is the state shared by every subcommand run.
type env struct {
	opts     *commonFlags
	config   *config.Config
	logger   *slog.Logger
	analyzer *analysis.Analyzer
	service  *storage.Service
	executor *commands.CommandExecutor
	format   export.Format
}

// setup loads .env and config, installs the logger and opens the archive
// when requested. Failures are fatal.
func setup(opts *commonFlags) *env {
	if _, err := config.LoadEnv(); err != nil {
		log.Fatalf("Error loading .env: %v", err)
	}

	var cfg *config.Config
	var err error
	if opts.configPath != "" {
		cfg, err = config.LoadFrom(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	if opts.format != "" {
		cfg.Export.Format = opts.format
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	level := slog.LevelInfo
	if opts.debugMode || opts.debugShort || cfg.App.DebugMode {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	format, err := export.ParseFormat(cfg.Export.Format)
	if err != nil {
		log.Fatalf("Invalid format: %v", err)
	}

	exclude := append(cfg.Exclusions(), actions.ParseList(opts.exclude)...)
	e := &env{
		opts:     opts,
		config:   cfg,
		logger:   logger,
		analyzer: analysis.NewAnalyzer(analysis.Config{Exclude: exclude, Logger: logger}),
		executor: commands.NewCommandExecutor(0, logger),
		format:   format,
	}

	if opts.archive || cfg.Archive.Enabled {
		dbPath, err := cfg.DatabasePath()
		if err != nil {
			log.Fatalf("Error resolving database path: %v", err)
		}
		db, err := storage.Open(storage.DefaultConfig(dbPath))
		if err != nil {
			log.Fatalf("Error opening archive: %v", err)
		}
		e.service = storage.NewService(db, logger)
		logger.Debug("Archive opened", "path", dbPath)
	}
	return e
}

func (e *env) close() {
	if e.service == nil {
		return
	}
	if err := e.service.Close(); err != nil {
		log.Printf("Error closing archive: %v", err)
	}
}

// output returns where a table command writes. With -o unset and an
// export dir configured, a generated filename inside that dir is used.
func (e *env) output(recording, kind string) commands.Output {
	out := commands.Output{
		Path:      e.opts.output,
		Writer:    os.Stdout,
		Format:    e.format,
		Pretty:    e.config.Export.PrettyJSON,
		Overwrite: e.opts.overwrite,
	}
	if out.Path == "" && e.config.Export.Dir != "" {
		out.Path = filepath.Join(e.config.Export.Dir, export.GenerateFilename(recording, kind, e.format))
	}
	return out
}

func (e *env) chartOptions() commands.ChartOptions {
	cfg := charts.DefaultChartConfig()
	cfg.Width = e.config.Charts.Width
	cfg.Height = e.config.Charts.Height
	return commands.ChartOptions{
		OutputDir: e.config.Charts.OutputDir,
		Open:      e.opts.open || e.config.Charts.Open,
		Config:    cfg,
		Logger:    e.logger,
	}
}

func (e *env) fyneConfig() charts.FyneChartConfig {
	return charts.DefaultFyneChartConfig()
}
