package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ramonehamilton/AOE-Rec-Companion/internal/commands"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/events"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/replay"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/storage/models"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/version"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	name, args := os.Args[1], os.Args[2:]
	var err error
	switch name {
	case "table", "aggregate", "summary", "chart", "view":
		err = runFileCommand(name, args)
	case "watch":
		err = runWatchCommand(args)
	case "history":
		err = runHistoryCommand(args)
	case "migrate":
		err = runMigrationCommand(args)
	case "service":
		runServiceCommand(args)
	case "version", "-version", "--version":
		fmt.Printf("aoe-rec %s\n", version.GetVersion())
	case "help", "-h", "-help", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	// run* functions have closed the archive by the time they return.
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func printUsage() {
	fmt.Println("AoE Recording Companion")
	fmt.Println("=======================")
	fmt.Println()
	fmt.Println("Usage: aoe-rec <command> [options] <recording>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  table      - Write one row per action (player, relative minute, type)")
	fmt.Println("  aggregate  - Write action counts per player, minute and type (-apm for APM)")
	fmt.Println("  summary    - Write the match summary (map, teams, winner, duration)")
	fmt.Println("  chart      - Render per-player stacked bar charts to HTML")
	fmt.Println("  view       - Show the charts and summary in a desktop window")
	fmt.Println("  watch      - Process every new recording dropped into a folder")
	fmt.Println("  history    - List archived matches (-delete <id> removes one)")
	fmt.Println("  migrate    - Run archive migrations (up/down/version)")
	fmt.Println("  service    - Run the watcher as a system service (install/start/stop/status/uninstall)")
	fmt.Println("  version    - Print the version")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  aoe-rec aggregate -exclude FLARE,RESIGN -format csv match.aoe2record.json")
	fmt.Println("  aoe-rec chart -open -teams match.aoe2record.json")
	fmt.Println("  aoe-rec watch -archive -chart")
	fmt.Println("  aoe-rec service install -archive")
	fmt.Println("  aoe-rec migrate up")
	fmt.Println()
}

func runFileCommand(name string, args []string) error {
	fs, opts := newFlagSet(name)
	describe := fs.Bool("describe", false, "Add the action description to each row (table)")
	apm := fs.Bool("apm", false, "Write the per-player APM summary instead of counts (aggregate)")
	teams := fs.Bool("teams", false, "Also write a team/player category chart (chart)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: aoe-rec %s [options] <recording>", name)
	}
	path := fs.Arg(0)

	env := setup(opts)
	defer env.close()

	var cmd commands.Command
	switch name {
	case "table":
		cmd = commands.NewTableCommand(env.analyzer, path, *describe, env.output(path, "table"))
	case "aggregate":
		kind := "aggregated"
		if *apm {
			kind = "apm"
		}
		cmd = commands.NewAggregateCommand(env.analyzer, path, *apm, env.output(path, kind))
	case "summary":
		cmd = commands.NewSummaryCommand(env.analyzer, path, env.output(path, "summary"))
	case "chart":
		chartOpts := env.chartOptions()
		chartOpts.OutputPath = opts.output
		chartOpts.Teams = *teams
		cmd = commands.NewChartCommand(env.analyzer, path, chartOpts)
	case "view":
		cmd = commands.NewViewCommand(env.analyzer, path, env.service, env.fyneConfig())
	}

	ctx := context.Background()
	if err := env.executor.Execute(ctx, cmd); err != nil {
		return err
	}

	// Table, aggregate, summary and chart also archive when asked to.
	if env.service != nil && name != "view" {
		report, err := env.analyzer.Analyze(ctx, path)
		if err != nil {
			return fmt.Errorf("analyse for archive: %w", err)
		}
		archive := commands.NewArchiveCommand(env.service, report)
		if err := env.executor.Execute(ctx, archive); err != nil {
			return err
		}
		if archive.CanUndo() {
			env.logger.Info("Match archived", "id", archive.Match.ID)
		} else {
			env.logger.Info("Match already archived", "id", archive.Match.ID)
		}
	}
	return nil
}

func runWatchCommand(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return watchFolder(ctx, args)
}

// watchFolder parses watch flags and watches until ctx is cancelled.
func watchFolder(ctx context.Context, args []string) error {
	fs, opts := newFlagSet("watch")
	backfill := fs.Bool("backfill", false, "Also process recordings already in the folder")
	chart := fs.Bool("chart", false, "Write an HTML chart for each recording")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	env := setup(opts)
	defer env.close()

	dir := fs.Arg(0)
	if dir == "" {
		dir = env.config.Watch.Dir
	}
	if dir == "" {
		d, err := replay.DefaultRecordingsDir()
		if err != nil {
			return fmt.Errorf("find recordings folder: %w", err)
		}
		dir = d
	}

	settle, err := env.config.GetWatchSettle()
	if err != nil {
		return fmt.Errorf("read watch settle: %w", err)
	}

	dispatcher := events.NewDispatcher(env.logger)
	dispatcher.Register(events.NewLoggingObserver(env.logger))

	processOpts := commands.ProcessOptions{Service: env.service, Events: dispatcher, Logger: env.logger}
	if *chart {
		chartOpts := env.chartOptions()
		processOpts.Chart = &chartOpts
	}

	cmd := commands.NewWatchCommand(env.analyzer, dir, settle, *backfill || env.config.Watch.Backfill, processOpts)
	return env.executor.Execute(ctx, cmd)
}

func runHistoryCommand(args []string) error {
	fs, opts := newFlagSet("history")
	limit := fs.Int("limit", 20, "Maximum number of matches (0 = all)")
	mapName := fs.String("map", "", "Only list matches on this map")
	deleteID := fs.String("delete", "", "Delete the archived match with this id instead of listing")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	opts.archive = true

	env := setup(opts)
	defer env.close()

	var cmd commands.Command
	if *deleteID != "" {
		cmd = commands.NewDeleteCommand(env.service, *deleteID, os.Stdout)
	} else {
		filter := models.MatchFilter{MapName: *mapName, Limit: *limit}
		cmd = commands.NewHistoryCommand(env.service, filter, env.output("history", "history"))
	}
	return env.executor.Execute(context.Background(), cmd)
}

func runMigrationCommand(args []string) error {
	fs, opts := newFlagSet("migrate")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: aoe-rec migrate <up|down|version>")
	}

	env := setup(opts)
	defer env.close()

	dbPath, err := env.config.DatabasePath()
	if err != nil {
		return fmt.Errorf("resolve database path: %w", err)
	}

	cmd := commands.NewMigrateCommand(dbPath, fs.Arg(0), os.Stdout)
	return env.executor.Execute(context.Background(), cmd)
}
