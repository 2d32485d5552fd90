package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"

	"github.com/ramonehamilton/AOE-Rec-Companion/internal/analysis"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/charts"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/export"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/gui"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/storage"
)

// ChartOptions configures ChartCommand.
type ChartOptions struct {
	// OutputPath is the HTML file. Default: <recording>_chart.html next to
	// the recording, or inside OutputDir when set.
	OutputPath string
	OutputDir  string

	// Teams also writes a team/player category chart beside the main chart.
	Teams bool

	// Open shows the written chart in the browser.
	Open bool

	Config charts.ChartConfig
	Logger *slog.Logger

	// Opener opens a written file. Default: charts.OpenInBrowser.
	Opener func(path string) error
}

// ChartCommand renders the per-player stacked bar charts of one recording
// to an HTML file.
type ChartCommand struct {
	BaseCommand
	analyzer *analysis.Analyzer
	path     string
	opts     ChartOptions

	// Written lists the files produced by Execute.
	Written []string
}

// NewChartCommand creates a command charting the recording at path.
func NewChartCommand(analyzer *analysis.Analyzer, path string, opts ChartOptions) *ChartCommand {
	if opts.OutputPath == "" {
		dir := opts.OutputDir
		if dir == "" {
			dir = filepath.Dir(path)
		}
		opts.OutputPath = filepath.Join(dir, export.GenerateFilename(path, "chart", "html"))
	}
	if opts.Config.Width == "" {
		opts.Config = charts.DefaultChartConfig()
	}
	if opts.Opener == nil {
		opts.Opener = charts.OpenInBrowser
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &ChartCommand{
		BaseCommand: BaseCommand{
			name:        "Chart",
			description: fmt.Sprintf("Render action charts of %s to %s", path, opts.OutputPath),
		},
		analyzer: analyzer,
		path:     path,
		opts:     opts,
	}
}

// Execute analyses the recording and writes the chart files.
func (c *ChartCommand) Execute(ctx context.Context) error {
	report, err := c.analyzer.Analyze(ctx, c.path)
	if err != nil {
		return err
	}
	return c.render(report)
}

func (c *ChartCommand) render(report *analysis.Report) error {
	config := c.opts.Config
	if config.Title == charts.DefaultChartConfig().Title {
		config.Title = fmt.Sprintf("%s on %s (%s)", config.Title, report.Summary.Map.Name, report.Summary.Duration)
	}

	renderer := charts.NewHTMLRenderer(config)
	if err := renderer.RenderFile(report.Aggregated, c.opts.OutputPath); err != nil {
		return err
	}
	c.Written = append(c.Written, c.opts.OutputPath)
	c.opts.Logger.Info("Chart written", "path", c.opts.OutputPath)

	if c.opts.Teams {
		teamPath := strings.TrimSuffix(c.opts.OutputPath, ".html") + "_teams.html"
		if err := writeTeamChart(report, teamPath, config); err != nil {
			return err
		}
		c.Written = append(c.Written, teamPath)
		c.opts.Logger.Info("Team chart written", "path", teamPath)
	}

	if c.opts.Open {
		if err := c.opts.Opener(c.opts.OutputPath); err != nil {
			return fmt.Errorf("failed to open chart: %w", err)
		}
	}
	return nil
}

func writeTeamChart(report *analysis.Report, path string, config charts.ChartConfig) (err error) {
	melted := charts.Unpivot(analysis.TeamMetricRows(report))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return charts.RenderCategoryStackedChart(f, melted, "Actions by team", analysis.TeamCategories, config)
}

// ViewCommand opens the desktop viewer for one recording.
type ViewCommand struct {
	BaseCommand
	analyzer *analysis.Analyzer
	path     string
	service  *storage.Service
	config   charts.FyneChartConfig

	// fyneApp hosts the window. Nil creates the default application.
	fyneApp fyne.App

	// show runs the viewer. Default: (*gui.App).Run.
	show func(*gui.App)
}

// NewViewCommand creates a command opening the desktop viewer. service may
// be nil.
func NewViewCommand(analyzer *analysis.Analyzer, path string, service *storage.Service, config charts.FyneChartConfig) *ViewCommand {
	return &ViewCommand{
		BaseCommand: BaseCommand{
			name:        "View",
			description: fmt.Sprintf("Open desktop charts of %s", path),
		},
		analyzer: analyzer,
		path:     path,
		service:  service,
		config:   config,
		show:     (*gui.App).Run,
	}
}

// Execute analyses the recording and blocks until the window is closed.
func (c *ViewCommand) Execute(ctx context.Context) error {
	report, err := c.analyzer.Analyze(ctx, c.path)
	if err != nil {
		return err
	}
	c.show(gui.NewApp(c.fyneApp, report, c.service, c.config))
	return nil
}
