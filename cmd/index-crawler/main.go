package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/WangYihang/index-crawler/pkg/common"
	"github.com/WangYihang/index-crawler/pkg/domain/entity"
	"github.com/WangYihang/index-crawler/pkg/interface/cli"
	"github.com/WangYihang/index-crawler/pkg/interface/presenter"
	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Parse command line flags
	config, err := cli.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if config.Version {
		fmt.Println(common.CurrentVersion())
		return 0
	}

	// The dashboard and the progress bar own the terminal
	var console io.Writer = os.Stderr
	if config.ShowDashboard || config.ShowProgress {
		console = nil
	}

	app, err := cli.NewAssembler(config, console).Assemble()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer app.Close()

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	stop := make(chan struct{})
	defer close(stop)
	go watchSignals(sigChan, stop, cancel, func() { os.Exit(130) }, os.Stderr)

	if config.Probe {
		result, err := app.Fetcher.Probe(ctx, config.RootURL)
		presenter.PrintProbe(os.Stdout, result, err, presenter.IsTerminal(os.Stdout))
		if err != nil {
			return 1
		}
		return 0
	}

	if app.Exporter != nil {
		errs := make(chan error, 1)
		app.Exporter.Start(errs)
		go func() {
			if err := <-errs; err != nil {
				app.Logger.WithError(err).Warn("Metrics exporter stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = app.Exporter.Shutdown(shutdownCtx)
		}()
		app.Logger.WithField("addr", config.MetricsAddr).Info("Serving metrics")
	}

	var report *entity.CrawlReport
	switch {
	case config.ShowDashboard:
		report, err = runWithDashboard(ctx, cancel, app, config)
	case config.ShowProgress:
		bar := presenter.NewProgressBar(os.Stderr, config.RootURL)
		app.UseCase.RegisterMetricsObserver(bar)
		report, err = app.UseCase.Execute(ctx)
		bar.Finish()
	default:
		fmt.Fprintf(os.Stderr, "Crawling %s ...\n", config.RootURL)
		report, err = app.UseCase.Execute(ctx)
	}

	interrupted := errors.Is(err, context.Canceled)
	if err != nil && !interrupted {
		app.Logger.WithError(err).Error("Crawling failed")
		fmt.Fprintf(os.Stderr, "Crawling error: %v\n", err)
		return 1
	}
	if interrupted {
		app.Logger.Warn("Crawling interrupted by user")
	}

	// Partial results are written on interrupt too
	if err := app.Results.WriteResults(report.Targets); err != nil {
		app.Logger.WithError(err).Error("Failed to write results")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	app.Logger.WithField("path", app.Results.Path()).Infof("Found %d target files", len(report.Targets))

	// Keep stdout clean when it carries the results
	summary := os.Stdout
	if app.Results.Path() == "-" {
		summary = os.Stderr
	}
	presenter.PrintSummary(summary, report, app.Results.Path(), presenter.IsTerminal(summary))
	return 0
}

func runWithDashboard(ctx context.Context, cancel context.CancelFunc, app *cli.Application, config *cli.Config) (*entity.CrawlReport, error) {
	dashboard := presenter.NewDashboard(config.RootURL, cancel)
	app.UseCase.RegisterMetricsObserver(dashboard)

	p := tea.NewProgram(dashboard, tea.WithAltScreen())

	var (
		report  *entity.CrawlReport
		execErr error
	)
	done := make(chan struct{})

	// Run use case in background
	go func() {
		defer close(done)
		report, execErr = app.UseCase.Execute(ctx)
		p.Quit()
	}()

	// Start TUI
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		cancel()
	}
	<-done
	return report, execErr
}
