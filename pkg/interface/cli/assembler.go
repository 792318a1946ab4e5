package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/WangYihang/index-crawler/pkg/application"
	"github.com/WangYihang/index-crawler/pkg/domain/repository"
	"github.com/WangYihang/index-crawler/pkg/infrastructure/html"
	"github.com/WangYihang/index-crawler/pkg/infrastructure/http"
	"github.com/WangYihang/index-crawler/pkg/infrastructure/logging"
	"github.com/WangYihang/index-crawler/pkg/infrastructure/metrics"
	"github.com/WangYihang/index-crawler/pkg/infrastructure/storage"
	"github.com/WangYihang/index-crawler/pkg/infrastructure/urlservice"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Application bundles the assembled components of one crawl run
type Application struct {
	RunID    string
	UseCase  *application.CrawlUseCase
	Fetcher  *http.Fetcher
	Results  repository.ResultWriter
	Logger   logrus.FieldLogger
	Exporter *metrics.Exporter

	closers []io.Closer
}

// Close releases files opened during assembly
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Assembler assembles all components for the application
type Assembler struct {
	config  *Config
	console io.Writer
}

// NewAssembler creates a new assembler. Log lines go to console as well as
// the log file; a nil console keeps the terminal free for the dashboard.
func NewAssembler(config *Config, console io.Writer) *Assembler {
	return &Assembler{config: config, console: console}
}

// Assemble builds the crawl use case with all dependencies
func (a *Assembler) Assemble() (*Application, error) {
	app := &Application{RunID: uuid.NewString()}

	logger, err := logging.New(logging.Options{
		Console: a.console,
		File:    a.config.LogFile,
		Verbose: a.config.Verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	app.closers = append(app.closers, logger)
	app.Logger = logger.WithField("run_id", app.RunID)

	// Create domain services
	scope := urlservice.NewScope(a.config.Root)
	classifier := urlservice.NewClassifier(a.config.TargetExtensions, urlservice.DefaultDenylist)
	extractor := html.NewExtractor()

	// Create HTTP fetcher
	app.Fetcher = http.NewFetcher(http.Config{
		Timeout:     a.config.TimeoutDuration,
		MaxBodySize: a.config.MaxBodySize,
		UserAgent:   a.config.UserAgent,
		Delay:       a.config.DelayDuration,
	})

	// Create repositories
	var visited repository.VisitedSet
	switch a.config.Visited {
	case "bloom":
		visited = storage.NewBloomVisitedSet(storage.BloomConfig{
			Size:              a.config.BloomSize,
			FalsePositiveRate: a.config.BloomFP,
		})
	default:
		visited = storage.NewExactVisitedSet()
	}
	frontier := storage.NewFrontier(visited)
	targets := storage.NewTargetSet()
	app.Results = storage.NewResultWriter(a.config.OutputFile)

	var fetchLog repository.FetchLogWriter
	if a.config.FetchLogFile != "" {
		writer, err := storage.NewFetchLogWriter(a.config.FetchLogFile)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to create fetch log: %w", err)
		}
		app.closers = append(app.closers, writer)
		fetchLog = writer
	}

	// Create use case
	app.UseCase = application.NewCrawlUseCase(
		application.Config{
			NumWorkers:  a.config.NumWorkers,
			IdleTimeout: a.config.IdleTimeoutDuration,
		},
		scope,
		classifier,
		app.Fetcher,
		extractor,
		frontier,
		targets,
		fetchLog,
		app.Logger,
	)

	if a.config.MetricsAddr != "" {
		app.Exporter = metrics.NewExporter(a.config.MetricsAddr, metrics.NewRegistry(app.UseCase.GetMetrics))
	}

	app.Logger.WithFields(logrus.Fields{
		"url":        a.config.RootURL,
		"workers":    a.config.NumWorkers,
		"delay":      a.config.DelayDuration.String(),
		"extensions": classifier.Extensions(),
		"visited":    a.config.Visited,
		"output":     a.config.OutputFile,
	}).Info("Configuration loaded")

	return app, nil
}
