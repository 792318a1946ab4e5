package application

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/WangYihang/index-crawler/pkg/domain/entity"
	"github.com/WangYihang/index-crawler/pkg/domain/repository"
	"github.com/WangYihang/index-crawler/pkg/domain/service"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultIdleTimeout bounds a single wait on the frontier
	DefaultIdleTimeout = 5 * time.Second
	// DefaultMetricsInterval is how often observers receive a snapshot
	DefaultMetricsInterval = 500 * time.Millisecond
)

// CrawlUseCase orchestrates the index crawling process
type CrawlUseCase struct {
	config Config

	// Services
	scope      service.ScopeFilter
	classifier service.LinkClassifier
	fetcher    service.PageFetcher
	extractor  service.LinkExtractor

	// Repositories
	frontier repository.Frontier
	targets  repository.TargetSet
	fetchLog repository.FetchLogWriter

	logger logrus.FieldLogger

	// Counters
	pagesFetched      atomic.Int64
	fetchErrors       atomic.Int64
	targetsFound      atomic.Int64
	directoriesQueued atomic.Int64
	linksIgnored      atomic.Int64
	linksDenied       atomic.Int64
	linksOutOfScope   atomic.Int64

	// State
	startTime        time.Time
	stateLock        sync.RWMutex
	workers          []*Worker
	wg               sync.WaitGroup
	metricsObservers []MetricsObserver
}

// Config holds the use case configuration
type Config struct {
	NumWorkers      int
	IdleTimeout     time.Duration
	MetricsInterval time.Duration
}

// MetricsObserver observes metrics changes
type MetricsObserver interface {
	OnMetricsUpdate(metrics *entity.Metrics)
	AddTarget(url string) // Notify when a new target file is discovered
}

// NewCrawlUseCase creates a new crawl use case.
// fetchLog may be nil.
func NewCrawlUseCase(
	config Config,
	scope service.ScopeFilter,
	classifier service.LinkClassifier,
	fetcher service.PageFetcher,
	extractor service.LinkExtractor,
	frontier repository.Frontier,
	targets repository.TargetSet,
	fetchLog repository.FetchLogWriter,
	logger logrus.FieldLogger,
) *CrawlUseCase {
	if config.NumWorkers < 1 {
		config.NumWorkers = 1
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = DefaultIdleTimeout
	}
	if config.MetricsInterval <= 0 {
		config.MetricsInterval = DefaultMetricsInterval
	}

	return &CrawlUseCase{
		config:           config,
		scope:            scope,
		classifier:       classifier,
		fetcher:          fetcher,
		extractor:        extractor,
		frontier:         frontier,
		targets:          targets,
		fetchLog:         fetchLog,
		logger:           logger,
		metricsObservers: make([]MetricsObserver, 0),
	}
}

// RegisterMetricsObserver registers a metrics observer.
// Observers must be registered before Execute.
func (uc *CrawlUseCase) RegisterMetricsObserver(observer MetricsObserver) {
	uc.metricsObservers = append(uc.metricsObservers, observer)
}

// notifyMetricsObservers notifies all registered observers
func (uc *CrawlUseCase) notifyMetricsObservers() {
	metrics := uc.GetMetrics()
	for _, observer := range uc.metricsObservers {
		observer.OnMetricsUpdate(metrics)
	}
}

func (uc *CrawlUseCase) notifyTarget(url string) {
	for _, observer := range uc.metricsObservers {
		observer.AddTarget(url)
	}
}

// Execute crawls the tree below the root and blocks until every worker has
// stopped. On cancellation the partial report is returned with ctx.Err().
func (uc *CrawlUseCase) Execute(ctx context.Context) (*entity.CrawlReport, error) {
	root := uc.scope.Root().URL()

	uc.stateLock.Lock()
	uc.startTime = time.Now()
	uc.stateLock.Unlock()

	if !uc.frontier.Schedule(root) {
		return nil, fmt.Errorf("failed to enqueue root url: %s", root)
	}
	uc.directoriesQueued.Add(1)

	uc.logger.WithFields(logrus.Fields{
		"url":     root,
		"workers": uc.config.NumWorkers,
	}).Info("Starting crawl")

	metricsCtx, stopMetrics := context.WithCancel(ctx)
	defer stopMetrics()
	go uc.updateMetricsPeriodically(metricsCtx)

	uc.startWorkers(ctx)

	done := uc.waitForCompletion()
	select {
	case <-done:
	case <-ctx.Done():
		uc.logger.Warn("Crawl cancelled, waiting for in-flight fetches")
		uc.frontier.Close()
		<-done
	}
	stopMetrics()
	uc.notifyMetricsObservers()

	report := &entity.CrawlReport{
		Root:         root,
		Targets:      uc.targets.Sorted(),
		PagesFetched: uc.pagesFetched.Load(),
		FetchErrors:  uc.fetchErrors.Load(),
		Elapsed:      time.Since(uc.startTime),
	}

	if err := ctx.Err(); err != nil {
		report.Interrupted = true
		return report, err
	}

	uc.logger.WithFields(logrus.Fields{
		"targets": len(report.Targets),
		"pages":   report.PagesFetched,
		"errors":  report.FetchErrors,
		"visited": uc.frontier.Visited(),
		"elapsed": report.Elapsed.Round(time.Millisecond).String(),
	}).Info("Crawling completed successfully!")
	return report, nil
}

// updateMetricsPeriodically periodically updates and notifies observers
func (uc *CrawlUseCase) updateMetricsPeriodically(ctx context.Context) {
	ticker := time.NewTicker(uc.config.MetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			uc.notifyMetricsObservers()
		}
	}
}

// startWorkers starts all worker goroutines
func (uc *CrawlUseCase) startWorkers(ctx context.Context) {
	workers := make([]*Worker, uc.config.NumWorkers)
	for i := 0; i < uc.config.NumWorkers; i++ {
		workers[i] = &Worker{
			id:          i,
			useCase:     uc,
			frontier:    uc.frontier,
			targets:     uc.targets,
			fetcher:     uc.fetcher,
			extractor:   uc.extractor,
			classifier:  uc.classifier,
			scope:       uc.scope,
			fetchLog:    uc.fetchLog,
			idleTimeout: uc.config.IdleTimeout,
			logger:      uc.logger.WithField("worker", i),
		}
	}

	uc.stateLock.Lock()
	uc.workers = workers
	uc.stateLock.Unlock()

	for _, worker := range workers {
		uc.wg.Add(1)
		go worker.Run(ctx, &uc.wg)
	}
}

// waitForCompletion waits for all workers to stop
func (uc *CrawlUseCase) waitForCompletion() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		uc.wg.Wait()
		close(done)
	}()
	return done
}

// GetMetrics returns the current metrics
func (uc *CrawlUseCase) GetMetrics() *entity.Metrics {
	uc.stateLock.RLock()
	defer uc.stateLock.RUnlock()

	metrics := &entity.Metrics{
		QueueLength:       uc.frontier.Len(),
		InFlight:          uc.frontier.InFlight(),
		Visited:           uc.frontier.Visited(),
		TotalWorkers:      uc.config.NumWorkers,
		PagesFetched:      uc.pagesFetched.Load(),
		FetchErrors:       uc.fetchErrors.Load(),
		TargetsFound:      uc.targetsFound.Load(),
		DirectoriesQueued: uc.directoriesQueued.Load(),
		LinksIgnored:      uc.linksIgnored.Load(),
		LinksDenied:       uc.linksDenied.Load(),
		LinksOutOfScope:   uc.linksOutOfScope.Load(),
		StartTime:         uc.startTime,
		LastUpdateTime:    time.Now(),
	}

	metrics.Workers = make([]entity.WorkerStatus, len(uc.workers))
	for i, worker := range uc.workers {
		status := entity.WorkerStatus{State: worker.State()}
		if worker.IsActive() {
			status.URL = worker.GetCurrentURL()
		}
		metrics.Workers[i] = status
	}
	return metrics
}
