package application

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/WangYihang/index-crawler/pkg/domain/entity"
	"github.com/WangYihang/index-crawler/pkg/domain/repository"
	"github.com/WangYihang/index-crawler/pkg/domain/service"
	"github.com/sirupsen/logrus"
)

// Worker processes directory URLs popped from the frontier
type Worker struct {
	id          int
	useCase     *CrawlUseCase
	frontier    repository.Frontier
	targets     repository.TargetSet
	fetcher     service.PageFetcher
	extractor   service.LinkExtractor
	classifier  service.LinkClassifier
	scope       service.ScopeFilter
	fetchLog    repository.FetchLogWriter
	idleTimeout time.Duration
	logger      logrus.FieldLogger

	currentURL atomic.Value // stores string
	state      atomic.Int32
}

// Run starts the worker processing loop
func (w *Worker) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	defer w.setState(entity.Stopped)

	for {
		if ctx.Err() != nil {
			return
		}

		next, err := w.frontier.Pop(ctx, w.idleTimeout)
		switch {
		case err == nil:
			w.processURL(ctx, next)
		case errors.Is(err, repository.ErrFrontierEmpty):
			// Peers may still be fetching pages that yield more work
			if w.frontier.Outstanding() == 0 {
				w.logger.Debug("Frontier idle with no outstanding work, stopping")
				return
			}
		default:
			return
		}
	}
}

// State returns the current worker state
func (w *Worker) State() entity.WorkerState {
	return entity.WorkerState(w.state.Load())
}

// IsActive returns whether the worker is currently processing a URL
func (w *Worker) IsActive() bool {
	switch w.State() {
	case entity.Fetching, entity.Classifying:
		return true
	}
	return false
}

// GetCurrentURL returns the URL currently being processed
func (w *Worker) GetCurrentURL() string {
	if v := w.currentURL.Load(); v != nil {
		return v.(string)
	}
	return ""
}

func (w *Worker) setState(state entity.WorkerState) {
	w.state.Store(int32(state))
}

// processURL fetches one directory page and classifies its links.
// Discovered directories are scheduled before Done so the frontier never
// looks drained while this page can still produce work.
func (w *Worker) processURL(ctx context.Context, pageURL string) {
	w.currentURL.Store(pageURL)
	defer func() {
		w.currentURL.Store("")
		w.setState(entity.Idle)
		w.frontier.Done()
	}()

	w.setState(entity.Fetching)
	w.logger.WithField("url", pageURL).Debug("Fetching")

	start := time.Now()
	page, err := w.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		if page == nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			w.logger.WithField("url", pageURL).Debug("Abandoned before fetch")
			return
		}
		w.useCase.fetchErrors.Add(1)
		w.logger.WithError(err).WithField("url", pageURL).Error("Failed to fetch index page")
		w.writeFetchLog(pageURL, page, start, 0, err)
		return
	}
	w.useCase.pagesFetched.Add(1)

	w.setState(entity.Classifying)
	hrefs, err := w.extractor.ExtractLinks(page.Markup, page.ContentType)
	if err != nil {
		w.logger.WithError(err).WithField("url", pageURL).Warn("Failed to parse index page")
		hrefs = nil
	}

	links := w.classifyLinks(page, hrefs)
	w.writeFetchLog(pageURL, page, start, links, nil)
}

// classifyLinks resolves every href against the page and routes it to the
// target set or the frontier. It returns the number of hrefs seen.
func (w *Worker) classifyLinks(page *entity.Page, hrefs []string) int {
	base, err := url.Parse(page.FinalURL)
	if err != nil {
		w.logger.WithError(err).WithField("url", page.FinalURL).Warn("Unusable page url")
		return 0
	}

	for _, href := range hrefs {
		href = strings.TrimSpace(href)
		if href == "" || href == "../" || href == ".." {
			continue
		}

		ref, err := url.Parse(href)
		if err != nil {
			w.useCase.linksIgnored.Add(1)
			continue
		}
		resolved := base.ResolveReference(ref)
		resolved.Fragment = ""
		link := resolved.String()

		if !w.scope.InScope(link) {
			w.useCase.linksOutOfScope.Add(1)
			continue
		}

		switch w.classifier.Classify(link) {
		case entity.TargetFile:
			if w.targets.Add(link) {
				w.useCase.targetsFound.Add(1)
				w.useCase.notifyTarget(link)
				w.logger.WithField("url", link).Debug("Found target file")
			}
		case entity.Directory:
			if w.frontier.Schedule(link) {
				w.useCase.directoriesQueued.Add(1)
			}
		default:
			w.useCase.linksIgnored.Add(1)
			if w.classifier.IsDenied(link) {
				w.useCase.linksDenied.Add(1)
			}
		}
	}
	return len(hrefs)
}

func (w *Worker) writeFetchLog(pageURL string, page *entity.Page, start time.Time, links int, fetchErr error) {
	if w.fetchLog == nil {
		return
	}

	entry := &entity.FetchLog{
		URL:        pageURL,
		DurationMs: time.Since(start).Milliseconds(),
		Links:      links,
		Timestamp:  time.Now(),
	}
	if page != nil {
		entry.FinalURL = page.FinalURL
		entry.StatusCode = page.StatusCode
	}
	if fetchErr != nil {
		entry.Error = fetchErr.Error()
	}

	if err := w.fetchLog.WriteFetchLog(entry); err != nil {
		w.logger.WithError(err).Warn("Failed to write fetch log")
	}
}
