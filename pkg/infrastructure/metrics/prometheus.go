package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/WangYihang/index-crawler/pkg/domain/entity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "index_crawler"

// SnapshotFunc returns the current crawl metrics
type SnapshotFunc func() *entity.Metrics

// NewRegistry creates a registry exposing the crawl metrics read from snapshot
func NewRegistry(snapshot SnapshotFunc) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(Collectors(snapshot)...)
	return reg
}

// Collectors returns one collector per crawl metric
func Collectors(snapshot SnapshotFunc) []prometheus.Collector {
	counter := func(name, help string, value func(m *entity.Metrics) int64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(value(snapshot())) })
	}
	gauge := func(name, help string, value func(m *entity.Metrics) int) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(value(snapshot())) })
	}

	return []prometheus.Collector{
		counter("pages_fetched_total", "Index pages fetched successfully.",
			func(m *entity.Metrics) int64 { return m.PagesFetched }),
		counter("fetch_errors_total", "Index pages abandoned after a fetch error.",
			func(m *entity.Metrics) int64 { return m.FetchErrors }),
		counter("targets_found_total", "Unique target files discovered.",
			func(m *entity.Metrics) int64 { return m.TargetsFound }),
		counter("directories_queued_total", "Directories claimed and queued.",
			func(m *entity.Metrics) int64 { return m.DirectoriesQueued }),
		counter("links_ignored_total", "Links that were neither directories nor targets.",
			func(m *entity.Metrics) int64 { return m.LinksIgnored }),
		counter("links_denied_total", "Ignored links that hit the extension denylist.",
			func(m *entity.Metrics) int64 { return m.LinksDenied }),
		counter("links_out_of_scope_total", "Links outside of the root subtree.",
			func(m *entity.Metrics) int64 { return m.LinksOutOfScope }),
		gauge("queue_length", "Directories waiting in the frontier.",
			func(m *entity.Metrics) int { return m.QueueLength }),
		gauge("in_flight", "Directories currently being processed.",
			func(m *entity.Metrics) int { return m.InFlight }),
		gauge("workers", "Size of the worker pool.",
			func(m *entity.Metrics) int { return m.TotalWorkers }),
		gauge("visited_urls", "Directory URLs claimed by the visited set.",
			func(m *entity.Metrics) int { return m.Visited }),
	}
}

// Exporter serves /metrics over HTTP
type Exporter struct {
	server *http.Server
}

// NewExporter creates an exporter listening on addr
func NewExporter(addr string, reg *prometheus.Registry) *Exporter {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &Exporter{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves in the background; errors after startup are sent to errs
func (e *Exporter) Start(errs chan<- error) {
	go func() {
		if err := e.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()
}

// Shutdown stops the exporter
func (e *Exporter) Shutdown(ctx context.Context) error {
	return e.server.Shutdown(ctx)
}
