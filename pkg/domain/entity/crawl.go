package entity

import "time"

// RootScope is the subtree boundary of a crawl
type RootScope struct {
	Scheme   string
	Host     string
	Segments []string
}

// URL returns the normalized root URL, always ending with a slash
func (s RootScope) URL() string {
	path := "/"
	for _, seg := range s.Segments {
		path += seg + "/"
	}
	return s.Scheme + "://" + s.Host + path
}

// LinkKind is the classification of a discovered link
type LinkKind int

const (
	Ignored LinkKind = iota
	Directory
	TargetFile
)

func (k LinkKind) String() string {
	switch k {
	case Directory:
		return "directory"
	case TargetFile:
		return "target"
	default:
		return "ignored"
	}
}

// WorkerState is the state of a crawl worker
type WorkerState int32

const (
	Idle WorkerState = iota
	Fetching
	Classifying
	Stopped
)

func (s WorkerState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Classifying:
		return "classifying"
	default:
		return "stopped"
	}
}

// Page is a fetched directory index page
type Page struct {
	URL         string
	FinalURL    string
	StatusCode  int
	ContentType string
	Markup      []byte
	Duration    time.Duration
}

// ProbeResult is the outcome of a connectivity check against the root URL
type ProbeResult struct {
	URL           string
	FinalURL      string
	StatusCode    int
	ContentLength int
	Preview       string
}

// FetchLog is one line of the fetch log
type FetchLog struct {
	URL        string    `json:"url"`
	FinalURL   string    `json:"final_url,omitempty"`
	StatusCode int       `json:"status_code,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	Links      int       `json:"links"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// CrawlReport summarizes a finished (or interrupted) crawl
type CrawlReport struct {
	Root         string
	Targets      []string
	PagesFetched int64
	FetchErrors  int64
	Elapsed      time.Duration
	Interrupted  bool
}

// Metrics represents crawling metrics
type Metrics struct {
	QueueLength       int
	InFlight          int
	TotalWorkers      int
	PagesFetched      int64
	FetchErrors       int64
	TargetsFound      int64
	DirectoriesQueued int64
	LinksIgnored      int64
	LinksDenied       int64
	LinksOutOfScope   int64
	StartTime         time.Time
	LastUpdateTime    time.Time
	Workers           []WorkerStatus
	Visited           int
}

// WorkerStatus is what a single worker is doing at snapshot time.
// URL is empty while the worker is idle or stopped.
type WorkerStatus struct {
	State WorkerState
	URL   string
}
