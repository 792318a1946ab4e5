package repository

import (
	"context"
	"errors"
	"time"

	"github.com/WangYihang/index-crawler/pkg/domain/entity"
)

var (
	// ErrFrontierEmpty is returned by Pop when nothing arrived before the timeout
	ErrFrontierEmpty = errors.New("frontier empty")
	// ErrFrontierDrained is returned by Pop once no work is queued or in flight
	ErrFrontierDrained = errors.New("frontier drained")
	// ErrFrontierClosed is returned by Pop after Close
	ErrFrontierClosed = errors.New("frontier closed")
)

// VisitedSet remembers every URL ever scheduled
type VisitedSet interface {
	// TryClaim marks url as visited and reports whether it was absent before.
	// The check and the insert happen as one atomic step.
	TryClaim(url string) bool
	// Len returns the number of claimed URLs (approximate for probabilistic sets)
	Len() int
}

// Frontier is the shared queue of directory URLs awaiting a fetch
type Frontier interface {
	// TryClaim claims url against the visited set
	TryClaim(url string) bool
	// Push enqueues a previously claimed url
	Push(url string) bool
	// Schedule claims and enqueues url in one call
	Schedule(url string) bool
	// Pop waits up to timeout for the next url
	Pop(ctx context.Context, timeout time.Duration) (string, error)
	// Done marks a popped url as processed
	Done()
	// Len returns the number of queued urls
	Len() int
	// InFlight returns the number of popped but unfinished urls
	InFlight() int
	// Outstanding returns queued plus in-flight urls
	Outstanding() int
	// Visited returns the number of claimed urls
	Visited() int
	// Close rejects further pushes and wakes all waiters
	Close()
}

// TargetSet collects target file URLs
type TargetSet interface {
	// Add records url and reports whether it was new
	Add(url string) bool
	// Len returns the number of collected urls
	Len() int
	// Sorted returns the collected urls in lexicographic order
	Sorted() []string
}

// ResultWriter persists the final target list
type ResultWriter interface {
	// WriteResults writes urls, sorted, one per line
	WriteResults(urls []string) error
	// Path returns the destination of the results
	Path() string
}

// FetchLogWriter writes one structured record per fetch
type FetchLogWriter interface {
	// WriteFetchLog appends a fetch record
	WriteFetchLog(entry *entity.FetchLog) error
	// Close closes the writer
	Close() error
}
