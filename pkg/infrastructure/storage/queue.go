package storage

import (
	"context"
	"sync"
	"time"

	"github.com/WangYihang/index-crawler/pkg/domain/repository"
	"github.com/enriquebris/goconcurrentqueue"
)

var (
	ErrFrontierEmpty   = repository.ErrFrontierEmpty
	ErrFrontierDrained = repository.ErrFrontierDrained
	ErrFrontierClosed  = repository.ErrFrontierClosed
)

// Frontier implements repository.Frontier.
//
// Every pushed URL stays outstanding from Push until the worker that popped it
// calls Done. Workers push discovered directories before calling Done on the
// page they came from, so outstanding work only reaches zero when the crawl is
// complete. At that point all blocked Pop calls return ErrFrontierDrained.
type Frontier struct {
	queue   *goconcurrentqueue.FIFO
	visited repository.VisitedSet

	mu       sync.Mutex
	wake     chan struct{}
	queued   int
	inFlight int
	drained  bool
	closed   bool
}

// NewFrontier creates an empty frontier deduplicating against visited
func NewFrontier(visited repository.VisitedSet) *Frontier {
	return &Frontier{
		queue:   goconcurrentqueue.NewFIFO(),
		visited: visited,
		wake:    make(chan struct{}),
	}
}

// TryClaim implements repository.Frontier
func (f *Frontier) TryClaim(url string) bool {
	return f.visited.TryClaim(url)
}

// Push implements repository.Frontier
func (f *Frontier) Push(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed || f.drained {
		return false
	}
	if err := f.queue.Enqueue(url); err != nil {
		return false
	}
	f.queued++
	f.broadcastLocked()
	return true
}

// Schedule implements repository.Frontier
func (f *Frontier) Schedule(url string) bool {
	if f.isClosed() {
		return false
	}
	if !f.TryClaim(url) {
		return false
	}
	return f.Push(url)
}

// Pop implements repository.Frontier
func (f *Frontier) Pop(ctx context.Context, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		f.mu.Lock()
		switch {
		case f.closed:
			f.mu.Unlock()
			return "", ErrFrontierClosed
		case f.drained:
			f.mu.Unlock()
			return "", ErrFrontierDrained
		}
		if f.queued > 0 {
			item, err := f.queue.Dequeue()
			if err == nil {
				f.queued--
				f.inFlight++
				f.mu.Unlock()
				return item.(string), nil
			}
		}
		wake := f.wake
		f.mu.Unlock()

		select {
		case <-wake:
		case <-timer.C:
			return "", ErrFrontierEmpty
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// Done implements repository.Frontier
func (f *Frontier) Done() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.inFlight == 0 {
		return
	}
	f.inFlight--
	if f.inFlight == 0 && f.queued == 0 {
		f.drained = true
		f.broadcastLocked()
	}
}

// Len implements repository.Frontier
func (f *Frontier) Len() int {
	return f.queue.GetLen()
}

// InFlight implements repository.Frontier
func (f *Frontier) InFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.inFlight
}

// Outstanding implements repository.Frontier
func (f *Frontier) Outstanding() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.queued + f.inFlight
}

// Visited implements repository.Frontier
func (f *Frontier) Visited() int {
	return f.visited.Len()
}

// Close implements repository.Frontier
func (f *Frontier) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.closed {
		f.closed = true
		f.broadcastLocked()
	}
}

func (f *Frontier) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.closed || f.drained
}

// broadcastLocked wakes every goroutine blocked in Pop
func (f *Frontier) broadcastLocked() {
	close(f.wake)
	f.wake = make(chan struct{})
}
