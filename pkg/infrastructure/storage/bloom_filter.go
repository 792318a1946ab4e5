package storage

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// BloomVisitedSet implements repository.VisitedSet using a Bloom filter.
// It trades exactness for bounded memory: a false positive makes
// TryClaim report an unseen URL as already visited.
type BloomVisitedSet struct {
	filter *bloom.BloomFilter
	count  int
	mu     sync.Mutex
}

// BloomConfig holds Bloom filter configuration
type BloomConfig struct {
	Size              uint
	FalsePositiveRate float64
}

// NewBloomVisitedSet creates a new Bloom filter backed visited set
func NewBloomVisitedSet(config BloomConfig) *BloomVisitedSet {
	return &BloomVisitedSet{
		filter: bloom.NewWithEstimates(config.Size, config.FalsePositiveRate),
	}
}

// TryClaim implements repository.VisitedSet
func (s *BloomVisitedSet) TryClaim(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.filter.TestAndAdd([]byte(url)) {
		return false
	}
	s.count++
	return true
}

// Len implements repository.VisitedSet
func (s *BloomVisitedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.count
}
