package storage

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// ExactVisitedSet implements repository.VisitedSet with an exact set
type ExactVisitedSet struct {
	set mapset.Set[string]
}

// NewExactVisitedSet creates an empty visited set
func NewExactVisitedSet() *ExactVisitedSet {
	return &ExactVisitedSet{set: mapset.NewSet[string]()}
}

// TryClaim implements repository.VisitedSet.
// Add holds the set's lock across the membership test and the insert.
func (s *ExactVisitedSet) TryClaim(url string) bool {
	return s.set.Add(url)
}

// Len implements repository.VisitedSet
func (s *ExactVisitedSet) Len() int {
	return s.set.Cardinality()
}

// TargetSet implements repository.TargetSet
type TargetSet struct {
	set mapset.Set[string]
}

// NewTargetSet creates an empty target set
func NewTargetSet() *TargetSet {
	return &TargetSet{set: mapset.NewSet[string]()}
}

// Add implements repository.TargetSet
func (s *TargetSet) Add(url string) bool {
	return s.set.Add(url)
}

// Len implements repository.TargetSet
func (s *TargetSet) Len() int {
	return s.set.Cardinality()
}

// Sorted implements repository.TargetSet
func (s *TargetSet) Sorted() []string {
	urls := s.set.ToSlice()
	sort.Strings(urls)
	return urls
}
