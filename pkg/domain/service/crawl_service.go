package service

import (
	"context"

	"github.com/WangYihang/index-crawler/pkg/domain/entity"
)

// PageFetcher fetches directory index pages
type PageFetcher interface {
	// Fetch waits for the request delay, then GETs url
	Fetch(ctx context.Context, url string) (*entity.Page, error)
}

// LinkExtractor extracts anchor targets from markup
type LinkExtractor interface {
	// ExtractLinks returns every href in document order, duplicates preserved
	ExtractLinks(markup []byte, contentType string) ([]string, error)
}

// LinkClassifier classifies absolute URLs
type LinkClassifier interface {
	// Classify returns the kind of url
	Classify(url string) entity.LinkKind
	// IsDenied reports whether url hits the non-target denylist
	IsDenied(url string) bool
}

// ScopeFilter decides whether a URL lies within the crawl root
type ScopeFilter interface {
	// InScope reports whether url is inside the root subtree
	InScope(url string) bool
	// Root returns the scope
	Root() entity.RootScope
}
