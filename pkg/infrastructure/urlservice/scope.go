package urlservice

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/WangYihang/index-crawler/pkg/domain/entity"
)

// NewRootScope parses rawURL into a crawl scope.
// Only absolute http and https URLs with a host are accepted.
func NewRootScope(rawURL string) (entity.RootScope, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return entity.RootScope{}, fmt.Errorf("parse root url: %w", err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return entity.RootScope{}, fmt.Errorf("root url must be http or https, got %q", rawURL)
	}
	if u.Host == "" {
		return entity.RootScope{}, fmt.Errorf("root url has no host: %q", rawURL)
	}

	return entity.RootScope{
		Scheme:   scheme,
		Host:     strings.ToLower(u.Host),
		Segments: Segments(u.Path),
	}, nil
}

// Segments splits a URL path into its segments.
// Empty segments and "." are dropped, ".." removes the previous segment.
func Segments(path string) []string {
	parts := strings.Split(path, "/")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
		case "..":
			if len(segments) > 0 {
				segments = segments[:len(segments)-1]
			}
		default:
			segments = append(segments, part)
		}
	}
	return segments
}

// InScope reports whether candidate lies within scope.
// Unparseable candidates are out of scope.
func InScope(candidate string, scope entity.RootScope) bool {
	u, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	if !u.IsAbs() || strings.ToLower(u.Host) != scope.Host {
		return false
	}

	segments := Segments(u.Path)
	if len(segments) < len(scope.Segments) {
		return false
	}
	for i, seg := range scope.Segments {
		if segments[i] != seg {
			return false
		}
	}
	return true
}

// Scope implements service.ScopeFilter
type Scope struct {
	root entity.RootScope
}

// NewScope creates a scope filter bound to root
func NewScope(root entity.RootScope) *Scope {
	return &Scope{root: root}
}

// InScope implements service.ScopeFilter
func (s *Scope) InScope(candidate string) bool {
	return InScope(candidate, s.root)
}

// Root implements service.ScopeFilter
func (s *Scope) Root() entity.RootScope {
	return s.root
}
