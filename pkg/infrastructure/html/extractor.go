package html

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// ParseError is returned when markup cannot be turned into a document
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse markup: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Extractor implements service.LinkExtractor
type Extractor struct{}

// NewExtractor creates a link extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractLinks returns the href of every anchor in document order.
// The markup is decoded according to contentType and any meta charset.
func (e *Extractor) ExtractLinks(markup []byte, contentType string) ([]string, error) {
	if len(markup) == 0 {
		return nil, nil
	}

	reader, err := charset.NewReader(bytes.NewReader(markup), contentType)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			links = append(links, href)
		}
	})
	return links, nil
}
