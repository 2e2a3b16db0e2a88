// Package dom runs the extraction rule set over static HTML using goquery.
// It backs the offline extraction endpoint and lets the extraction policy be
// tested without a browser engine; cascadia selectors match the semantics of
// the in-page querySelector adapter.
package dom

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"profilescraper/internal/scraper"
)

// Document implements scraper.DocumentQuerier over a parsed HTML snapshot.
type Document struct {
	doc *goquery.Document
}

// Parse builds a Document from raw HTML.
func Parse(html string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{doc: doc}, nil
}

// QueryOne returns the text (or attribute) of the first matching element.
func (d *Document) QueryOne(_ context.Context, selector, attr string) (string, bool, error) {
	matcher, err := compile(selector)
	if err != nil {
		return "", false, err
	}
	sel := d.doc.FindMatcher(matcher)
	if sel.Length() == 0 {
		return "", false, nil
	}
	first := sel.First()
	if attr != "" {
		value, _ := first.Attr(attr)
		return value, true, nil
	}
	return first.Text(), true, nil
}

// QueryAll returns the text (or attribute) of every matching element in
// document order.
func (d *Document) QueryAll(_ context.Context, selector, attr string) ([]string, error) {
	matcher, err := compile(selector)
	if err != nil {
		return nil, err
	}
	var values []string
	d.doc.FindMatcher(matcher).Each(func(_ int, s *goquery.Selection) {
		if attr != "" {
			value, _ := s.Attr(attr)
			values = append(values, value)
			return
		}
		values = append(values, s.Text())
	})
	return values, nil
}

// compile surfaces selector syntax errors instead of goquery's panic.
func compile(selector string) (cascadia.Selector, error) {
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("compile selector %q: %w", selector, err)
	}
	return matcher, nil
}

var _ scraper.DocumentQuerier = (*Document)(nil)
