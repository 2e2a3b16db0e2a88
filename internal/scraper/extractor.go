package scraper

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Extractor interprets a declarative RuleSet against an abstract document.
// It never touches a browser directly; the DocumentQuerier port decides
// whether queries run inside a live page or over a static HTML snapshot.
type Extractor struct {
	rules  RuleSet
	logger *zap.Logger
}

// NewExtractor creates an Extractor for the given rule set.
func NewExtractor(rules RuleSet, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{rules: rules, logger: logger}
}

// ExtractAll populates every output field from the document. Missing selector
// matches resolve to nil/empty values; only a failing query mechanism yields
// an error, and then the whole extraction is discarded.
func (e *Extractor) ExtractAll(ctx context.Context, doc DocumentQuerier) (ScrapedProfile, error) {
	var profile ScrapedProfile
	var err error

	if profile.Name, err = e.firstMatch(ctx, doc, e.rules.Name); err != nil {
		return ScrapedProfile{}, err
	}
	if profile.Title, err = e.firstMatch(ctx, doc, e.rules.Title); err != nil {
		return ScrapedProfile{}, err
	}
	if profile.Location, err = e.firstMatch(ctx, doc, e.rules.Location); err != nil {
		return ScrapedProfile{}, err
	}
	if profile.ProfilePictureURL, err = e.firstMatch(ctx, doc, e.rules.Picture); err != nil {
		return ScrapedProfile{}, err
	}

	rawConnections, err := e.firstMatch(ctx, doc, e.rules.Connections)
	if err != nil {
		return ScrapedProfile{}, err
	}
	profile.Connections = connectionCount(rawConnections)

	if profile.Skills, err = e.unionMatches(ctx, doc, e.rules.Skills); err != nil {
		return ScrapedProfile{}, err
	}
	if profile.Certifications, err = e.unionMatches(ctx, doc, e.rules.Certifications); err != nil {
		return ScrapedProfile{}, err
	}
	if profile.Companies, err = e.unionMatches(ctx, doc, e.rules.Companies); err != nil {
		return ScrapedProfile{}, err
	}
	if profile.Education, err = e.unionMatches(ctx, doc, e.rules.Education); err != nil {
		return ScrapedProfile{}, err
	}

	e.logger.Debug("extraction complete",
		zap.Bool("name_found", profile.Name != nil),
		zap.Int("skills", len(profile.Skills)),
		zap.Int("companies", len(profile.Companies)),
		zap.Int("education", len(profile.Education)),
	)
	return profile, nil
}

// firstMatch walks the candidate chain in order and returns the first
// non-empty trimmed value. Candidates that match an element with only
// whitespace content are skipped so a later chain entry can still win.
func (e *Extractor) firstMatch(ctx context.Context, doc DocumentQuerier, rule Rule) (*string, error) {
	for _, cand := range rule.Candidates {
		value, found, err := doc.QueryOne(ctx, cand.Selector, cand.Attr)
		if err != nil {
			return nil, &ExtractionError{Err: fmt.Errorf("field %s, selector %q: %w", rule.Field, cand.Selector, err)}
		}
		if !found {
			continue
		}
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		return &trimmed, nil
	}
	return nil, nil
}

// unionMatches queries every candidate and merges all trimmed, non-empty
// values into one discovery-ordered, duplicate-free sequence. The same text
// appearing under two different selectors contributes once. The result is
// never nil: a field with zero matches serializes as an empty JSON array,
// unlike the nullable single-value fields.
func (e *Extractor) unionMatches(ctx context.Context, doc DocumentQuerier, rule Rule) ([]string, error) {
	out := []string{}
	seen := make(map[string]struct{})
	for _, cand := range rule.Candidates {
		values, err := doc.QueryAll(ctx, cand.Selector, cand.Attr)
		if err != nil {
			return nil, &ExtractionError{Err: fmt.Errorf("field %s, selector %q: %w", rule.Field, cand.Selector, err)}
		}
		for _, value := range values {
			trimmed := strings.TrimSpace(value)
			if trimmed == "" {
				continue
			}
			if _, dup := seen[trimmed]; dup {
				continue
			}
			seen[trimmed] = struct{}{}
			out = append(out, trimmed)
		}
	}
	return out, nil
}

// connectionCount reduces raw display text such as "500+ connections" to its
// digits ("500"). It returns nil when the input is nil or carries no digits.
func connectionCount(raw *string) *string {
	if raw == nil {
		return nil
	}
	var b strings.Builder
	for _, r := range *raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return nil
	}
	digits := b.String()
	return &digits
}
