package extract

import (
	"context"
	"strings"

	"github.com/searchseed/searchseed/pkg/corpus"
)

// RuleExtractor derives candidate phrases from document structure alone:
// the title, section headings and field identifiers. Deterministic and
// offline; the default extraction mode.
type RuleExtractor struct {
	// PerPageTarget caps phrases per document by category name. Zero means
	// the fallback cap.
	PerPageTarget map[string]int
}

const fallbackPerPage = 4

// NewRuleExtractor creates a rule-based extractor with per-category page
// targets.
func NewRuleExtractor(perPage map[string]int) *RuleExtractor {
	return &RuleExtractor{PerPageTarget: perPage}
}

// Extract returns the document's headings, title and parameter identifiers
// as candidate phrases, in document order, capped at the category's page
// target. It never fails.
func (e *RuleExtractor) Extract(_ context.Context, doc corpus.Document) ([]string, error) {
	limit := e.PerPageTarget[doc.Category]
	if limit <= 0 {
		limit = fallbackPerPage
	}

	var phrases []string
	seen := make(map[string]bool)
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		key := strings.ToLower(s)
		if seen[key] {
			return
		}
		seen[key] = true
		phrases = append(phrases, s)
	}

	add(titlePhrase(doc.Title))
	for _, h := range doc.Headings {
		add(h)
	}
	for _, f := range doc.Fields {
		add(f)
	}

	if len(phrases) > limit {
		phrases = phrases[:limit]
	}
	return phrases, nil
}

// titlePhrase turns a file-derived title like "ACH_Payments" or
// "instant_payment" into a spaced phrase. Titles that are a single
// identifier-looking word are kept verbatim.
func titlePhrase(title string) string {
	if !strings.ContainsAny(title, "_-") {
		return title
	}
	replaced := strings.NewReplacer("_", " ", "-", " ").Replace(title)
	return strings.Join(strings.Fields(replaced), " ")
}
