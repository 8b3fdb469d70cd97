package keyphrase

import (
	"strings"

	"github.com/searchseed/searchseed/internal/utils"
)

// WordRange bounds phrase length in words for one category.
type WordRange struct {
	Min int
	Max int
}

// Normalizer canonicalizes raw candidate phrases. It is a pure function of
// its configuration: lowercasing except recognized acronyms and
// identifier-looking tokens, whitespace collapsing, word-count bounds and a
// hard stoplist. Normalizing an already normalized phrase yields the same
// result.
type Normalizer struct {
	stop     map[string]bool
	acronyms map[string]string // lowercased token -> canonical casing
	ranges   map[string]WordRange
	fallback WordRange
}

// NewNormalizer builds a normalizer from a stoplist of generic phrases, the
// acronym list (casing as configured), and per-category word ranges.
func NewNormalizer(stoplist, acronyms []string, ranges map[string]WordRange) *Normalizer {
	n := &Normalizer{
		stop:     make(map[string]bool, len(stoplist)),
		acronyms: make(map[string]string, len(acronyms)),
		ranges:   ranges,
		fallback: WordRange{Min: 1, Max: 5},
	}
	for _, s := range stoplist {
		n.stop[strings.ToLower(utils.CollapseWhitespace(s))] = true
	}
	for _, a := range acronyms {
		n.acronyms[strings.ToLower(a)] = a
	}
	return n
}

// Range returns the word-count bounds for a category.
func (n *Normalizer) Range(category string) WordRange {
	if r, ok := n.ranges[category]; ok {
		return r
	}
	return n.fallback
}

// Normalize canonicalizes raw for the given category. The returned phrase
// carries both the canonical and the original text; rejected phrases return
// ErrTooShort, ErrTooLong or ErrStoplisted.
func (n *Normalizer) Normalize(raw, docID, category string) (NormalizedPhrase, error) {
	original := strings.TrimSpace(raw)
	collapsed := utils.CollapseWhitespace(original)
	tokens := strings.Fields(collapsed)

	r := n.Range(category)
	if len(tokens) < r.Min {
		return NormalizedPhrase{}, ErrTooShort
	}
	if len(tokens) > r.Max {
		return NormalizedPhrase{}, ErrTooLong
	}

	for i, tok := range tokens {
		tokens[i] = n.canonicalToken(tok)
	}
	canonical := strings.Join(tokens, " ")

	if n.stop[strings.ToLower(canonical)] {
		return NormalizedPhrase{}, ErrStoplisted
	}

	return NormalizedPhrase{
		Canonical:  canonical,
		Original:   original,
		DocumentID: docID,
		Category:   category,
	}, nil
}

// IsAcronym reports whether tok is a configured acronym, case-insensitively.
func (n *Normalizer) IsAcronym(tok string) bool {
	_, ok := n.acronyms[strings.ToLower(tok)]
	return ok
}

func (n *Normalizer) canonicalToken(tok string) string {
	if cased, ok := n.acronyms[strings.ToLower(tok)]; ok {
		return cased
	}
	if utils.IsIdentifierToken(tok) {
		return tok
	}
	return strings.ToLower(tok)
}
