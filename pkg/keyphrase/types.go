/*
Package keyphrase implements the aggregation and deduplication engine that
turns many per-document candidate phrase lists into one bounded, ranked
keyphrase set for an autocomplete index.

The flow per phrase is normalize -> cluster admission -> quota check, driven
by a single-writer Aggregator. A final Ranker pass scores the clusters and
truncates to the global target.
*/
package keyphrase

import "errors"

// Normalization rejections. These are flow control, not failures: the
// aggregator records them in the audit log and moves on.
var (
	ErrTooShort   = errors.New("phrase below minimum word count")
	ErrTooLong    = errors.New("phrase above maximum word count")
	ErrStoplisted = errors.New("phrase matches stoplist")
)

// NormalizedPhrase is a candidate phrase after canonicalization.
type NormalizedPhrase struct {
	Canonical  string
	Original   string
	DocumentID string
	Category   string
}

// RankedKeyphrase is the externally visible output unit, immutable once the
// ranker emits it.
type RankedKeyphrase struct {
	Text     string  `json:"text"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// Audit reasons.
const (
	ReasonTooShort          = "too_short"
	ReasonTooLong           = "too_long"
	ReasonStoplisted        = "stoplisted"
	ReasonExcludedCommon    = "excluded_common"
	ReasonQuotaRejected     = "quota_rejected"
	ReasonExtractionFailure = "extraction_failure"
)

// AuditEntry records one rejected or excluded phrase and why, for post-run
// inspection. Extraction failures land here too, keyed by document.
type AuditEntry struct {
	Phrase     string `json:"phrase,omitempty"`
	DocumentID string `json:"document_id"`
	Category   string `json:"category"`
	Reason     string `json:"reason"`
	Detail     string `json:"detail,omitempty"`
}

// AuditLog collects audit entries for one run. Not safe for concurrent use;
// the aggregator's single-writer discipline covers it.
type AuditLog struct {
	entries []AuditEntry
}

// Add appends an entry.
func (l *AuditLog) Add(entry AuditEntry) {
	l.entries = append(l.entries, entry)
}

// Entries returns a copy of the recorded entries in insertion order.
func (l *AuditLog) Entries() []AuditEntry {
	out := make([]AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of recorded entries.
func (l *AuditLog) Len() int {
	return len(l.entries)
}
