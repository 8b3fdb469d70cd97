package keyphrase

import (
	"errors"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/searchseed/searchseed/pkg/corpus"
)

// Aggregator is the single-writer owner of the corpus-wide cluster set for
// one run. Documents are ingested in arrival order; within a document,
// phrases in extraction-returned order. Rejections and exclusions land in
// the audit log instead of the live set.
type Aggregator struct {
	norm       *Normalizer
	clusters   *ClusterSet
	quota      *QuotaTracker
	audit      *AuditLog
	exclusions *patricia.Trie
	commonCat  string
}

// NewAggregator wires the engine components for a run. commonCategory names
// the shared category whose admitted terms populate the global exclusion
// set; empty disables exclusion.
func NewAggregator(norm *Normalizer, clusters *ClusterSet, quota *QuotaTracker, audit *AuditLog, commonCategory string) *Aggregator {
	return &Aggregator{
		norm:       norm,
		clusters:   clusters,
		quota:      quota,
		audit:      audit,
		exclusions: patricia.NewTrie(),
		commonCat:  commonCategory,
	}
}

// Ingest processes one document's candidate phrases in order.
func (a *Aggregator) Ingest(doc corpus.Document, phrases []string) {
	for _, raw := range phrases {
		a.ingestPhrase(corpus.CandidatePhrase{
			Text:       raw,
			DocumentID: doc.ID,
			Category:   doc.Category,
		})
	}
}

func (a *Aggregator) ingestPhrase(p corpus.CandidatePhrase) {
	np, err := a.norm.Normalize(p.Text, p.DocumentID, p.Category)
	if err != nil {
		a.audit.Add(AuditEntry{
			Phrase:     p.Text,
			DocumentID: p.DocumentID,
			Category:   p.Category,
			Reason:     rejectionReason(err),
		})
		return
	}

	// Terms already admitted from the common section are definitionally
	// redundant in any other category: dropped, not merged.
	if p.Category != a.commonCat && a.exclusions.Get(patricia.Prefix(np.Canonical)) != nil {
		a.audit.Add(AuditEntry{
			Phrase:     p.Text,
			DocumentID: p.DocumentID,
			Category:   p.Category,
			Reason:     ReasonExcludedCommon,
			Detail:     np.Canonical,
		})
		return
	}

	if id, ok := a.clusters.Locate(np); ok {
		// Merging into an existing cluster consumes no quota.
		a.clusters.Merge(id, np)
		a.noteCommon(np)
		return
	}

	decision := a.quota.Decide(np.Category)
	if decision == Reject {
		a.audit.Add(AuditEntry{
			Phrase:     p.Text,
			DocumentID: p.DocumentID,
			Category:   p.Category,
			Reason:     ReasonQuotaRejected,
			Detail:     np.Canonical,
		})
		return
	}

	c := a.clusters.Add(np)
	c.OverQuota = decision == AdmitOverQuota
	a.quota.Record(np.Category)
	a.noteCommon(np)
}

// noteCommon adds an admitted common-section canonical to the global
// exclusion set.
func (a *Aggregator) noteCommon(np NormalizedPhrase) {
	if a.commonCat == "" || np.Category != a.commonCat {
		return
	}
	if a.exclusions.Insert(patricia.Prefix(np.Canonical), true) {
		log.Debugf("Common term %q added to exclusion set", np.Canonical)
	}
}

// DegradeDocument records a document whose extraction failed all retries.
// The run continues; the document contributes no phrases.
func (a *Aggregator) DegradeDocument(doc corpus.Document, reason string) {
	a.audit.Add(AuditEntry{
		DocumentID: doc.ID,
		Category:   doc.Category,
		Reason:     ReasonExtractionFailure,
		Detail:     reason,
	})
	log.Warnf("Document %s degraded to empty: %s", doc.ID, reason)
}

// Snapshot returns the live clusters in first-seen order. Callers must not
// ingest after taking the snapshot the ranker will finalize.
func (a *Aggregator) Snapshot() []*Cluster {
	return a.clusters.Clusters()
}

// Quota exposes the tracker for summary reporting.
func (a *Aggregator) Quota() *QuotaTracker {
	return a.quota
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrTooShort):
		return ReasonTooShort
	case errors.Is(err, ErrTooLong):
		return ReasonTooLong
	case errors.Is(err, ErrStoplisted):
		return ReasonStoplisted
	}
	return "rejected"
}
