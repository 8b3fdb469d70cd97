package keyphrase

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchseed/searchseed/pkg/corpus"
)

func testAggregator(globalTarget int, quotas map[string]Quota) (*Aggregator, *AuditLog) {
	norm := NewNormalizer(
		[]string{"api"},
		[]string{"ACH", "RTP"},
		map[string]WordRange{
			"reference": {Min: 1, Max: 5},
			"guide":     {Min: 1, Max: 6},
			"common":    {Min: 1, Max: 4},
		},
	)
	clusters := NewClusterSet(nil, norm.IsAcronym)
	audit := &AuditLog{}
	agg := NewAggregator(norm, clusters, NewQuotaTracker(quotas, globalTarget), audit, "common")
	return agg, audit
}

func refDoc(id string) corpus.Document {
	return corpus.Document{ID: id, Category: "reference"}
}

func TestIngestCommonExclusion(t *testing.T) {
	agg, audit := testAggregator(100, map[string]Quota{
		"common":    {SoftTarget: 10},
		"reference": {SoftTarget: 10},
	})

	agg.Ingest(corpus.Document{ID: "common/auth.json", Category: "common"},
		[]string{"rate limits", "idempotency key"})
	agg.Ingest(refDoc("ref/payments.json"),
		[]string{"rate limits", "payment status"})

	clusters := agg.Snapshot()
	require.Len(t, clusters, 3)

	reps := make([]string, 0, len(clusters))
	for _, c := range clusters {
		reps = append(reps, c.Representative)
	}
	assert.ElementsMatch(t, []string{"rate limits", "idempotency key", "payment status"}, reps)

	entries := audit.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, ReasonExcludedCommon, entries[0].Reason)
	assert.Equal(t, "rate limits", entries[0].Phrase)
	assert.Equal(t, "ref/payments.json", entries[0].DocumentID)
}

func TestIngestQuotaRejectionAudited(t *testing.T) {
	agg, audit := testAggregator(1, map[string]Quota{
		"reference": {SoftTarget: 1, OverflowMargin: 0},
	})

	agg.Ingest(refDoc("d1"), []string{"card network", "webhook retries"})

	clusters := agg.Snapshot()
	require.Len(t, clusters, 1)
	assert.Equal(t, "card network", clusters[0].Representative)
	assert.False(t, clusters[0].OverQuota)

	entries := audit.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, ReasonQuotaRejected, entries[0].Reason)
	assert.Equal(t, "webhook retries", entries[0].Phrase)
}

func TestIngestMergeConsumesNoQuota(t *testing.T) {
	agg, audit := testAggregator(1, map[string]Quota{
		"reference": {SoftTarget: 1, OverflowMargin: 0},
	})

	agg.Ingest(refDoc("d1"), []string{"ACH payment"})
	agg.Ingest(refDoc("d2"), []string{"ach payments", "ACH credit transfer"})

	assert.Equal(t, 1, agg.Quota().Total())
	assert.Equal(t, 0, audit.Len())

	clusters := agg.Snapshot()
	require.Len(t, clusters, 1)
	assert.Equal(t, "ACH credit transfer", clusters[0].Representative)
	assert.Len(t, clusters[0].Docs, 2)
}

func TestIngestOverQuotaFlag(t *testing.T) {
	agg, _ := testAggregator(100, map[string]Quota{
		"reference": {SoftTarget: 1, OverflowMargin: 5},
	})

	agg.Ingest(refDoc("d1"), []string{"card network", "webhook retries"})

	clusters := agg.Snapshot()
	require.Len(t, clusters, 2)
	assert.False(t, clusters[0].OverQuota)
	assert.True(t, clusters[1].OverQuota)
}

func TestIngestNormalizationRejectionsAudited(t *testing.T) {
	agg, audit := testAggregator(100, map[string]Quota{"reference": {SoftTarget: 10}})

	agg.Ingest(refDoc("d1"), []string{
		"api",
		"one two three four five six",
		"payment status",
	})

	require.Len(t, agg.Snapshot(), 1)

	entries := audit.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, ReasonStoplisted, entries[0].Reason)
	assert.Equal(t, ReasonTooLong, entries[1].Reason)
}

func TestDegradeDocument(t *testing.T) {
	agg, audit := testAggregator(100, nil)

	agg.DegradeDocument(refDoc("ref/flaky.json"), "failed after 3 attempts: timeout")

	entries := audit.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, ReasonExtractionFailure, entries[0].Reason)
	assert.Equal(t, "ref/flaky.json", entries[0].DocumentID)
	assert.Empty(t, entries[0].Phrase)
	assert.Equal(t, 0, len(agg.Snapshot()))
}

func TestIngestTracksQuotaDistribution(t *testing.T) {
	quotas := map[string]Quota{
		"reference": {SoftTarget: 2, OverflowMargin: 1},
		"guide":     {SoftTarget: 2, OverflowMargin: 1},
		"solution":  {SoftTarget: 2, OverflowMargin: 1},
	}
	agg, audit := testAggregator(9, quotas)

	// Oversupply every category with unrelated phrases, interleaved in
	// document order the way a corpus walk alternating folders delivers
	// them.
	words := []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta"}
	topics := map[string]string{"reference": "ledger", "guide": "onboarding", "solution": "payout"}
	for i, w := range words {
		for _, cat := range []string{"reference", "guide", "solution"} {
			doc := corpus.Document{ID: fmt.Sprintf("%s/%d.json", cat, i), Category: cat}
			agg.Ingest(doc, []string{topics[cat] + " " + w})
		}
	}

	counts := agg.Quota().Counts()
	for cat, q := range quotas {
		assert.LessOrEqual(t, counts[cat], q.SoftTarget+q.OverflowMargin,
			"category %s exceeded its margin", cat)
		assert.Equal(t, q.SoftTarget+q.OverflowMargin, counts[cat],
			"oversupplied category %s fills to soft_target+overflow_margin", cat)
	}
	assert.Equal(t, 9, agg.Quota().Total())

	rejected := 0
	for _, e := range audit.Entries() {
		if e.Reason == ReasonQuotaRejected {
			rejected++
		}
	}
	assert.Equal(t, 9, rejected, "18 supplied, 9 admitted, the rest audited")
}

func TestIngestDeterministic(t *testing.T) {
	run := func() []RankedKeyphrase {
		agg, _ := testAggregator(50, map[string]Quota{
			"common":    {SoftTarget: 5},
			"reference": {SoftTarget: 10, OverflowMargin: 2},
			"guide":     {SoftTarget: 10, OverflowMargin: 2},
		})
		agg.Ingest(corpus.Document{ID: "common/glossary.json", Category: "common"},
			[]string{"idempotency key"})
		agg.Ingest(refDoc("ref/ach.json"),
			[]string{"ACH payment", "same day ACH", "payment_id"})
		agg.Ingest(corpus.Document{ID: "guides/webhooks.json", Category: "guide"},
			[]string{"webhook signature", "ach payments", "idempotency key"})
		return Finalize(agg.Snapshot(), 50, RankWeights{
			Breadth:  1.0,
			Priority: map[string]float64{"reference": 1.0, "guide": 0.8, "common": 0.5},
		})
	}

	first := run()
	second := run()
	assert.Equal(t, first, second)
}
