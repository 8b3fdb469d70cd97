package keyphrase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rankedCluster(rep, category string, docs, firstSeen int) *Cluster {
	c := &Cluster{
		Representative: rep,
		CategoryVotes:  map[string]int{category: 1},
		Docs:           make(map[string]struct{}, docs),
		FirstSeen:      firstSeen,
		Charged:        category,
	}
	for i := 0; i < docs; i++ {
		c.Docs[string(rune('a'+i))] = struct{}{}
	}
	return c
}

func TestScoreComponents(t *testing.T) {
	w := RankWeights{
		Breadth:          1.0,
		Priority:         map[string]float64{"guide": 0.8},
		OverQuotaPenalty: 0.5,
		HowToBonus:       0.25,
		HowToPrefixes:    []string{"how to"},
	}

	c := rankedCluster("how to verify webhooks", "guide", 3, 0)
	assert.InDelta(t, 3.0+0.8+0.25, w.Score(c), 1e-9)

	c.OverQuota = true
	assert.InDelta(t, 3.0+0.8+0.25-0.5, w.Score(c), 1e-9)

	plain := rankedCluster("webhook signature", "guide", 3, 0)
	assert.InDelta(t, 3.0+0.8, w.Score(plain), 1e-9)
}

func TestFinalizeTruncatesWithFirstSeenTieBreak(t *testing.T) {
	w := RankWeights{Breadth: 1.0}
	clusters := []*Cluster{
		rankedCluster("payment status", "reference", 3, 0),
		rankedCluster("refund flow", "reference", 5, 1),
		rankedCluster("webhook signature", "reference", 3, 2),
	}

	out := Finalize(clusters, 2, w)
	require.Len(t, out, 2)
	assert.Equal(t, "refund flow", out[0].Text)
	assert.Equal(t, "payment status", out[1].Text, "ties break on first-seen order")
}

func TestFinalizeShortfallNotPadded(t *testing.T) {
	w := RankWeights{Breadth: 1.0}
	clusters := []*Cluster{
		rankedCluster("payment status", "reference", 1, 0),
		rankedCluster("refund flow", "reference", 1, 1),
	}

	out := Finalize(clusters, 10, w)
	assert.Len(t, out, 2)
}

func TestFinalizeEmptyInput(t *testing.T) {
	out := Finalize(nil, 10, RankWeights{})
	assert.Empty(t, out)
}

func TestFinalizeCarriesDominantCategory(t *testing.T) {
	c := rankedCluster("webhook signature", "reference", 2, 0)
	c.CategoryVotes["guide"] = 3

	out := Finalize([]*Cluster{c}, 10, RankWeights{Breadth: 1.0})
	require.Len(t, out, 1)
	assert.Equal(t, "guide", out[0].Category)
}
