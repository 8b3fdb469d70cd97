package keyphrase

import (
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// RankWeights are the scoring knobs for the final pass.
type RankWeights struct {
	// Breadth multiplies the distinct source-document count.
	Breadth float64
	// Priority per category, reflecting expected search volume.
	Priority map[string]float64
	// OverQuotaPenalty is subtracted from clusters flagged over quota.
	OverQuotaPenalty float64
	// HowToBonus rewards task-oriented phrases matching HowToPrefixes.
	HowToBonus    float64
	HowToPrefixes []string
}

// Score computes the cluster's rank score.
func (w RankWeights) Score(c *Cluster) float64 {
	score := w.Breadth * float64(len(c.Docs))
	score += w.Priority[c.Category()]
	if c.OverQuota {
		score -= w.OverQuotaPenalty
	}
	lower := strings.ToLower(c.Representative)
	for _, prefix := range w.HowToPrefixes {
		if strings.HasPrefix(lower, strings.ToLower(prefix)) {
			score += w.HowToBonus
			break
		}
	}
	return score
}

// Finalize scores and orders the frozen cluster set, truncating to
// globalTarget. This is the only point where data is discarded for size
// reasons; a shortfall below the target is returned as-is, never padded.
// Ties break on FirstSeen ascending so identical inputs produce identical
// output.
func Finalize(clusters []*Cluster, globalTarget int, w RankWeights) []RankedKeyphrase {
	type scored struct {
		c     *Cluster
		score float64
	}
	ranked := make([]scored, 0, len(clusters))
	for _, c := range clusters {
		ranked = append(ranked, scored{c: c, score: w.Score(c)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].c.FirstSeen < ranked[j].c.FirstSeen
	})

	if globalTarget > 0 && len(ranked) > globalTarget {
		log.Debugf("Truncating %d clusters to global target %d", len(ranked), globalTarget)
		ranked = ranked[:globalTarget]
	}

	out := make([]RankedKeyphrase, len(ranked))
	for i, r := range ranked {
		out[i] = RankedKeyphrase{
			Text:     r.c.Representative,
			Category: r.c.Category(),
			Score:    r.score,
		}
	}
	return out
}
