package keyphrase

import (
	"strings"

	"github.com/charmbracelet/log"

	"github.com/searchseed/searchseed/internal/utils"
)

// minimum characters that must remain after stripping a plural suffix.
const pluralMinStem = 3

// Cluster is the unit of deduplication: all phrase variants considered the
// same search term. Representative is the surviving canonical text; clusters
// are mutated by admissions until the ranker's final pass begins.
type Cluster struct {
	ID             int
	Representative string
	Variants       []string
	CategoryVotes  map[string]int
	Docs           map[string]struct{}
	FirstSeen      int
	// Charged is the category that consumed quota when the cluster was
	// created. Later merges never re-charge.
	Charged   string
	OverQuota bool
	// Paired marks an acronym/full-name pair where both forms exist as
	// separate clusters ("RTP" / "Real-Time Payments").
	Paired     bool
	PairedWith string

	variantSeen map[string]bool
}

// Category returns the cluster's dominant category: the one with the most
// votes. Ties resolve to the charged category when it is among the leaders,
// otherwise to the lexicographically smallest leader, so the result never
// depends on map iteration order.
func (c *Cluster) Category() string {
	best, bestVotes := c.Charged, c.CategoryVotes[c.Charged]
	for cat, votes := range c.CategoryVotes {
		switch {
		case votes > bestVotes:
			best, bestVotes = cat, votes
		case votes == bestVotes && best != c.Charged && cat < best:
			best = cat
		}
	}
	return best
}

func (c *Cluster) wordCount() int {
	return utils.WordCount(c.Representative)
}

func (c *Cluster) absorb(p NormalizedPhrase) {
	if !c.variantSeen[p.Original] {
		c.variantSeen[p.Original] = true
		c.Variants = append(c.Variants, p.Original)
	}
	c.CategoryVotes[p.Category]++
	c.Docs[p.DocumentID] = struct{}{}
}

// ClusterSet owns all clusters for a run. It is single-writer: admissions
// must observe prior cluster state, so callers serialize through one
// goroutine (the aggregator).
type ClusterSet struct {
	clusters []*Cluster
	byKey    map[string]int // canonical text (reps and folded variants) -> cluster id
	bySing   map[string]int // plural-stripped key -> cluster id
	byLower  map[string]int // lowercased representative -> cluster id, for pairing
	pairs    map[string]string
	isAcr    func(tok string) bool
	seq      int
}

// NewClusterSet creates an empty cluster set. pairs maps acronyms to full
// names; isAcronym reports whether a token is a configured acronym and
// drives the acronym-anchored containment rule.
func NewClusterSet(pairs map[string]string, isAcronym func(tok string) bool) *ClusterSet {
	lowered := make(map[string]string, len(pairs)*2)
	for acr, full := range pairs {
		lowered[strings.ToLower(acr)] = strings.ToLower(full)
		lowered[strings.ToLower(full)] = strings.ToLower(acr)
	}
	if isAcronym == nil {
		isAcronym = func(string) bool { return false }
	}
	return &ClusterSet{
		byKey:   make(map[string]int),
		bySing:  make(map[string]int),
		byLower: make(map[string]int),
		pairs:   lowered,
		isAcr:   isAcronym,
	}
}

// Len returns the number of live clusters.
func (cs *ClusterSet) Len() int {
	return len(cs.clusters)
}

// Clusters returns the live clusters in first-seen order.
func (cs *ClusterSet) Clusters() []*Cluster {
	out := make([]*Cluster, len(cs.clusters))
	copy(out, cs.clusters)
	return out
}

// Locate finds the cluster a phrase would merge into without mutating
// anything. The aggregator uses it to decide whether a phrase consumes
// quota (only brand-new clusters do).
func (cs *ClusterSet) Locate(p NormalizedPhrase) (int, bool) {
	if id, ok := cs.byKey[p.Canonical]; ok {
		return id, true
	}
	for _, key := range pluralKeys(p.Canonical) {
		if id, ok := cs.bySing[key]; ok {
			return id, true
		}
	}
	for _, c := range cs.clusters {
		if cs.related(c, p.Canonical) {
			return c.ID, true
		}
	}
	return -1, false
}

// Merge folds a phrase into an existing cluster. When the incoming phrase is
// more specific (more words) than the current representative, it takes over
// as representative; the old representative stays in the variant set and is
// never promoted back.
func (cs *ClusterSet) Merge(id int, p NormalizedPhrase) {
	c := cs.clusters[id]
	c.absorb(p)
	cs.registerKeys(id, p.Canonical)

	if utils.WordCount(p.Canonical) > c.wordCount() {
		log.Debugf("Cluster %d representative %q superseded by %q", c.ID, c.Representative, p.Canonical)
		c.Representative = p.Canonical
		cs.byLower[strings.ToLower(p.Canonical)] = id
	}
}

// Add creates a new singleton cluster for the phrase and returns it.
// Admission never fails: a phrase that matches nothing becomes its own
// cluster.
func (cs *ClusterSet) Add(p NormalizedPhrase) *Cluster {
	c := &Cluster{
		ID:             len(cs.clusters),
		Representative: p.Canonical,
		CategoryVotes:  make(map[string]int),
		Docs:           make(map[string]struct{}),
		FirstSeen:      cs.seq,
		Charged:        p.Category,
		variantSeen:    make(map[string]bool),
	}
	cs.seq++
	c.absorb(p)
	cs.clusters = append(cs.clusters, c)
	cs.registerKeys(c.ID, p.Canonical)
	cs.byLower[strings.ToLower(p.Canonical)] = c.ID
	cs.linkPair(c)
	return c
}

// Admit places the phrase into the cluster set: merged into an existing
// cluster when a similarity rule matches, otherwise a new singleton. It
// returns the affected cluster id and whether a new cluster was created.
func (cs *ClusterSet) Admit(p NormalizedPhrase) (int, bool) {
	if id, ok := cs.Locate(p); ok {
		cs.Merge(id, p)
		return id, false
	}
	return cs.Add(p).ID, true
}

// related applies the containment rules between an existing representative
// and an incoming canonical: whitespace-bounded substring containment in
// either direction, or two multi-word phrases anchored on the same leading
// acronym ("ACH payment" / "ACH credit transfer").
func (cs *ClusterSet) related(c *Cluster, canonical string) bool {
	rep := c.Representative
	if utils.HasWordBoundedSubstring(rep, canonical) || utils.HasWordBoundedSubstring(canonical, rep) {
		return true
	}
	repTokens := strings.Fields(rep)
	inTokens := strings.Fields(canonical)
	if len(repTokens) < 2 || len(inTokens) < 2 {
		return false
	}
	return repTokens[0] == inTokens[0] && cs.isAcr(inTokens[0])
}

// pluralKeys returns the equivalence keys a canonical participates in: the
// canonical itself plus its plural-stripped candidates, so a plural matches
// an earlier singular and a singular matches an earlier plural regardless of
// whether the singular ends in "e".
func pluralKeys(canonical string) []string {
	return append([]string{canonical}, utils.SingularCandidates(canonical, pluralMinStem)...)
}

func (cs *ClusterSet) registerKeys(id int, canonical string) {
	if _, exists := cs.byKey[canonical]; !exists {
		cs.byKey[canonical] = id
	}
	for _, key := range pluralKeys(canonical) {
		if _, exists := cs.bySing[key]; !exists {
			cs.bySing[key] = id
		}
	}
}

// linkPair flags acronym/full-name counterparts when both clusters exist.
// Paired clusters stay separate: autocomplete needs both forms searchable.
func (cs *ClusterSet) linkPair(c *Cluster) {
	counterpart, ok := cs.pairs[strings.ToLower(c.Representative)]
	if !ok {
		return
	}
	otherID, ok := cs.byLower[counterpart]
	if !ok {
		return
	}
	other := cs.clusters[otherID]
	c.Paired = true
	c.PairedWith = other.Representative
	other.Paired = true
	other.PairedWith = c.Representative
	log.Debugf("Paired clusters %q and %q", c.Representative, other.Representative)
}
