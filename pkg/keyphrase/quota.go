package keyphrase

// Decision is the quota tracker's admission verdict for a new cluster.
type Decision int

const (
	// Admit: the category is under its soft target.
	Admit Decision = iota
	// AdmitOverQuota: past the soft target; admitted but flagged so the
	// ranker can deprioritize.
	AdmitOverQuota
	// Reject: past target plus margin while the global budget is also
	// exhausted. The phrase is audit-logged, not clustered.
	Reject
)

func (d Decision) String() string {
	switch d {
	case Admit:
		return "admit"
	case AdmitOverQuota:
		return "admit_over_quota"
	case Reject:
		return "reject"
	}
	return "unknown"
}

// Quota is one category's soft target configuration, read-only to the
// tracker.
type Quota struct {
	SoftTarget     int
	OverflowMargin int
}

// QuotaTracker keeps per-category running counts against soft targets.
// Quotas shape distribution, they do not hard-cap a category unless the
// global budget is exhausted. Counts move at cluster granularity: a phrase
// merging into an existing cluster consumes nothing.
//
// The tracker is owned by the run and passed by reference to the
// aggregator; it is not safe for concurrent use and relies on the
// aggregator's single-writer discipline.
type QuotaTracker struct {
	quotas       map[string]Quota
	counts       map[string]int
	total        int
	globalTarget int
}

// NewQuotaTracker creates a tracker for one run.
func NewQuotaTracker(quotas map[string]Quota, globalTarget int) *QuotaTracker {
	return &QuotaTracker{
		quotas:       quotas,
		counts:       make(map[string]int, len(quotas)),
		globalTarget: globalTarget,
	}
}

// Decide returns the admission verdict for a new cluster in category.
func (t *QuotaTracker) Decide(category string) Decision {
	q, ok := t.quotas[category]
	if !ok {
		// Unknown categories carry no target; admit flagged so they never
		// crowd out configured ones.
		return AdmitOverQuota
	}
	count := t.counts[category]
	switch {
	case count < q.SoftTarget:
		return Admit
	case count < q.SoftTarget+q.OverflowMargin:
		return AdmitOverQuota
	case t.total >= t.globalTarget:
		return Reject
	default:
		// Past the margin but the global budget still has room: unique
		// content is never dropped purely for quota reasons.
		return AdmitOverQuota
	}
}

// Record counts one admitted cluster against category.
func (t *QuotaTracker) Record(category string) {
	t.counts[category]++
	t.total++
}

// Count returns the number of clusters charged to category.
func (t *QuotaTracker) Count(category string) int {
	return t.counts[category]
}

// Total returns the corpus-wide admitted cluster count.
func (t *QuotaTracker) Total() int {
	return t.total
}

// Counts returns a copy of the per-category counts.
func (t *QuotaTracker) Counts() map[string]int {
	out := make(map[string]int, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}
