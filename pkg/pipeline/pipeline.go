/*
Package pipeline drives a run: concurrent per-document extraction calls
through a bounded worker pool, deterministic replay into the aggregator,
and the final ranking pass.
*/
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oklog/ulid/v2"

	"github.com/searchseed/searchseed/pkg/corpus"
	"github.com/searchseed/searchseed/pkg/extract"
	"github.com/searchseed/searchseed/pkg/keyphrase"
)

// Options bound the extraction phase.
type Options struct {
	Workers     int
	MaxAttempts int
	RetryBase   time.Duration
	// CommonCategory is processed in a dedicated first pass so its terms
	// seed the global exclusion set.
	CommonCategory string
	GlobalTarget   int
}

// Summary reports run completion. A gap between AdmittedClusters and
// GlobalTarget is reported, not an error.
type Summary struct {
	RunID              string         `json:"run_id"`
	DocumentsTotal     int            `json:"documents_total"`
	DocumentsProcessed int            `json:"documents_processed"`
	DegradedDocuments  int            `json:"degraded_documents"`
	ExtractedPhrases   int            `json:"extracted_phrases"`
	AdmittedClusters   int            `json:"admitted_clusters"`
	FinalKeyphrases    int            `json:"final_keyphrases"`
	GlobalTarget       int            `json:"global_target"`
	Categories         map[string]int `json:"categories"`
}

// CategoryNames returns the summary's category names sorted, for stable
// reporting output.
func (s Summary) CategoryNames() []string {
	names := make([]string, 0, len(s.Categories))
	for cat := range s.Categories {
		names = append(names, cat)
	}
	sort.Strings(names)
	return names
}

// Result is everything a completed run produces. A run always yields a
// result, possibly empty; partial failures surface only through the audit
// log and summary counts.
type Result struct {
	Keyphrases []keyphrase.RankedKeyphrase
	Audit      []keyphrase.AuditEntry
	Summary    Summary
}

// Runner wires one run. The aggregator is the single writer for cluster
// state; only the extraction calls run concurrently.
type Runner struct {
	extractor extract.Extractor
	agg       *keyphrase.Aggregator
	audit     *keyphrase.AuditLog
	weights   keyphrase.RankWeights
	opts      Options
}

// NewRunner creates a runner.
func NewRunner(extractor extract.Extractor, agg *keyphrase.Aggregator, audit *keyphrase.AuditLog, weights keyphrase.RankWeights, opts Options) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &Runner{
		extractor: extractor,
		agg:       agg,
		audit:     audit,
		weights:   weights,
		opts:      opts,
	}
}

// Run executes the pipeline over docs. Extraction calls complete out of
// order but results are replayed into the aggregator strictly in document
// order, so first-seen tie-breaks are stable across runs. Cancelling ctx
// stops issuing new calls and finalizes on whatever was ingested.
func (r *Runner) Run(ctx context.Context, docs []corpus.Document) (*Result, error) {
	if r.extractor == nil {
		return nil, fmt.Errorf("pipeline: no extractor configured")
	}

	runID := ulid.Make().String()
	ordered := commonFirst(docs, r.opts.CommonCategory)
	log.Debugf("Run %s: %d documents, %d workers", runID, len(ordered), r.opts.Workers)

	results := r.extractAll(ctx, ordered)

	summary := Summary{
		RunID:          runID,
		DocumentsTotal: len(ordered),
		GlobalTarget:   r.opts.GlobalTarget,
	}

	// Replay in document order: the serialization point the merge rules
	// depend on.
	for i, doc := range ordered {
		res := results[i]
		if res == nil {
			continue // cancelled before the call was issued
		}
		summary.DocumentsProcessed++
		if res.Degraded {
			summary.DegradedDocuments++
			r.agg.DegradeDocument(doc, res.Reason)
			continue
		}
		summary.ExtractedPhrases += len(res.Phrases)
		r.agg.Ingest(doc, res.Phrases)
	}

	clusters := r.agg.Snapshot()
	keyphrases := keyphrase.Finalize(clusters, r.opts.GlobalTarget, r.weights)

	summary.AdmittedClusters = len(clusters)
	summary.FinalKeyphrases = len(keyphrases)
	summary.Categories = r.agg.Quota().Counts()

	if summary.AdmittedClusters < summary.GlobalTarget {
		log.Warnf("Run %s finished %d clusters short of global target %d",
			runID, summary.GlobalTarget-summary.AdmittedClusters, summary.GlobalTarget)
	}

	return &Result{
		Keyphrases: keyphrases,
		Audit:      r.audit.Entries(),
		Summary:    summary,
	}, nil
}

// extractAll fans documents out to the worker pool and buffers results by
// document index.
func (r *Runner) extractAll(ctx context.Context, docs []corpus.Document) []*extract.Result {
	results := make([]*extract.Result, len(docs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < r.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = r.extractWithRetry(ctx, docs[idx])
			}
		}()
	}

	for i := range docs {
		select {
		case jobs <- i:
		case <-ctx.Done():
			log.Warnf("Run cancelled, %d of %d documents issued", i, len(docs))
			close(jobs)
			wg.Wait()
			return results
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

// extractWithRetry retries failed extraction calls with bounded backoff,
// then degrades the document to empty. Degradation is never fatal to the
// run. A nil result means the call was abandoned by cancellation.
func (r *Runner) extractWithRetry(ctx context.Context, doc corpus.Document) *extract.Result {
	var lastErr error
	for attempt := 1; attempt <= r.opts.MaxAttempts; attempt++ {
		phrases, err := r.extractor.Extract(ctx, doc)
		if err == nil {
			return &extract.Result{DocumentID: doc.ID, Phrases: phrases}
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil
		}
		log.Debugf("Extraction for %s failed (attempt %d/%d): %v", doc.ID, attempt, r.opts.MaxAttempts, err)

		if attempt < r.opts.MaxAttempts {
			select {
			case <-time.After(r.opts.RetryBase * time.Duration(attempt)):
			case <-ctx.Done():
				return nil
			}
		}
	}
	return &extract.Result{
		DocumentID: doc.ID,
		Degraded:   true,
		Reason:     fmt.Sprintf("failed after %d attempts: %v", r.opts.MaxAttempts, lastErr),
	}
}

// commonFirst returns docs with the common category's documents moved to
// the front, preserving relative order within both partitions.
func commonFirst(docs []corpus.Document, commonCategory string) []corpus.Document {
	if commonCategory == "" {
		return docs
	}
	ordered := make([]corpus.Document, 0, len(docs))
	for _, d := range docs {
		if d.Category == commonCategory {
			ordered = append(ordered, d)
		}
	}
	for _, d := range docs {
		if d.Category != commonCategory {
			ordered = append(ordered, d)
		}
	}
	return ordered
}
