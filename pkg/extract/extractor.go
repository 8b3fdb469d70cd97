/*
Package extract defines the extraction collaborator boundary: the call that
maps one document's content to a list of candidate phrases. Two
implementations exist, an HTTP extractor for an OpenAI-compatible chat
endpoint and a deterministic rule-based extractor for offline runs and
tests.
*/
package extract

import (
	"context"

	"github.com/searchseed/searchseed/pkg/corpus"
)

// Extractor produces candidate phrases for one document. Implementations
// must be safe for concurrent use: the pipeline issues bounded concurrent
// calls.
type Extractor interface {
	Extract(ctx context.Context, doc corpus.Document) ([]string, error)
}

// Result is the outcome of the extraction phase for one document, consumed
// synchronously by the orchestrator after the concurrent call phase.
// Either Phrases is usable or Degraded is set with the reason; a degraded
// document contributes no phrases but never fails the run.
type Result struct {
	DocumentID string
	Phrases    []string
	Degraded   bool
	Reason     string
}
