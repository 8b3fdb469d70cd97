/*
Package corpus loads API documentation pages from a directory tree of JSON
files grouped into category folders (api-reference, guides, solution,
api-overview, common) and flattens their nested content into plain text for
the extraction step.
*/
package corpus

// Document is one immutable input page. It is supplied once per pipeline
// run and never mutated.
type Document struct {
	ID       string
	Category string
	Title    string
	// Headings are section and use-case headers pulled from the nested
	// JSON, in document order. The rule-based extractor works off these.
	Headings []string
	// Fields are request/response parameter names ("payment_id", "uetr").
	Fields []string
	// Content is the flattened, HTML-stripped body text.
	Content string
}

// CandidatePhrase is one raw phrase returned by the extraction collaborator
// for a document. Ephemeral: it is consumed immediately by normalization.
type CandidatePhrase struct {
	Text       string
	DocumentID string
	Category   string
}
