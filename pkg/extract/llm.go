package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/searchseed/searchseed/pkg/corpus"
)

const systemPrompt = `You are a search keyphrase extractor for API documentation. Extract keyphrases that developers and integration teams would type into a search box when looking for specific functionality.

Return ONLY a JSON object (no markdown, no explanation):
{"keyphrases": ["phrase1", "phrase2", ...]}

Formatting rules:
1. Lowercase except acronyms and proper nouns
2. Keep phrases 1-4 words (max 5 for complex concepts)
3. Preserve technical casing for field names: "payment_id" not "Payment Id"

If a page has fewer unique valuable terms, return fewer - never pad with generic terms.`

// LLMExtractor calls an OpenAI-compatible chat completion endpoint and
// parses the returned keyphrase list. Calls are rate limited with a token
// bucket to respect external limits; retrying is the pipeline's job.
type LLMExtractor struct {
	BaseURL string
	APIKey  string
	Model   string

	// PerPageTarget and Focus tune the per-document prompt by category.
	PerPageTarget map[string]int
	Focus         map[string]string

	HTTPClient *http.Client
	limiter    *rate.Limiter
}

// NewLLMExtractor builds an extractor for the endpoint. requestsPerSecond
// and burst bound the sustained call rate across all workers.
func NewLLMExtractor(baseURL, apiKey, model string, requestsPerSecond float64, burst int, timeout time.Duration) *LLMExtractor {
	if burst < 1 {
		burst = 1
	}
	return &LLMExtractor{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		Model:      model,
		HTTPClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type keyphrasePayload struct {
	Keyphrases []string `json:"keyphrases"`
}

// Extract calls the endpoint for one document. Transport and API errors are
// returned for the pipeline to retry; a malformed keyphrase payload is
// treated as an empty extraction with a logged warning, not an error.
func (e *LLMExtractor) Extract(ctx context.Context, doc corpus.Document) ([]string, error) {
	if e.BaseURL == "" || e.Model == "" {
		return nil, fmt.Errorf("extract: base URL and model required")
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqBody, err := json.Marshal(chatRequest{
		Model: e.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: e.prompt(doc)},
		},
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.APIKey)
	}

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extract: endpoint returned %s", resp.Status)
	}

	var payload chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("extract: decode response: %w", err)
	}
	if payload.Error != nil {
		return nil, fmt.Errorf("extract: %s", payload.Error.Message)
	}
	if len(payload.Choices) == 0 {
		return nil, fmt.Errorf("extract: empty response")
	}

	return parseKeyphrases(doc.ID, payload.Choices[0].Message.Content), nil
}

// parseKeyphrases pulls the keyphrase list out of the model's reply.
// Malformed replies yield an empty list, never an error.
func parseKeyphrases(docID, content string) []string {
	content = strings.TrimSpace(content)
	// Models occasionally wrap the JSON in a code fence despite the prompt.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var parsed keyphrasePayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &parsed); err != nil {
		log.Warnf("Malformed extraction response for %s, treating as empty: %v", docID, err)
		return nil
	}
	return parsed.Keyphrases
}

// prompt builds the per-document user prompt: target hint, category focus
// and a bounded summary of the flattened content.
func (e *LLMExtractor) prompt(doc corpus.Document) string {
	const maxChars = 15000

	target := e.PerPageTarget[doc.Category]
	if target <= 0 {
		target = fallbackPerPage
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Extract search keyphrases from this API documentation.\n\n")
	fmt.Fprintf(&b, "Target: ~%d keyphrases", target)
	if focus := e.Focus[doc.Category]; focus != "" {
		fmt.Fprintf(&b, " (focus on: %s)", focus)
	}
	fmt.Fprintf(&b, "\n\nDocument: %s\nType: %s\n", doc.Title, doc.Category)
	if len(doc.Headings) > 0 {
		fmt.Fprintf(&b, "Sections: %s\n", strings.Join(doc.Headings, "; "))
	}
	if len(doc.Fields) > 0 {
		fmt.Fprintf(&b, "Fields: %s\n", strings.Join(doc.Fields, ", "))
	}
	b.WriteString("\n")

	content := doc.Content
	if len(content) > maxChars {
		content = content[:maxChars] + "...[truncated]"
	}
	b.WriteString(content)
	return b.String()
}
