package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchseed/searchseed/pkg/corpus"
)

func TestParseKeyphrases(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"plain json", `{"keyphrases": ["ACH payment", "same day ACH"]}`, []string{"ACH payment", "same day ACH"}},
		{"fenced json", "```json\n{\"keyphrases\": [\"webhook signature\"]}\n```", []string{"webhook signature"}},
		{"empty list", `{"keyphrases": []}`, []string{}},
		{"malformed yields empty", `here are your keyphrases: ACH payment`, nil},
		{"truncated json yields empty", `{"keyphrases": ["ACH`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseKeyphrases("doc1", tt.content)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func chatReply(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	}
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func TestLLMExtract(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		chatReply(t, w, `{"keyphrases": ["ACH payment", "payment_id"]}`)
	}))
	defer srv.Close()

	e := NewLLMExtractor(srv.URL, "test-key", "test-model", 100, 10, 5*time.Second)
	e.PerPageTarget = map[string]int{"reference": 4}
	e.Focus = map[string]string{"reference": "API name, key operations"}

	doc := corpus.Document{
		ID:       "api-reference/ach.json",
		Category: "reference",
		Title:    "ach",
		Headings: []string{"ACH Payments"},
		Fields:   []string{"payment_id"},
		Content:  "Send and receive ACH payments.",
	}
	phrases, err := e.Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"ACH payment", "payment_id"}, phrases)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "test-model", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Contains(t, gotReq.Messages[1].Content, "Target: ~4 keyphrases")
	assert.Contains(t, gotReq.Messages[1].Content, "focus on: API name, key operations")
	assert.Contains(t, gotReq.Messages[1].Content, "ACH Payments")
}

func TestLLMExtractServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	e := NewLLMExtractor(srv.URL, "", "test-model", 100, 10, 5*time.Second)
	_, err := e.Extract(context.Background(), corpus.Document{ID: "d1", Category: "guide"})
	assert.Error(t, err, "transport and status errors surface for the pipeline to retry")
}

func TestLLMExtractMalformedPayloadIsEmptyNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, "sorry, I cannot produce JSON today")
	}))
	defer srv.Close()

	e := NewLLMExtractor(srv.URL, "", "test-model", 100, 10, 5*time.Second)
	phrases, err := e.Extract(context.Background(), corpus.Document{ID: "d1", Category: "guide"})
	require.NoError(t, err)
	assert.Empty(t, phrases)
}

func TestLLMExtractRequiresEndpoint(t *testing.T) {
	e := NewLLMExtractor("", "", "", 1, 1, time.Second)
	_, err := e.Extract(context.Background(), corpus.Document{ID: "d1"})
	assert.Error(t, err)
}
