package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchseed/searchseed/pkg/corpus"
)

func TestRuleExtract(t *testing.T) {
	e := NewRuleExtractor(map[string]int{"reference": 4})
	doc := corpus.Document{
		ID:       "api-reference/ACH_Payments.json",
		Category: "reference",
		Title:    "ACH_Payments",
		Headings: []string{"ACH Payments", "Create a payment", "Payment status"},
		Fields:   []string{"payment_id", "sec_code"},
	}

	phrases, err := e.Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"ACH Payments", "Create a payment", "Payment status", "payment_id"}, phrases,
		"title duplicate of the first heading is dropped, then capped at the page target")
}

func TestRuleExtractFallbackCap(t *testing.T) {
	e := NewRuleExtractor(nil)
	doc := corpus.Document{
		Category: "mystery",
		Title:    "webhooks",
		Headings: []string{"Webhook signatures", "Retries", "Event types", "Ordering", "Replay"},
	}

	phrases, err := e.Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Len(t, phrases, 4)
	assert.Equal(t, "webhooks", phrases[0])
}

func TestRuleExtractDeterministic(t *testing.T) {
	e := NewRuleExtractor(map[string]int{"guide": 6})
	doc := corpus.Document{
		Category: "guide",
		Title:    "instant_payment",
		Headings: []string{"Send an instant payment", "Instant Payment", "instant payment"},
		Fields:   []string{"uetr"},
	}

	first, err := e.Extract(context.Background(), doc)
	require.NoError(t, err)
	second, err := e.Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"instant payment", "Send an instant payment", "uetr"}, first,
		"case-insensitive duplicates keep the first casing seen")
}

func TestTitlePhrase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ACH_Payments", "ACH Payments"},
		{"instant_payment", "instant payment"},
		{"wire-transfers", "wire transfers"},
		{"webhooks", "webhooks"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, titlePhrase(tt.in))
	}
}
