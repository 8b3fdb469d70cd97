/*
Package index turns a run's ranked keyphrases into a prefix-searchable
autocomplete index backed by a Patricia trie, and persists it as a msgpack
snapshot so the index can be reloaded without re-running the pipeline.
*/
package index

import (
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/searchseed/searchseed/pkg/keyphrase"
)

// Suggestion is one completion hit.
type Suggestion struct {
	Text     string
	Category string
	Score    float64
}

// Completer answers prefix queries over the final keyphrase set. Lookups
// are case-insensitive; suggestions keep the representative's casing.
type Completer struct {
	trie    *patricia.Trie
	entries map[string]keyphrase.RankedKeyphrase // lowercased text -> keyphrase
}

// Build creates a completer from ranked keyphrases. When two phrases differ
// only by casing the higher scored one wins the slot.
func Build(phrases []keyphrase.RankedKeyphrase) *Completer {
	c := &Completer{
		trie:    patricia.NewTrie(),
		entries: make(map[string]keyphrase.RankedKeyphrase, len(phrases)),
	}
	for _, kp := range phrases {
		key := strings.ToLower(kp.Text)
		if existing, ok := c.entries[key]; ok && existing.Score >= kp.Score {
			continue
		}
		c.entries[key] = kp
		c.trie.Insert(patricia.Prefix(key), kp.Score)
	}
	return c
}

// Len returns the number of indexed keyphrases.
func (c *Completer) Len() int {
	return len(c.entries)
}

// Complete returns up to limit suggestions for the prefix, highest score
// first, ties by text ascending.
func (c *Completer) Complete(prefix string, limit int) []Suggestion {
	lowerPrefix := strings.ToLower(strings.TrimSpace(prefix))
	if lowerPrefix == "" {
		return nil
	}

	var suggestions []Suggestion
	err := c.trie.VisitSubtree(patricia.Prefix(lowerPrefix), func(p patricia.Prefix, item patricia.Item) error {
		kp, ok := c.entries[string(p)]
		if !ok {
			return nil
		}
		suggestions = append(suggestions, Suggestion{
			Text:     kp.Text,
			Category: kp.Category,
			Score:    kp.Score,
		})
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting trie subtree: %v", err)
		return nil
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].Text < suggestions[j].Text
	})

	if limit > 0 && len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}
