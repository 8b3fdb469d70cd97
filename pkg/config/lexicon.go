package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Lexicon holds the language data the normalizer and merger consult: the
// stoplist of generic terms, the acronyms that keep their casing, and the
// acronym/full-name pairs that stay linked but searchable under both forms.
type Lexicon struct {
	Stoplist []string      `yaml:"stoplist"`
	Acronyms []string      `yaml:"acronyms"`
	Pairs    []AcronymPair `yaml:"pairs"`
}

// AcronymPair links an acronym to its expanded name ("RTP" / "Real-Time Payments").
type AcronymPair struct {
	Acronym  string `yaml:"acronym"`
	FullName string `yaml:"full_name"`
}

// DefaultLexicon returns the builtin lexicon for banking/payments API docs.
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		Stoplist: []string{
			"api", "apis", "documentation", "guide", "overview", "page",
			"introduction", "getting started", "sandbox", "production",
		},
		Acronyms: []string{
			"ACH", "RTP", "FedNow", "SEC", "CCD", "PPD", "CTX", "IAT",
			"WEB", "TEL", "UETR", "OAuth", "JSON", "ISO",
		},
		Pairs: []AcronymPair{
			{Acronym: "RTP", FullName: "Real-Time Payments"},
			{Acronym: "ACH", FullName: "Automated Clearing House"},
		},
	}
}

// LoadLexicon loads a lexicon from a YAML file. An empty path returns the
// builtin defaults. Missing sections in the file fall back to defaults so a
// lexicon file can override just the stoplist.
func LoadLexicon(path string) (*Lexicon, error) {
	if path == "" {
		return DefaultLexicon(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}

	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("parse lexicon %s: %w", path, err)
	}

	defaults := DefaultLexicon()
	if lex.Stoplist == nil {
		lex.Stoplist = defaults.Stoplist
	}
	if lex.Acronyms == nil {
		lex.Acronyms = defaults.Acronyms
	}
	if lex.Pairs == nil {
		lex.Pairs = defaults.Pairs
	}
	return &lex, nil
}
