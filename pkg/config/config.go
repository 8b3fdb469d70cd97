/*
Package config manages TOML config for searchseed pipeline runs.
*/
package config

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/searchseed/searchseed/internal/utils"
)

// Config holds the entire config structure
type Config struct {
	Run        RunConfig        `toml:"run"`
	Pipeline   PipelineConfig   `toml:"pipeline"`
	Extract    ExtractConfig    `toml:"extract"`
	Rank       RankConfig       `toml:"rank"`
	Categories []CategoryConfig `toml:"category"`
}

// RunConfig has run level options.
type RunConfig struct {
	InputDir       string `toml:"input_dir"`
	OutputFile     string `toml:"output_file"`
	IndexSnapshot  string `toml:"index_snapshot"`
	LexiconFile    string `toml:"lexicon_file"`
	GlobalTarget   int    `toml:"global_target"`
	CommonCategory string `toml:"common_category"`
	// IncludeAudit controls whether the audit log is written into the
	// results file alongside the keyphrases.
	IncludeAudit bool `toml:"include_audit"`
}

// PipelineConfig controls the concurrent extraction phase.
type PipelineConfig struct {
	Workers           int     `toml:"workers"`
	MaxAttempts       int     `toml:"max_attempts"`
	RetryBaseMs       int     `toml:"retry_base_ms"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// ExtractConfig selects and configures the extraction collaborator.
// Mode "rules" runs the deterministic offline extractor, "llm" calls an
// OpenAI-compatible chat endpoint.
type ExtractConfig struct {
	Mode      string `toml:"mode"`
	BaseURL   string `toml:"base_url"`
	Model     string `toml:"model"`
	APIKeyEnv string `toml:"api_key_env"`
	TimeoutMs int    `toml:"timeout_ms"`
}

// RankConfig holds scoring weights for the final pass.
type RankConfig struct {
	BreadthWeight    float64  `toml:"breadth_weight"`
	OverQuotaPenalty float64  `toml:"over_quota_penalty"`
	HowToBonus       float64  `toml:"how_to_bonus"`
	HowToPrefixes    []string `toml:"how_to_prefixes"`
}

// CategoryConfig describes one document category: its folder aliases in the
// corpus tree, its soft quota, and its extraction focus.
type CategoryConfig struct {
	Name           string   `toml:"name"`
	Folders        []string `toml:"folders"`
	SoftTarget     int      `toml:"soft_target"`
	OverflowMargin int      `toml:"overflow_margin"`
	PriorityWeight float64  `toml:"priority_weight"`
	MinWords       int      `toml:"min_words"`
	MaxWords       int      `toml:"max_words"`
	PerPageTarget  int      `toml:"per_page_target"`
	Focus          string   `toml:"focus"`
}

// DefaultConfig returns a Config with default values.
// Category defaults mirror the documentation corpus this pipeline was built
// for: API reference, guides, solutions, product overviews plus the shared
// common section.
func DefaultConfig() *Config {
	return &Config{
		Run: RunConfig{
			InputDir:       "keywords",
			OutputFile:     "extracted_keyphrases.json",
			IndexSnapshot:  "keyphrases.idx",
			LexiconFile:    "",
			GlobalTarget:   300,
			CommonCategory: "common",
			IncludeAudit:   true,
		},
		Pipeline: PipelineConfig{
			Workers:           4,
			MaxAttempts:       3,
			RetryBaseMs:       500,
			RequestsPerSecond: 2.0,
			Burst:             4,
		},
		Extract: ExtractConfig{
			Mode:      "rules",
			APIKeyEnv: "SEARCHSEED_API_KEY",
			TimeoutMs: 15000,
		},
		Rank: RankConfig{
			BreadthWeight:    1.0,
			OverQuotaPenalty: 0.5,
			HowToBonus:       0.25,
			HowToPrefixes:    []string{"how to"},
		},
		Categories: []CategoryConfig{
			{
				Name:           "reference",
				Folders:        []string{"api-reference", "apireference", "api reference"},
				SoftTarget:     120,
				OverflowMargin: 20,
				PriorityWeight: 1.0,
				MinWords:       1,
				MaxWords:       5,
				PerPageTarget:  4,
				Focus:          "API name, key operations, unique fields, scopes",
			},
			{
				Name:           "guide",
				Folders:        []string{"guides", "guide"},
				SoftTarget:     90,
				OverflowMargin: 15,
				PriorityWeight: 1.2,
				MinWords:       1,
				MaxWords:       5,
				PerPageTarget:  6,
				Focus:          "Workflow names, integration concepts, step names",
			},
			{
				Name:           "solution",
				Folders:        []string{"solution", "solutions"},
				SoftTarget:     50,
				OverflowMargin: 10,
				PriorityWeight: 0.8,
				MinWords:       1,
				MaxWords:       5,
				PerPageTarget:  4,
				Focus:          "Use case names, business scenarios",
			},
			{
				Name:           "overview",
				Folders:        []string{"api-overview", "product-overview", "productoverview"},
				SoftTarget:     25,
				OverflowMargin: 5,
				PriorityWeight: 0.6,
				MinWords:       1,
				MaxWords:       5,
				PerPageTarget:  2,
				Focus:          "Product name, key capability only",
			},
			{
				Name:           "common",
				Folders:        []string{"common", "shared"},
				SoftTarget:     15,
				OverflowMargin: 5,
				PriorityWeight: 0.5,
				MinWords:       1,
				MaxWords:       4,
				PerPageTarget:  3,
				Focus:          "Shared platform terms every page repeats",
			},
		},
	}
}

// Category returns the config block for a category name.
func (c *Config) Category(name string) (CategoryConfig, bool) {
	for _, cat := range c.Categories {
		if cat.Name == name {
			return cat, true
		}
	}
	return CategoryConfig{}, false
}

// Validate fails fast on configuration errors before any extraction call is
// issued. Run level failures here are the only fatal errors in a run.
func (c *Config) Validate() error {
	if c.Run.GlobalTarget <= 0 {
		return fmt.Errorf("config: global_target must be positive, got %d", c.Run.GlobalTarget)
	}
	if len(c.Categories) == 0 {
		return fmt.Errorf("config: at least one category is required")
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("config: pipeline workers must be >= 1, got %d", c.Pipeline.Workers)
	}
	if c.Pipeline.MaxAttempts < 1 {
		return fmt.Errorf("config: max_attempts must be >= 1, got %d", c.Pipeline.MaxAttempts)
	}
	switch c.Extract.Mode {
	case "rules", "llm":
	default:
		return fmt.Errorf("config: unknown extract mode %q", c.Extract.Mode)
	}

	seen := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		if cat.Name == "" {
			return fmt.Errorf("config: category with empty name")
		}
		if seen[cat.Name] {
			return fmt.Errorf("config: duplicate category %q", cat.Name)
		}
		seen[cat.Name] = true
		if cat.SoftTarget < 0 || cat.OverflowMargin < 0 {
			return fmt.Errorf("config: category %q has negative quota values", cat.Name)
		}
		if cat.PriorityWeight < 0 {
			return fmt.Errorf("config: category %q has negative priority_weight", cat.Name)
		}
		if cat.MinWords < 1 || cat.MaxWords < cat.MinWords {
			return fmt.Errorf("config: category %q has invalid word range [%d, %d]",
				cat.Name, cat.MinWords, cat.MaxWords)
		}
	}
	if c.Run.CommonCategory != "" && !seen[c.Run.CommonCategory] {
		return fmt.Errorf("config: common_category %q is not a configured category", c.Run.CommonCategory)
	}
	return nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if utils.FileExists(customConfigPath) {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				return nil, "", fmt.Errorf("load config %s: %w", customConfigPath, err)
			}
			log.Debugf("Loaded config from custom path: %s", customConfigPath)
			return config, customConfigPath, nil
		}
		log.Warnf("Config file not found at %s. Using builtin defaults...", customConfigPath)
	}
	return DefaultConfig(), "", nil
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse attempts to parse a TOML file
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if runSection, ok := utils.ExtractSection(tempConfig, "run"); ok {
		extractRunConfig(runSection, &config.Run)
	}
	if pipeSection, ok := utils.ExtractSection(tempConfig, "pipeline"); ok {
		extractPipelineConfig(pipeSection, &config.Pipeline)
	}
	if rankSection, ok := utils.ExtractSection(tempConfig, "rank"); ok {
		extractRankConfig(rankSection, &config.Rank)
	}
	return config, nil
}

// extractRunConfig extracts run configuration from a map
func extractRunConfig(data map[string]any, run *RunConfig) {
	if val, ok := utils.ExtractString(data, "input_dir"); ok {
		run.InputDir = val
	}
	if val, ok := utils.ExtractString(data, "output_file"); ok {
		run.OutputFile = val
	}
	if val, ok := utils.ExtractString(data, "index_snapshot"); ok {
		run.IndexSnapshot = val
	}
	if val, ok := utils.ExtractString(data, "lexicon_file"); ok {
		run.LexiconFile = val
	}
	if val, ok := utils.ExtractInt64(data, "global_target"); ok {
		run.GlobalTarget = val
	}
	if val, ok := utils.ExtractString(data, "common_category"); ok {
		run.CommonCategory = val
	}
	if val, ok := utils.ExtractBool(data, "include_audit"); ok {
		run.IncludeAudit = val
	}
}

// extractPipelineConfig extracts pipeline configuration from a map
func extractPipelineConfig(data map[string]any, pipe *PipelineConfig) {
	if val, ok := utils.ExtractInt64(data, "workers"); ok {
		pipe.Workers = val
	}
	if val, ok := utils.ExtractInt64(data, "max_attempts"); ok {
		pipe.MaxAttempts = val
	}
	if val, ok := utils.ExtractInt64(data, "retry_base_ms"); ok {
		pipe.RetryBaseMs = val
	}
	if val, ok := utils.ExtractFloat64(data, "requests_per_second"); ok {
		pipe.RequestsPerSecond = val
	}
	if val, ok := utils.ExtractInt64(data, "burst"); ok {
		pipe.Burst = val
	}
}

// extractRankConfig extracts ranking weights from a map
func extractRankConfig(data map[string]any, rank *RankConfig) {
	if val, ok := utils.ExtractFloat64(data, "breadth_weight"); ok {
		rank.BreadthWeight = val
	}
	if val, ok := utils.ExtractFloat64(data, "over_quota_penalty"); ok {
		rank.OverQuotaPenalty = val
	}
	if val, ok := utils.ExtractFloat64(data, "how_to_bonus"); ok {
		rank.HowToBonus = val
	}
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// CategoryForFolder resolves a corpus folder name to a category name using
// the configured folder aliases. Matching is case-insensitive; unresolved
// folders fall back to "overview" as the least specific category, mirroring
// how unclassified pages were treated upstream.
func (c *Config) CategoryForFolder(folder string) string {
	lower := strings.ToLower(folder)
	for _, cat := range c.Categories {
		for _, alias := range cat.Folders {
			if lower == alias || strings.Contains(lower, alias) {
				return cat.Name
			}
		}
		if lower == cat.Name {
			return cat.Name
		}
	}
	return "overview"
}
