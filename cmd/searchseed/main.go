/*
Package main implements the searchseed keyphrase aggregation pipeline.

Searchseed ingests a corpus of API documentation pages grouped into category
folders, runs a per-document keyphrase extraction step, and reduces the
per-document candidate lists into one bounded, deduplicated, ranked
keyphrase set for an autocomplete index.

# Usage

Run over a corpus directory with builtin defaults:

	searchseed -input ./keywords

Use a custom config and enable debug logging:

	searchseed -config ./searchseed.toml -d

The input directory holds JSON documentation files in category folders:

	keywords/
	├── api-reference/
	│   ├── instant_payment.json
	│   └── ACH_Payments.json
	├── guides/
	│   └── webhooks.json
	├── solution/
	├── api-overview/
	└── common/

Folder names resolve to categories through configurable aliases. Documents
in the common folder are processed in a dedicated first pass; their admitted
terms exclude exact duplicates from every other category.

# Configuration

Runtime configuration is a TOML file covering the run targets, the worker
pool, ranking weights and per-category quotas:

	[run]
	global_target = 300
	common_category = "common"

	[pipeline]
	workers = 4
	max_attempts = 3

	[[category]]
	name = "reference"
	folders = ["api-reference"]
	soft_target = 120
	overflow_margin = 20
	priority_weight = 1.0

Language data (stoplist, acronym casing, acronym/full-name pairs) lives in
an optional YAML lexicon file referenced by run.lexicon_file.

# Extraction

Extraction mode "rules" (default) derives candidates from document structure
and runs fully offline. Mode "llm" calls an OpenAI-compatible chat endpoint
with bounded concurrency, token-bucket rate limiting and bounded retries;
documents that fail all attempts degrade to empty and the run continues.

# Output

A completed run writes a JSON results file (keyphrases, per-category stats
and the audit log of rejected or excluded phrases) plus a msgpack index
snapshot that pkg/index can reload for prefix completion without re-running
the pipeline.
*/
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/searchseed/searchseed/internal/logger"
	"github.com/searchseed/searchseed/internal/utils"
	"github.com/searchseed/searchseed/pkg/config"
	"github.com/searchseed/searchseed/pkg/corpus"
	"github.com/searchseed/searchseed/pkg/extract"
	"github.com/searchseed/searchseed/pkg/index"
	"github.com/searchseed/searchseed/pkg/keyphrase"
	"github.com/searchseed/searchseed/pkg/pipeline"
)

type resultsFile struct {
	Configuration struct {
		InputDir    string `json:"input_dir"`
		TargetCount int    `json:"target_count"`
	} `json:"configuration"`
	Stats      pipeline.Summary            `json:"stats"`
	Keyphrases []keyphrase.RankedKeyphrase `json:"keyphrases"`
	Audit      []keyphrase.AuditEntry      `json:"audit,omitempty"`
}

func main() {
	configPath := flag.String("config", "", "Path to TOML config file")
	inputDir := flag.String("input", "", "Corpus directory (overrides config)")
	outputFile := flag.String("out", "", "Results JSON path (overrides config)")
	indexPath := flag.String("index", "", "Index snapshot path (overrides config)")
	lexiconPath := flag.String("lexicon", "", "Lexicon YAML path (overrides config)")
	globalTarget := flag.Int("target", 0, "Global keyphrase target (overrides config)")
	workers := flag.Int("workers", 0, "Concurrent extraction calls (overrides config)")
	mode := flag.String("mode", "", "Extraction mode: rules or llm (overrides config)")
	writeConfig := flag.String("write-config", "", "Write the builtin default config to a TOML file and exit")
	debug := flag.Bool("d", false, "Enable debug logging")
	flag.Parse()

	runLog := logger.New("searchseed")
	if *debug {
		log.SetLevel(log.DebugLevel)
		runLog = logger.NewWithConfig("searchseed", log.DebugLevel, true, true, log.TextFormatter)
	}

	if *writeConfig != "" {
		if err := config.SaveConfig(config.DefaultConfig(), *writeConfig); err != nil {
			runLog.Fatalf("Writing config: %v", err)
		}
		runLog.Infof("Default config written to %s", utils.GetAbsolutePath(*writeConfig))
		return
	}

	cfg, loadedFrom, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		runLog.Fatalf("Config error: %v", err)
	}
	if loadedFrom != "" {
		runLog.Debugf("Config loaded from %s", utils.GetAbsolutePath(loadedFrom))
	}
	applyOverrides(cfg, *inputDir, *outputFile, *indexPath, *lexiconPath, *mode, *globalTarget, *workers)

	// Configuration errors are the only fatal errors: fail before any
	// extraction call is issued.
	if err := cfg.Validate(); err != nil {
		runLog.Fatalf("Invalid configuration: %v", err)
	}
	checkOutputDirs(runLog, cfg)

	lex, err := config.LoadLexicon(cfg.Run.LexiconFile)
	if err != nil {
		runLog.Fatalf("Lexicon error: %v", err)
	}

	docs, err := corpus.Load(cfg.Run.InputDir, cfg.CategoryForFolder, cfg.Run.OutputFile)
	if err != nil {
		runLog.Fatalf("Corpus error: %v", err)
	}
	if len(docs) == 0 {
		runLog.Warnf("No documents found in %s", cfg.Run.InputDir)
	}

	runner := buildRunner(cfg, lex)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := runner.Run(ctx, docs)
	if err != nil {
		runLog.Fatalf("Run failed: %v", err)
	}

	if err := writeResults(cfg, result); err != nil {
		runLog.Errorf("Writing results: %v", err)
	}
	if cfg.Run.IndexSnapshot != "" {
		if err := index.WriteSnapshot(cfg.Run.IndexSnapshot, result.Summary.RunID, result.Keyphrases); err != nil {
			runLog.Errorf("Writing index snapshot: %v", err)
		}
	}

	printSummary(runLog, result)
}

func applyOverrides(cfg *config.Config, inputDir, outputFile, indexPath, lexiconPath, mode string, globalTarget, workers int) {
	if inputDir != "" {
		cfg.Run.InputDir = inputDir
	}
	if outputFile != "" {
		cfg.Run.OutputFile = outputFile
	}
	if indexPath != "" {
		cfg.Run.IndexSnapshot = indexPath
	}
	if lexiconPath != "" {
		cfg.Run.LexiconFile = lexiconPath
	}
	if mode != "" {
		cfg.Extract.Mode = mode
	}
	if globalTarget > 0 {
		cfg.Run.GlobalTarget = globalTarget
	}
	if workers > 0 {
		cfg.Pipeline.Workers = workers
	}
}

// buildRunner wires the engine from configuration: normalizer, cluster set,
// quota tracker, aggregator, extractor and ranker weights.
func buildRunner(cfg *config.Config, lex *config.Lexicon) *pipeline.Runner {
	ranges := make(map[string]keyphrase.WordRange, len(cfg.Categories))
	quotas := make(map[string]keyphrase.Quota, len(cfg.Categories))
	priorities := make(map[string]float64, len(cfg.Categories))
	perPage := make(map[string]int, len(cfg.Categories))
	focus := make(map[string]string, len(cfg.Categories))
	for _, cat := range cfg.Categories {
		ranges[cat.Name] = keyphrase.WordRange{Min: cat.MinWords, Max: cat.MaxWords}
		quotas[cat.Name] = keyphrase.Quota{SoftTarget: cat.SoftTarget, OverflowMargin: cat.OverflowMargin}
		priorities[cat.Name] = cat.PriorityWeight
		perPage[cat.Name] = cat.PerPageTarget
		focus[cat.Name] = cat.Focus
	}

	pairs := make(map[string]string, len(lex.Pairs))
	for _, p := range lex.Pairs {
		pairs[p.Acronym] = p.FullName
	}

	norm := keyphrase.NewNormalizer(lex.Stoplist, lex.Acronyms, ranges)
	clusters := keyphrase.NewClusterSet(pairs, norm.IsAcronym)
	quota := keyphrase.NewQuotaTracker(quotas, cfg.Run.GlobalTarget)
	audit := &keyphrase.AuditLog{}
	agg := keyphrase.NewAggregator(norm, clusters, quota, audit, cfg.Run.CommonCategory)

	var extractor extract.Extractor
	switch cfg.Extract.Mode {
	case "llm":
		llm := extract.NewLLMExtractor(
			cfg.Extract.BaseURL,
			os.Getenv(cfg.Extract.APIKeyEnv),
			cfg.Extract.Model,
			cfg.Pipeline.RequestsPerSecond,
			cfg.Pipeline.Burst,
			time.Duration(cfg.Extract.TimeoutMs)*time.Millisecond,
		)
		llm.PerPageTarget = perPage
		llm.Focus = focus
		extractor = llm
	default:
		extractor = extract.NewRuleExtractor(perPage)
	}

	weights := keyphrase.RankWeights{
		Breadth:          cfg.Rank.BreadthWeight,
		Priority:         priorities,
		OverQuotaPenalty: cfg.Rank.OverQuotaPenalty,
		HowToBonus:       cfg.Rank.HowToBonus,
		HowToPrefixes:    cfg.Rank.HowToPrefixes,
	}

	return pipeline.NewRunner(extractor, agg, audit, weights, pipeline.Options{
		Workers:        cfg.Pipeline.Workers,
		MaxAttempts:    cfg.Pipeline.MaxAttempts,
		RetryBase:      time.Duration(cfg.Pipeline.RetryBaseMs) * time.Millisecond,
		CommonCategory: cfg.Run.CommonCategory,
		GlobalTarget:   cfg.Run.GlobalTarget,
	})
}

// checkOutputDirs fails before any extraction call is issued when an output
// destination cannot be written.
func checkOutputDirs(runLog *log.Logger, cfg *config.Config) {
	for _, target := range []string{cfg.Run.OutputFile, cfg.Run.IndexSnapshot} {
		if target == "" {
			continue
		}
		status := utils.CheckDirStatus(filepath.Dir(target))
		if status.Error != nil {
			runLog.Fatalf("Output directory for %s: %v", target, status.Error)
		}
		if !status.Writable {
			runLog.Fatalf("Output directory for %s is not writable", target)
		}
	}
}

func writeResults(cfg *config.Config, result *pipeline.Result) error {
	if cfg.Run.OutputFile == "" {
		return nil
	}
	var out resultsFile
	out.Configuration.InputDir = cfg.Run.InputDir
	out.Configuration.TargetCount = cfg.Run.GlobalTarget
	out.Stats = result.Summary
	out.Keyphrases = result.Keyphrases
	if cfg.Run.IncludeAudit {
		out.Audit = result.Audit
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	if err := utils.EnsureDir(filepath.Dir(cfg.Run.OutputFile)); err != nil {
		return fmt.Errorf("results dir: %w", err)
	}
	if err := os.WriteFile(cfg.Run.OutputFile, data, 0644); err != nil {
		return fmt.Errorf("write results %s: %w", cfg.Run.OutputFile, err)
	}
	return nil
}

func printSummary(runLog *log.Logger, result *pipeline.Result) {
	s := result.Summary
	runLog.Infof("Run %s complete", s.RunID)
	runLog.Infof("Documents: %d processed of %d (%d degraded)", s.DocumentsProcessed, s.DocumentsTotal, s.DegradedDocuments)
	runLog.Infof("Phrases: %d extracted, %d clusters, %d final (target %d)",
		s.ExtractedPhrases, s.AdmittedClusters, s.FinalKeyphrases, s.GlobalTarget)
	for _, cat := range s.CategoryNames() {
		runLog.Infof("  %s: %d", cat, s.Categories[cat])
	}
	if len(result.Audit) > 0 {
		runLog.Infof("Audit entries: %d", len(result.Audit))
	}
}
