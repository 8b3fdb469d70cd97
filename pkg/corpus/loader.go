package corpus

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// CategoryResolver maps a corpus folder name to a category name.
type CategoryResolver func(folder string) string

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// StripHTML removes HTML tags and squeezes the leftover whitespace.
func StripHTML(text string) string {
	if text == "" {
		return ""
	}
	clean := htmlTagRe.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(clean), " ")
}

// priority keys flattened first so titles and section headers lead the text.
var priorityKeys = []string{
	"header", "pageTitleSuffix", "introductionHeader", "introductionBodyText",
	"useCaseHeader", "useCaseBodyText", "useCaseEndpoint", "useCaseMethod",
	"sectionHeader", "bodyText", "subSectionHeader", "details",
}

var headingKeys = map[string]bool{
	"header":             true,
	"introductionHeader": true,
	"useCaseHeader":      true,
	"sectionHeader":      true,
	"subSectionHeader":   true,
}

const maxFlattenDepth = 10

// Load walks dir for JSON documentation files and returns Documents sorted
// by path, so a run over the same tree always sees the same arrival order.
// Files named in skipNames (e.g. a previous run's output) are ignored.
// Unreadable or malformed files are logged and skipped, never fatal.
func Load(dir string, resolve CategoryResolver, skipNames ...string) ([]Document, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("corpus dir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus path %s is not a directory", dir)
	}

	skip := make(map[string]bool, len(skipNames))
	for _, name := range skipNames {
		skip[filepath.Base(name)] = true
	}

	var docs []Document
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			log.Warnf("Skipping %s: %v", path, walkErr)
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".json") {
			return nil
		}
		if skip[d.Name()] {
			return nil
		}

		folder := filepath.Base(filepath.Dir(path))
		if filepath.Dir(path) == filepath.Clean(dir) {
			folder = ""
		}
		doc, err := loadFile(path, resolve(folder))
		if err != nil {
			log.Warnf("Skipping malformed document %s: %v", path, err)
			return nil
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = path
		}
		doc.ID = filepath.ToSlash(rel)
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	log.Debugf("Loaded %d documents from %s", len(docs), dir)
	return docs, nil
}

func loadFile(path, category string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Document{}, fmt.Errorf("parse json: %w", err)
	}

	doc := Document{
		Category: category,
		Title:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}
	var parts []string
	flatten(raw, maxFlattenDepth, &parts, &doc)
	doc.Content = strings.Join(parts, " ")
	return doc, nil
}

// flatten recursively extracts text content from nested JSON, visiting the
// priority keys of each object first. Headings and parameter names are also
// collected on the way down.
func flatten(data any, depth int, parts *[]string, doc *Document) {
	if depth <= 0 {
		return
	}

	switch v := data.(type) {
	case map[string]any:
		visited := make(map[string]bool, len(priorityKeys))
		for _, key := range priorityKeys {
			val, ok := v[key]
			if !ok {
				continue
			}
			visited[key] = true
			if s, ok := val.(string); ok {
				clean := StripHTML(s)
				if clean == "" {
					continue
				}
				*parts = append(*parts, clean)
				if headingKeys[key] {
					doc.Headings = append(doc.Headings, clean)
				}
			} else {
				flatten(val, depth-1, parts, doc)
			}
		}
		if s, ok := v["parameter"].(string); ok && s != "" {
			doc.Fields = append(doc.Fields, strings.TrimSpace(s))
		}
		// Remaining keys in sorted order to keep flattening deterministic.
		rest := make([]string, 0, len(v))
		for key := range v {
			if !visited[key] && key != "parameter" {
				rest = append(rest, key)
			}
		}
		sort.Strings(rest)
		for _, key := range rest {
			if _, isString := v[key].(string); isString {
				continue
			}
			flatten(v[key], depth-1, parts, doc)
		}
	case []any:
		for _, item := range v {
			flatten(item, depth-1, parts, doc)
		}
	}
}
