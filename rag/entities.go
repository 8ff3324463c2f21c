package rag

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// EntityCategory classifies an extracted entity.
type EntityCategory string

const (
	CategoryTechnology EntityCategory = "TECHNOLOGY"
	CategoryConcept    EntityCategory = "CONCEPT"
	CategoryMetric     EntityCategory = "METRIC"
	CategoryCustom     EntityCategory = "CUSTOM"
)

// categoryWeights scale a mention's contribution to its edge weight.
// Technology terms are the strongest retrieval signal in this corpus;
// custom phrases the weakest since the pattern match is noisy.
var categoryWeights = map[EntityCategory]float64{
	CategoryTechnology: 0.4,
	CategoryConcept:    0.35,
	CategoryMetric:     0.3,
	CategoryCustom:     0.25,
}

// Weight returns the category's per-mention weight multiplier.
func (c EntityCategory) Weight() float64 {
	if w, ok := categoryWeights[c]; ok {
		return w
	}
	return 0.25
}

// Entity is a named concept extracted from the chunk corpus.
type Entity struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Category  EntityCategory `json:"category"`
	Frequency int            `json:"frequency"`
	ChunkIDs  []string       `json:"chunkIds"`
}

// EntityID derives the stable entity identifier. It is a pure function of
// category and normalized name, so re-extraction is idempotent.
func EntityID(category EntityCategory, name string) string {
	return fmt.Sprintf("entity:%s:%s", strings.ToLower(string(category)), strings.ToLower(strings.TrimSpace(name)))
}

// lexicon lists the fixed domain terms per category.
var lexicon = map[EntityCategory][]string{
	CategoryTechnology: {
		"python", "pytorch", "tensorflow", "bert", "gpt", "llm", "mistral",
		"rag", "aws", "gcp", "lambda", "ec2", "kubernetes", "kafka", "docker",
		"react", "node.js", "spark", "airflow", "langchain",
	},
	CategoryConcept: {
		"machine learning", "deep learning", "natural language processing",
		"nlp", "artificial intelligence", "ai", "embeddings", "fine-tuning",
		"prompt engineering", "computer vision", "data engineering",
		"generative ai", "vector search", "knowledge graph",
	},
	CategoryMetric: {
		"accuracy", "f1", "precision", "recall", "latency", "throughput", "cost",
	},
}

var (
	// Capitalized multi-word phrases, e.g. "Stevens Institute".
	customPhraseRe = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+\b`)
	// All-caps acronyms longer than two letters, e.g. "RAGAS".
	acronymRe = regexp.MustCompile(`\b[A-Z]{3,}\b`)
)

// Extractor pulls entities out of chunks via lexicon and pattern matching.
type Extractor struct {
	terms  map[string]EntityCategory // normalized term -> category
	regexp map[string]*regexp.Regexp // normalized term -> whole-word matcher
	logger *zap.Logger
}

// NewExtractor compiles the lexicon matchers.
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}

	terms := make(map[string]EntityCategory)
	matchers := make(map[string]*regexp.Regexp)
	for category, words := range lexicon {
		for _, term := range words {
			terms[term] = category
			matchers[term] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
		}
	}

	return &Extractor{
		terms:  terms,
		regexp: matchers,
		logger: logger.With(zap.String("component", "entity_extractor")),
	}
}

// Extract aggregates entities across all chunks. Occurrences of the same
// term in different chunks merge into one entity with summed frequency and
// the union of source chunk ids.
func (e *Extractor) Extract(chunks []SourceChunk) []Entity {
	type acc struct {
		entity   Entity
		chunkSet map[string]struct{}
	}
	found := make(map[string]*acc)

	record := func(id, name string, category EntityCategory, count int, chunkID string) {
		a, ok := found[id]
		if !ok {
			a = &acc{
				entity:   Entity{ID: id, Name: name, Category: category},
				chunkSet: make(map[string]struct{}),
			}
			found[id] = a
		}
		a.entity.Frequency += count
		a.chunkSet[chunkID] = struct{}{}
	}

	for _, chunk := range chunks {
		// Pass 1: lexicon terms, case-insensitive whole-word matches.
		for term, category := range e.terms {
			matches := e.regexp[term].FindAllStringIndex(chunk.Content, -1)
			if len(matches) == 0 {
				continue
			}
			record(EntityID(category, term), term, category, len(matches), chunk.ID)
		}

		// Pass 2: custom patterns over the original casing.
		for _, phrase := range customPhraseRe.FindAllString(chunk.Content, -1) {
			normalized := strings.ToLower(phrase)
			if _, isLexicon := e.terms[normalized]; isLexicon {
				continue
			}
			record(EntityID(CategoryCustom, normalized), phrase, CategoryCustom, 1, chunk.ID)
		}
		for _, acronym := range acronymRe.FindAllString(chunk.Content, -1) {
			normalized := strings.ToLower(acronym)
			if _, isLexicon := e.terms[normalized]; isLexicon {
				continue
			}
			record(EntityID(CategoryCustom, normalized), acronym, CategoryCustom, 1, chunk.ID)
		}
	}

	entities := make([]Entity, 0, len(found))
	for _, a := range found {
		ids := make([]string, 0, len(a.chunkSet))
		for id := range a.chunkSet {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		a.entity.ChunkIDs = ids
		entities = append(entities, a.entity)
	}

	// Stable output keeps graph construction deterministic.
	sort.Slice(entities, func(i, j int) bool { return entities[i].ID < entities[j].ID })

	e.logger.Debug("entity extraction completed",
		zap.Int("chunks", len(chunks)),
		zap.Int("entities", len(entities)))

	return entities
}
