package rag

import (
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Search type labels reported with every outcome so callers can weigh
// confidence accordingly.
const (
	SearchGraphEnhanced   = "graph-enhanced"
	SearchVectorOnly      = "vector-only"
	SearchKeywordFallback = "keyword-fallback"
)

// Result origin labels.
const (
	originSemantic = "semantic"
	originGraph    = "graph"
	originFallback = "fallback"
)

// SearchOptions tunes a single search call.
type SearchOptions struct {
	MaxResults          int
	SimilarityThreshold float64
	GraphSeeds          int
	OverFetchFactor     int
	IncludeGraph        bool
	CoDiscoveryBoost    float64
	GraphDiscount       float64
	Traversal           TraversalOptions
}

// DefaultSearchOptions returns the tuned retrieval defaults.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		MaxResults:          5,
		SimilarityThreshold: 0.6,
		GraphSeeds:          3,
		OverFetchFactor:     2,
		IncludeGraph:        true,
		CoDiscoveryBoost:    1.2,
		GraphDiscount:       0.8,
		Traversal:           DefaultTraversalOptions(),
	}
}

// SearchResult is one ranked chunk.
type SearchResult struct {
	ID         string        `json:"id"`
	Content    string        `json:"content"`
	Metadata   ChunkMetadata `json:"metadata"`
	Similarity float64       `json:"similarity"`
	Score      float64       `json:"score"`
	Origin     string        `json:"origin"`
}

// SearchOutcome is the full response of one search: the ranked results
// plus the assembled context and provenance the orchestrator hands to
// the text-generation step.
type SearchOutcome struct {
	Results    []SearchResult `json:"results"`
	Context    string         `json:"context"`
	Sources    []string       `json:"sources"`
	Confidence int            `json:"confidence"`
	SearchType string         `json:"searchType"`
}

// Searcher runs hybrid retrieval over one loaded snapshot: a vector scan
// seeds a graph traversal, and the two result sets merge into a single
// ranking. The snapshot is read-only after construction, so Searcher is
// safe for concurrent use.
type Searcher struct {
	graph      *KnowledgeGraph
	embeddings map[string][]float64
	sources    []SourceChunk
	logger     *zap.Logger
}

// NewSearcher builds a searcher over snap.
func NewSearcher(snap *Snapshot, logger *zap.Logger) *Searcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{
		graph:      snap.Graph,
		embeddings: snap.Embeddings,
		sources:    snap.Sources,
		logger:     logger.With(zap.String("component", "searcher")),
	}
}

// Search runs the three retrieval phases. Phase 1 scans every chunk
// embedding by cosine similarity and keeps an over-fetched slice above
// the threshold. Phase 2 feeds the top vector hits into graph traversal.
// Phase 3 merges: chunks found by both paths keep their similarity
// boosted (capped at 1.0), graph-only chunks carry a discounted
// relevance since the query never validated them semantically.
func (s *Searcher) Search(queryEmbedding []float64, opts SearchOptions) SearchOutcome {
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultSearchOptions().MaxResults
	}
	if opts.OverFetchFactor <= 0 {
		opts.OverFetchFactor = DefaultSearchOptions().OverFetchFactor
	}

	semantic := s.vectorScan(queryEmbedding, opts)

	searchType := SearchVectorOnly
	merged := semantic
	if opts.IncludeGraph && len(semantic) > 0 {
		seeds := make([]string, 0, opts.GraphSeeds)
		for i := 0; i < len(semantic) && i < opts.GraphSeeds; i++ {
			seeds = append(seeds, semantic[i].ID)
		}
		related := s.graph.FindRelatedNodes(seeds, opts.Traversal)
		s.logger.Debug("graph expansion",
			zap.Int("seeds", len(seeds)), zap.Int("related", len(related)))
		merged = mergeResults(semantic, related, opts)
		searchType = SearchGraphEnhanced
	}

	if len(merged) > opts.MaxResults {
		merged = merged[:opts.MaxResults]
	}

	return assembleOutcome(merged, searchType)
}

// vectorScan iterates chunks in stored order so equal-similarity ties
// rank deterministically.
func (s *Searcher) vectorScan(queryEmbedding []float64, opts SearchOptions) []SearchResult {
	var results []SearchResult
	for i := range s.sources {
		chunk := &s.sources[i]
		embedding, ok := s.embeddings[chunk.Content]
		if !ok || len(embedding) == 0 {
			continue
		}
		similarity := CosineSimilarity(queryEmbedding, embedding)
		if similarity < opts.SimilarityThreshold {
			continue
		}
		results = append(results, SearchResult{
			ID:         chunk.ID,
			Content:    chunk.Content,
			Metadata:   chunk.Metadata,
			Similarity: similarity,
			Score:      similarity,
			Origin:     originSemantic,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	keep := opts.MaxResults * opts.OverFetchFactor
	if len(results) > keep {
		results = results[:keep]
	}
	return results
}

func mergeResults(semantic []SearchResult, related []RelatedNode, opts SearchOptions) []SearchResult {
	index := make(map[string]int, len(semantic))
	combined := make([]SearchResult, len(semantic))
	copy(combined, semantic)
	for i := range combined {
		index[combined[i].ID] = i
	}

	for _, node := range related {
		if i, seen := index[node.ID]; seen {
			boosted := combined[i].Score * opts.CoDiscoveryBoost
			if boosted > 1.0 {
				boosted = 1.0
			}
			combined[i].Score = boosted
			continue
		}
		index[node.ID] = len(combined)
		combined = append(combined, SearchResult{
			ID:         node.ID,
			Content:    node.Content,
			Metadata:   node.Metadata,
			Similarity: node.Relevance,
			Score:      node.Relevance * opts.GraphDiscount,
			Origin:     originGraph,
		})
	}

	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].Score > combined[j].Score
	})
	return combined
}

// KeywordSearch is the last-resort retrieval path for when embeddings
// are unavailable or the snapshot failed to load cleanly: score each
// chunk by the fraction of query tokens it contains verbatim.
func (s *Searcher) KeywordSearch(query string, maxResults int) SearchOutcome {
	if maxResults <= 0 {
		maxResults = DefaultSearchOptions().MaxResults
	}
	s.logger.Warn("using keyword fallback search")

	keywords := strings.Fields(strings.ToLower(query))
	var results []SearchResult

	for i := range s.sources {
		chunk := &s.sources[i]
		content := strings.ToLower(chunk.Content)
		matches := 0
		for _, keyword := range keywords {
			if strings.Contains(content, keyword) {
				matches++
			}
		}
		if matches == 0 {
			continue
		}
		score := float64(matches) / float64(len(keywords))
		results = append(results, SearchResult{
			ID:         chunk.ID,
			Content:    chunk.Content,
			Metadata:   chunk.Metadata,
			Similarity: score,
			Score:      score,
			Origin:     originFallback,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	outcome := assembleOutcome(results, SearchKeywordFallback)
	// Keyword overlap is a weak signal; never report it as high confidence.
	if outcome.Confidence > keywordConfidenceCap {
		outcome.Confidence = keywordConfidenceCap
	}
	return outcome
}

const keywordConfidenceCap = 70

// assembleOutcome derives context, deduplicated source ids, and a
// confidence percentage from the top score.
func assembleOutcome(results []SearchResult, searchType string) SearchOutcome {
	contents := make([]string, 0, len(results))
	seen := make(map[string]struct{})
	var sources []string
	for _, r := range results {
		contents = append(contents, r.Content)
		if r.Metadata.SourceID == "" {
			continue
		}
		if _, dup := seen[r.Metadata.SourceID]; dup {
			continue
		}
		seen[r.Metadata.SourceID] = struct{}{}
		sources = append(sources, r.Metadata.SourceID)
	}

	confidence := 0
	if len(results) > 0 {
		confidence = int(math.Round(results[0].Score * 100))
	}

	return SearchOutcome{
		Results:    results,
		Context:    strings.Join(contents, "\n\n"),
		Sources:    sources,
		Confidence: confidence,
		SearchType: searchType,
	}
}
