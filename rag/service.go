package rag

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/saipachipulusu/portfolio-rag/cache"
	"github.com/saipachipulusu/portfolio-rag/config"
	"github.com/saipachipulusu/portfolio-rag/embedding"
	"github.com/saipachipulusu/portfolio-rag/internal/metrics"
	"github.com/saipachipulusu/portfolio-rag/types"
)

// ServiceState tracks the orchestrator lifecycle.
type ServiceState int32

const (
	StateUninitialized ServiceState = iota
	StateInitializing
	StateReady
)

func (s ServiceState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

const searchCacheNamespace = "search"

// Service orchestrates the online retrieval path: cache lookup, query
// embedding, hybrid search, and fallback selection. It is constructed
// explicitly and injected into handlers; there is no package-level
// instance. Search never returns an error to its caller: every failure
// mode resolves to a degraded outcome instead.
type Service struct {
	cfg      *config.Config
	store    *Store
	embedder embedding.Provider
	cache    *cache.ResponseCache
	metrics  *metrics.Metrics
	logger   *zap.Logger

	initGroup singleflight.Group

	mu       sync.RWMutex
	state    ServiceState
	searcher *Searcher
	degraded bool
}

// NewService wires the orchestrator. The embedder is normally the full
// provider fallback chain; metrics may be nil.
func NewService(cfg *config.Config, store *Store, embedder embedding.Provider, responseCache *cache.ResponseCache, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:      cfg,
		store:    store,
		embedder: embedder,
		cache:    responseCache,
		metrics:  m,
		logger:   logger.With(zap.String("component", "rag_service")),
		state:    StateUninitialized,
	}
}

// State reports the current lifecycle state.
func (s *Service) State() ServiceState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Degraded reports whether the service is running without a loaded
// snapshot and serving static fallbacks only.
func (s *Service) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

// Initialize loads the persisted snapshot and builds the searcher.
// Concurrent callers share one load via singleflight, so a cold-start
// stampede does one disk read. Missing or corrupt data does not fail
// initialization: the service comes up degraded and serves static
// fallbacks until an ingestion run produces usable data.
func (s *Service) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateReady {
		s.mu.Unlock()
		return nil
	}
	s.state = StateInitializing
	s.mu.Unlock()

	_, err, _ := s.initGroup.Do("init", func() (any, error) {
		snap, loadErr := s.store.Load(s.logger)

		s.mu.Lock()
		defer s.mu.Unlock()
		if loadErr != nil {
			var typed *types.Error
			if errors.As(loadErr, &typed) &&
				(typed.Code == types.ErrDataNotLoaded || typed.Code == types.ErrDataCorrupt) {
				s.logger.Warn("no usable snapshot, starting degraded",
					zap.String("code", string(typed.Code)), zap.Error(loadErr))
				s.degraded = true
				s.state = StateReady
				return nil, nil
			}
			s.state = StateUninitialized
			return nil, loadErr
		}

		s.searcher = NewSearcher(snap, s.logger)
		s.degraded = false
		s.state = StateReady
		s.logger.Info("service initialized",
			zap.Int("nodes", snap.Graph.NodeCount()),
			zap.Int("embeddings", len(snap.Embeddings)))
		return nil, nil
	})
	return err
}

// Reload swaps in a freshly ingested snapshot without restarting.
func (s *Service) Reload(snap *Snapshot) {
	searcher := NewSearcher(snap, s.logger)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searcher = searcher
	s.degraded = false
	s.state = StateReady
}

// SearchResponse is what the orchestrator hands back for one query.
type SearchResponse struct {
	SearchOutcome
	FromCache bool `json:"fromCache"`
}

// Search answers a query. The path is cache, then embed, then hybrid
// search, with each failure stepping down to a weaker strategy: keyword
// overlap when the vector path yields nothing, static fallback when no
// data is loaded at all. The whole call is bounded by the configured
// search deadline. It never returns an error.
func (s *Service) Search(ctx context.Context, query string) SearchResponse {
	start := time.Now()

	if s.State() != StateReady {
		if err := s.Initialize(ctx); err != nil {
			s.logger.Error("lazy initialization failed", zap.Error(err))
			outcome := StaticFallback(query)
			s.observe(outcome.SearchType, start)
			return SearchResponse{SearchOutcome: outcome}
		}
	}

	key := cache.QueryKey(searchCacheNamespace, query)
	var cached SearchOutcome
	if s.cache != nil && s.cache.Get(ctx, key, &cached) {
		s.metrics.CacheHit(searchCacheNamespace)
		s.observe(cached.SearchType, start)
		return SearchResponse{SearchOutcome: cached, FromCache: true}
	}
	s.metrics.CacheMiss(searchCacheNamespace)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Server.SearchDeadline)
	defer cancel()

	outcome := s.retrieve(ctx, query)

	// Fallback outcomes are not cached: they should heal as soon as the
	// underlying failure clears, not persist for the TTL window.
	if s.cache != nil && outcome.SearchType != SearchKeywordFallback && outcome.SearchType != SearchDefaultFallback {
		s.cache.Set(ctx, key, outcome, s.cfg.Cache.SearchTTL)
	}

	s.observe(outcome.SearchType, start)
	return SearchResponse{SearchOutcome: outcome}
}

func (s *Service) retrieve(ctx context.Context, query string) SearchOutcome {
	s.mu.RLock()
	searcher := s.searcher
	degraded := s.degraded
	s.mu.RUnlock()

	if degraded || searcher == nil {
		return StaticFallback(query)
	}

	queryEmbedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		s.logger.Warn("query embedding failed, using keyword fallback", zap.Error(err))
		return s.keywordOrStatic(searcher, query)
	}

	outcome := searcher.Search(queryEmbedding, s.searchOptions())
	if len(outcome.Results) == 0 {
		return s.keywordOrStatic(searcher, query)
	}
	return outcome
}

func (s *Service) keywordOrStatic(searcher *Searcher, query string) SearchOutcome {
	outcome := searcher.KeywordSearch(query, s.cfg.Retrieval.MaxResults)
	if len(outcome.Results) == 0 {
		return StaticFallback(query)
	}
	return outcome
}

func (s *Service) searchOptions() SearchOptions {
	r := s.cfg.Retrieval
	return SearchOptions{
		MaxResults:          r.MaxResults,
		SimilarityThreshold: r.SimilarityThreshold,
		GraphSeeds:          r.GraphSeeds,
		OverFetchFactor:     2,
		IncludeGraph:        true,
		CoDiscoveryBoost:    r.GraphBoost,
		GraphDiscount:       r.GraphOnlyDiscount,
		Traversal: TraversalOptions{
			MaxDepth:     r.MaxGraphDepth,
			MinRelevance: r.MinRelevance,
		},
	}
}

func (s *Service) observe(searchType string, start time.Time) {
	s.metrics.ObserveSearch(searchType, time.Since(start).Seconds())
}
