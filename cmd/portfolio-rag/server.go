package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/saipachipulusu/portfolio-rag/api/handlers"
	"github.com/saipachipulusu/portfolio-rag/cache"
	"github.com/saipachipulusu/portfolio-rag/config"
	"github.com/saipachipulusu/portfolio-rag/embedding"
	"github.com/saipachipulusu/portfolio-rag/internal/metrics"
	"github.com/saipachipulusu/portfolio-rag/llm"
	"github.com/saipachipulusu/portfolio-rag/rag"
	"github.com/saipachipulusu/portfolio-rag/session"
)

// Server owns the HTTP surface and the wired pipeline services.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	httpServer *http.Server
	localCache *cache.TTLCache
	redis      *redis.Client
	sessions   session.Store
	svc        *rag.Service
}

// NewServer creates an unstarted server.
func NewServer(cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{cfg: cfg, logger: logger}
}

// Start wires the pipeline and begins serving. Initialization of the
// retrieval data happens in the background; until it finishes, requests
// are answered by the lazy-init path.
func (s *Server) Start() error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	s.localCache = cache.NewTTLCache(s.cfg.Cache.MaxSize, s.cfg.Cache.DefaultTTL, s.logger,
		cache.WithSweepInterval(s.cfg.Cache.SweepInterval))

	if s.cfg.Cache.Redis.Enabled {
		s.redis = redis.NewClient(&redis.Options{
			Addr:     s.cfg.Cache.Redis.Addr,
			Password: s.cfg.Cache.Redis.Password,
			DB:       s.cfg.Cache.Redis.DB,
		})
	}
	responseCache := cache.NewResponseCache(s.localCache, s.redis, s.logger)

	embedder := buildEmbeddingChain(s.cfg, s.logger)
	embedder.OnFallback(m.ProviderFallback)
	generator := buildLLMChain(s.cfg, s.logger)
	generator.OnFallback(m.ProviderFallback)

	sessions, err := buildSessionStore(s.cfg, s.logger)
	if err != nil {
		return err
	}
	s.sessions = sessions

	store := rag.NewStore(s.cfg.Data.Dir, s.logger)
	s.svc = rag.NewService(s.cfg, store, embedder, responseCache, m, s.logger)

	go func() {
		if err := s.svc.Initialize(context.Background()); err != nil {
			s.logger.Error("background initialization failed", zap.Error(err))
		}
	}()

	chatHandler := handlers.NewChatHandler(s.svc, generator, sessions, responseCache, s.cfg, m, s.logger)
	searchHandler := handlers.NewSearchHandler(s.svc, s.logger)
	healthHandler := handlers.NewHealthHandler(s.svc, s.logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", chatHandler.HandleChat)
	mux.HandleFunc("/api/search", searchHandler.HandleSearch)
	mux.HandleFunc("/healthz", healthHandler.HandleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		Handler:      mux,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	go func() {
		s.logger.Info("HTTP server listening", zap.Int("port", s.cfg.Server.HTTPPort))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	return nil
}

// WaitForShutdown blocks until SIGINT/SIGTERM, then drains connections
// within the configured shutdown timeout.
func (s *Server) WaitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	s.logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP shutdown error", zap.Error(err))
	}
	if err := s.sessions.Close(ctx); err != nil {
		s.logger.Error("session store close error", zap.Error(err))
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("redis close error", zap.Error(err))
		}
	}
	s.localCache.Close()
}

// buildEmbeddingChain assembles the provider priority order: hosted
// HuggingFace, hosted OpenAI, then the deterministic local fallback that
// can never fail. Providers without credentials are skipped.
func buildEmbeddingChain(cfg *config.Config, logger *zap.Logger) *embedding.FallbackChain {
	var providers []embedding.Provider

	if cfg.Embedding.HuggingFace.APIKey != "" {
		providers = append(providers, embedding.NewHuggingFaceProvider(embedding.HuggingFaceConfig{
			APIKey:     cfg.Embedding.HuggingFace.APIKey,
			Model:      cfg.Embedding.HuggingFace.Model,
			BaseURL:    cfg.Embedding.HuggingFace.BaseURL,
			Dimensions: cfg.Embedding.Dimensions,
			Timeout:    cfg.Embedding.ProviderTimeout,
			RateLimit:  cfg.Embedding.RateLimit,
		}))
	}
	if cfg.Embedding.OpenAI.APIKey != "" {
		providers = append(providers, embedding.NewOpenAIProvider(embedding.OpenAIConfig{
			APIKey:     cfg.Embedding.OpenAI.APIKey,
			Model:      cfg.Embedding.OpenAI.Model,
			Dimensions: cfg.Embedding.Dimensions,
		}))
	}
	providers = append(providers, embedding.NewLocalProvider(cfg.Embedding.Dimensions))

	return embedding.NewFallbackChain(providers, cfg.Embedding.ProviderTimeout, logger)
}

// buildLLMChain assembles the generation providers in priority order.
// Unlike embeddings there is no local terminal: an empty chain is valid
// and the chat handler answers with its canned apology.
func buildLLMChain(cfg *config.Config, logger *zap.Logger) *llm.FallbackChain {
	var providers []llm.Provider

	if cfg.LLM.HuggingFace.APIKey != "" {
		providers = append(providers, llm.NewHuggingFaceProvider(llm.HuggingFaceConfig{
			APIKey:  cfg.LLM.HuggingFace.APIKey,
			Model:   cfg.LLM.HuggingFace.Model,
			BaseURL: cfg.LLM.HuggingFace.BaseURL,
			Timeout: cfg.LLM.Timeout,
		}))
	}
	if cfg.LLM.OpenAI.APIKey != "" {
		providers = append(providers, llm.NewOpenAIProvider(llm.OpenAIConfig{
			APIKey: cfg.LLM.OpenAI.APIKey,
			Model:  cfg.LLM.OpenAI.Model,
		}))
	}

	return llm.NewFallbackChain(providers, logger)
}

func buildSessionStore(cfg *config.Config, logger *zap.Logger) (session.Store, error) {
	switch cfg.Session.Store {
	case "mongo":
		return session.NewMongoStore(context.Background(), cfg.Session.MongoURI, cfg.Session.Database, logger)
	default:
		return session.NewMemoryStore(), nil
	}
}
