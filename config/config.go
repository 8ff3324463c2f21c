// Package config provides unified configuration loading for the portfolio
// RAG engine: defaults → YAML file → environment variable overrides.
package config

import (
	"fmt"
	"time"
)

// Config is the complete engine configuration.
type Config struct {
	// Server HTTP 服务配置
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// Data 持久化数据目录配置
	Data DataConfig `yaml:"data" env:"DATA"`

	// Embedding 嵌入提供者链配置
	Embedding EmbeddingConfig `yaml:"embedding" env:"EMBEDDING"`

	// LLM 文本生成提供者配置
	LLM LLMConfig `yaml:"llm" env:"LLM"`

	// Retrieval 检索调参
	Retrieval RetrievalConfig `yaml:"retrieval" env:"RETRIEVAL"`

	// Chunking 分块配置
	Chunking ChunkingConfig `yaml:"chunking" env:"CHUNKING"`

	// Cache 响应缓存配置
	Cache CacheConfig `yaml:"cache" env:"CACHE"`

	// Session 会话存储配置
	Session SessionConfig `yaml:"session" env:"SESSION"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	HTTPPort        int           `yaml:"http_port" env:"HTTP_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// SearchDeadline bounds a single search end to end, fallback chain included.
	SearchDeadline time.Duration `yaml:"search_deadline" env:"SEARCH_DEADLINE"`
}

// DataConfig points at the persisted ingestion artifacts.
type DataConfig struct {
	// Dir contains graph.json, embeddings.json and processed_sources.json.
	Dir string `yaml:"dir" env:"DIR"`
}

// EmbeddingConfig configures the embedding provider fallback chain.
type EmbeddingConfig struct {
	// HuggingFace 首选托管提供者
	HuggingFace HuggingFaceConfig `yaml:"huggingface" env:"HUGGINGFACE"`
	// OpenAI 次选托管提供者
	OpenAI OpenAIConfig `yaml:"openai" env:"OPENAI"`
	// Dimensions 本地兜底向量维度
	Dimensions int `yaml:"dimensions" env:"DIMENSIONS"`
	// ProviderTimeout 单个提供者的请求超时
	ProviderTimeout time.Duration `yaml:"provider_timeout" env:"PROVIDER_TIMEOUT"`
	// RateLimit 托管提供者每秒请求上限（0 表示不限制）
	RateLimit float64 `yaml:"rate_limit" env:"RATE_LIMIT"`
}

// HuggingFaceConfig configures the Hugging Face inference API provider.
type HuggingFaceConfig struct {
	APIKey  string `yaml:"api_key" env:"API_KEY"`
	Model   string `yaml:"model" env:"MODEL"`
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
}

// OpenAIConfig configures the OpenAI embedding / completion provider.
type OpenAIConfig struct {
	APIKey string `yaml:"api_key" env:"API_KEY"`
	Model  string `yaml:"model" env:"MODEL"`
}

// LLMConfig configures the text-generation collaborators.
type LLMConfig struct {
	HuggingFace HuggingFaceConfig `yaml:"huggingface" env:"HUGGINGFACE"`
	OpenAI      OpenAIConfig      `yaml:"openai" env:"OPENAI"`
	MaxTokens   int               `yaml:"max_tokens" env:"MAX_TOKENS"`
	Temperature float64           `yaml:"temperature" env:"TEMPERATURE"`
	Timeout     time.Duration     `yaml:"timeout" env:"TIMEOUT"`
}

// RetrievalConfig exposes the empirically tuned search constants.
// The defaults mirror the values the corpus was tuned with; they are
// configuration, not algorithmic constants.
type RetrievalConfig struct {
	// SimilarityThreshold 向量召回的最低余弦相似度
	SimilarityThreshold float64 `yaml:"similarity_threshold" env:"SIMILARITY_THRESHOLD"`
	// MaxResults 单次搜索返回的结果上限
	MaxResults int `yaml:"max_results" env:"MAX_RESULTS"`
	// GraphSeeds 参与图扩展的向量命中数
	GraphSeeds int `yaml:"graph_seeds" env:"GRAPH_SEEDS"`
	// MaxGraphDepth 图遍历最大深度
	MaxGraphDepth int `yaml:"max_graph_depth" env:"MAX_GRAPH_DEPTH"`
	// MinRelevance 图遍历的相关度下限
	MinRelevance float64 `yaml:"min_relevance" env:"MIN_RELEVANCE"`
	// GraphBoost 向量+图共同命中的加成系数
	GraphBoost float64 `yaml:"graph_boost" env:"GRAPH_BOOST"`
	// GraphOnlyDiscount 仅图命中的折扣系数
	GraphOnlyDiscount float64 `yaml:"graph_only_discount" env:"GRAPH_ONLY_DISCOUNT"`
}

// ChunkingConfig configures the document chunker.
type ChunkingConfig struct {
	MaxChunkSize int `yaml:"max_chunk_size" env:"MAX_CHUNK_SIZE"` // words
	Overlap      int `yaml:"overlap" env:"OVERLAP"`               // words
	MinChunkLen  int `yaml:"min_chunk_len" env:"MIN_CHUNK_LEN"`   // chars
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	MaxSize       int           `yaml:"max_size" env:"MAX_SIZE"`
	DefaultTTL    time.Duration `yaml:"default_ttl" env:"DEFAULT_TTL"`
	SearchTTL     time.Duration `yaml:"search_ttl" env:"SEARCH_TTL"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"SWEEP_INTERVAL"`

	// Redis 可选的共享缓存层（默认关闭）
	Redis RedisConfig `yaml:"redis" env:"REDIS"`
}

// RedisConfig configures the optional shared cache tier.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" env:"ENABLED"`
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
}

// SessionConfig configures conversation transcript storage.
type SessionConfig struct {
	// Store: memory | mongo
	Store string `yaml:"store" env:"STORE"`
	// MongoURI Mongo 连接串（store=mongo 时必填）
	MongoURI string `yaml:"mongo_uri" env:"MONGO_URI"`
	// Database Mongo 数据库名
	Database string `yaml:"database" env:"DATABASE"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`   // debug, info, warn, error
	Format string `yaml:"format" env:"FORMAT"` // json, console
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			SearchDeadline:  20 * time.Second,
		},
		Data: DataConfig{
			Dir: "data",
		},
		Embedding: EmbeddingConfig{
			HuggingFace: HuggingFaceConfig{
				Model:   "sentence-transformers/all-MiniLM-L6-v2",
				BaseURL: "https://api-inference.huggingface.co",
			},
			OpenAI: OpenAIConfig{
				Model: "text-embedding-ada-002",
			},
			Dimensions:      384,
			ProviderTimeout: 8 * time.Second,
			RateLimit:       5,
		},
		LLM: LLMConfig{
			HuggingFace: HuggingFaceConfig{
				Model:   "microsoft/Phi-3-mini-4k-instruct",
				BaseURL: "https://api-inference.huggingface.co",
			},
			OpenAI: OpenAIConfig{
				Model: "gpt-3.5-turbo",
			},
			MaxTokens:   512,
			Temperature: 0.7,
			Timeout:     10 * time.Second,
		},
		Retrieval: RetrievalConfig{
			SimilarityThreshold: 0.6,
			MaxResults:          5,
			GraphSeeds:          3,
			MaxGraphDepth:       2,
			MinRelevance:        0.15,
			GraphBoost:          1.2,
			GraphOnlyDiscount:   0.8,
		},
		Chunking: ChunkingConfig{
			MaxChunkSize: 300,
			Overlap:      50,
			MinChunkLen:  20,
		},
		Cache: CacheConfig{
			MaxSize:       1000,
			DefaultTTL:    24 * time.Hour,
			SearchTTL:     30 * time.Minute,
			SweepInterval: time.Hour,
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Session: SessionConfig{
			Store:    "memory",
			Database: "portfolio",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Chunking.Overlap >= c.Chunking.MaxChunkSize {
		return fmt.Errorf("chunking overlap (%d) must be smaller than max chunk size (%d)",
			c.Chunking.Overlap, c.Chunking.MaxChunkSize)
	}
	if c.Retrieval.SimilarityThreshold < 0 || c.Retrieval.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold must be in [0,1], got %f", c.Retrieval.SimilarityThreshold)
	}
	if c.Retrieval.MaxResults <= 0 {
		return fmt.Errorf("max results must be positive, got %d", c.Retrieval.MaxResults)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if c.Session.Store == "mongo" && c.Session.MongoURI == "" {
		return fmt.Errorf("session store is mongo but mongo_uri is empty")
	}
	return nil
}
