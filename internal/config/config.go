package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/moviesearch/internal/db"
	"github.com/kailas-cloud/moviesearch/internal/domain"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/mode"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/weights"
)

// Synthesis providers.
const (
	SynthesisOpenAI    = "openai"
	SynthesisLangchain = "langchain"
)

// Config holds the moviesearch configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Synthesis SynthesisConfig `yaml:"synthesis"`
	Ranking   RankingConfig   `yaml:"ranking"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	CORSOrigins     []string `yaml:"cors_origins"` // default: any origin
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis (default)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	WriteTimeoutMs   int      `yaml:"write_timeout_ms"`
}

// StorageConfig holds the query embedding cache settings.
type StorageConfig struct {
	EmbeddingCache EmbeddingCacheConfig `yaml:"embedding_cache"`
}

// EmbeddingCacheConfig sizes the two cache tiers.
type EmbeddingCacheConfig struct {
	Disabled   bool `yaml:"disabled"`
	MemorySize int  `yaml:"memory_size"` // in-process LRU entries, 0 disables the tier
	TTLHours   int  `yaml:"ttl_hours"`   // store entries, 0 keeps them forever
}

// IndexConfig holds movie index settings.
type IndexConfig struct {
	Dimensions      int     `yaml:"dimensions"`
	Distance        string  `yaml:"distance"`  // cosine, l2, ip
	Algorithm       string  `yaml:"algorithm"` // hnsw, flat
	HNSWM           int     `yaml:"hnsw_m"`
	HNSWEFConstruct int     `yaml:"hnsw_ef_construction"`
	TitleWeight     float64 `yaml:"title_weight"`
	AutoCreate      bool    `yaml:"auto_create"` // create the index on startup when missing
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // metric label only
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	User       string `yaml:"user"`
	TimeoutSec int    `yaml:"timeout_sec"`
	// SendDimensions passes index.dimensions to the API (text-embedding-3-* only).
	SendDimensions   bool   `yaml:"send_dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
}

// SynthesisConfig holds answer synthesis settings. Disabled synthesis makes rag requests fail.
type SynthesisConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Provider     string   `yaml:"provider"` // openai (default), langchain
	APIKey       string   `yaml:"api_key"`
	BaseURL      string   `yaml:"base_url"`
	Model        string   `yaml:"model"`
	MaxTokens    int      `yaml:"max_tokens"`
	Temperature  *float64 `yaml:"temperature"`
	SystemPrompt string   `yaml:"system_prompt"`
	TopK         int      `yaml:"top_k"`
	TimeoutSec   int      `yaml:"timeout_sec"`
}

// RankingConfig holds merge settings.
type RankingConfig struct {
	Candidates   int                      `yaml:"candidates"`
	EFRuntime    int                      `yaml:"ef_runtime"`
	ExactRescore bool                     `yaml:"exact_rescore"`
	Normalize    string                   `yaml:"normalize"` // none (default), max
	Modes        map[string]WeightsConfig `yaml:"modes"`
}

// WeightsConfig is the per-mode weight pair.
type WeightsConfig struct {
	Lexical float64 `yaml:"lexical"`
	Vector  float64 `yaml:"vector"`
}

// IngestConfig holds catalog loading settings.
type IngestConfig struct {
	BatchSize int  `yaml:"batch_size"`
	Workers   int  `yaml:"workers"`
	Reembed   bool `yaml:"reembed"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	vc := domain.DefaultVectorConfig()

	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60 // rag answers take seconds
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.EmbeddingCache.MemorySize == 0 {
		c.Storage.EmbeddingCache.MemorySize = 1024
	}
	if c.Index.Dimensions <= 0 {
		c.Index.Dimensions = vc.Dimensions
	}
	if c.Index.Distance == "" {
		c.Index.Distance = vc.DistanceMetric
	}
	if c.Index.Algorithm == "" {
		c.Index.Algorithm = vc.Algorithm
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = vc.Model
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 10
	}
	c.applySynthesisDefaults()
	if c.Ranking.Candidates <= 0 {
		c.Ranking.Candidates = 10
	}
	if c.Ranking.Normalize == "" {
		c.Ranking.Normalize = string(weights.None)
	}
	if c.Ingest.BatchSize <= 0 {
		c.Ingest.BatchSize = 100
	}
}

func (c *Config) applySynthesisDefaults() {
	s := &c.Synthesis
	if s.Provider == "" {
		s.Provider = SynthesisOpenAI
	}
	if s.Model == "" {
		s.Model = "gpt-4"
	}
	if s.MaxTokens <= 0 {
		s.MaxTokens = 300
	}
	if s.Temperature == nil {
		t := 0.7
		s.Temperature = &t
	}
	if s.TopK <= 0 {
		s.TopK = 10
	}
	if s.TimeoutSec <= 0 {
		s.TimeoutSec = 30
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Database.Driver != "redis" {
		return fmt.Errorf("database.driver must be \"redis\", got %q", c.Database.Driver)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if _, err := db.ParseDistance(c.Index.Distance); err != nil {
		return fmt.Errorf("index.distance: %w", err)
	}
	if _, err := db.ParseAlgorithm(c.Index.Algorithm); err != nil {
		return fmt.Errorf("index.algorithm: %w", err)
	}
	if c.Index.TitleWeight < 0 {
		return fmt.Errorf("index.title_weight must be >= 0, got %v", c.Index.TitleWeight)
	}
	if c.Storage.EmbeddingCache.MemorySize < 0 || c.Storage.EmbeddingCache.TTLHours < 0 {
		return fmt.Errorf("storage.embedding_cache sizes must be >= 0")
	}
	if err := c.validateSynthesis(); err != nil {
		return err
	}
	if _, err := c.Ranking.Weights(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSynthesis() error {
	s := c.Synthesis
	switch s.Provider {
	case SynthesisOpenAI, SynthesisLangchain:
	default:
		return fmt.Errorf("synthesis.provider must be %q or %q, got %q", SynthesisOpenAI, SynthesisLangchain, s.Provider)
	}
	if s.Temperature != nil && (*s.Temperature < 0 || *s.Temperature > 2) {
		return fmt.Errorf("synthesis.temperature must be between 0 and 2, got %v", *s.Temperature)
	}
	return nil
}

// Weights converts ranking.modes into per-mode merge weights.
// Only merging modes (hybrid, rag) take weights.
func (r *RankingConfig) Weights() (map[mode.Mode]weights.Weights, error) {
	norm := weights.Strategy(r.Normalize)
	out := make(map[mode.Mode]weights.Weights, len(r.Modes))
	for name, wc := range r.Modes {
		m, err := mode.Parse(name)
		if err != nil || !m.NeedsVector() {
			return nil, fmt.Errorf("ranking.modes: %q is not a merging mode", name)
		}
		w, err := weights.New(wc.Lexical, wc.Vector, norm)
		if err != nil {
			return nil, fmt.Errorf("ranking.modes.%s: %w", name, err)
		}
		out[m] = w
	}
	// Normalization applies to the default weights too.
	for _, m := range mode.All() {
		if _, ok := out[m]; !ok && m.NeedsVector() {
			w := weights.Default(m)
			w.Normalize = norm
			if err := w.Validate(); err != nil {
				return nil, fmt.Errorf("ranking.normalize: %w", err)
			}
			out[m] = w
		}
	}
	return out, nil
}

// CacheTTL returns the store tier TTL.
func (c *EmbeddingCacheConfig) CacheTTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
