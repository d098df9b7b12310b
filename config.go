package graphplan

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the .graphplan.yaml configuration file.
type Config struct {
	// Dialect used to reach the graph store (e.g. "cypher").
	Dialect string `yaml:"dialect"`

	// Connection config for the dialect.
	Connection DialectConfig `yaml:"connection"`

	// Catalog is the path of the generated intent catalog.
	Catalog string `yaml:"catalog"`

	Generator GeneratorConfig `yaml:"generator"`
	Planner   PlannerConfig   `yaml:"planner"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Server    ServerConfig    `yaml:"server"`

	// LogLevel is a zap level name ("debug", "info", ...).
	LogLevel string `yaml:"log_level,omitempty"`
}

// GeneratorConfig holds settings for catalog generation.
type GeneratorConfig struct {
	// MaxDepth bounds path discovery in the meta-graph.
	MaxDepth int `yaml:"max_depth"`

	// Locale selects the phrasebook for example phrasings ("pt" or "en").
	Locale string `yaml:"locale"`

	// MultiValued means stored properties are arrays and templates read [0].
	MultiValued bool `yaml:"multi_valued"`

	// Version is written into the catalog header.
	Version string `yaml:"version,omitempty"`
}

// PlannerConfig holds classification thresholds.
type PlannerConfig struct {
	// MinScore is the confidence below which no plan is produced.
	MinScore float64 `yaml:"min_score"`

	// TopK is how many ranked intents are tried for extraction.
	TopK int `yaml:"top_k"`

	// GraphThreshold is the score above which interactive surfaces treat a
	// message as a graph question at all.
	GraphThreshold float64 `yaml:"graph_threshold"`
}

// EmbeddingConfig selects and configures the embedding function.
type EmbeddingConfig struct {
	// Provider is "ollama" or "hash".
	Provider string `yaml:"provider"`

	// URL of the Ollama /api/embed endpoint.
	URL string `yaml:"url,omitempty"`

	// Model name passed to the embedding service.
	Model string `yaml:"model,omitempty"`

	// Dimensions of the hash embedder.
	Dimensions int `yaml:"dimensions,omitempty"`

	// Concurrency bounds parallel embedding calls while building the matrix.
	Concurrency int `yaml:"concurrency,omitempty"`

	// CacheDir enables the BadgerDB vector cache when set.
	CacheDir string `yaml:"cache_dir,omitempty"`

	// CacheTTL is the lifetime of cached vectors.
	CacheTTL time.Duration `yaml:"cache_ttl,omitempty"`
}

// ServerConfig holds settings for the HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfigNames are the filenames we search for.
var DefaultConfigNames = []string{".graphplan.yaml", ".graphplan.yml", "graphplan.yaml", "graphplan.yml"}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() *Config {
	return &Config{
		Dialect: "cypher",
		Connection: DialectConfig{
			URI: "bolt://localhost:7687",
		},
		Catalog: "intents_catalog.json",
		Generator: GeneratorConfig{
			MaxDepth:    3,
			Locale:      "pt",
			MultiValued: true,
			Version:     "5.2-metadata",
		},
		Planner: PlannerConfig{
			MinScore:       0.4,
			TopK:           1,
			GraphThreshold: 0.55,
		},
		Embedding: EmbeddingConfig{
			Provider:    "ollama",
			URL:         "http://localhost:11434/api/embed",
			Model:       "nomic-embed-text",
			Dimensions:  256,
			Concurrency: 8,
			CacheTTL:    7 * 24 * time.Hour,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		LogLevel: "info",
	}
}

// LoadConfig finds and loads the nearest config file walking up from dir.
func LoadConfig(dir string) (*Config, error) {
	path, err := FindConfig(dir)
	if err != nil {
		return nil, err
	}

	return LoadConfigFile(path)
}

// FindConfig searches for a config file starting from dir and walking up.
func FindConfig(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for dir := absDir; ; {
		for _, name := range DefaultConfigNames {
			path := filepath.Join(dir, name)

			_, err := os.Stat(path)
			if err == nil {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrConfigNotFound
		}

		dir = parent
	}
}

// LoadConfigFile loads a config from a specific path. Keys absent from the
// file keep their DefaultConfig values.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Database returns the configured database name, if any.
func (c DialectConfig) Database() string {
	db, _ := c.Options["database"].(string)

	return db
}
