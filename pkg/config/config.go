package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Catalog   CatalogConfig
	Matching  MatchingConfig
	AI        AIConfig
	SQLite    SQLiteConfig
	Redis     RedisConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
	// Messages overrides reason templates per language, e.g.
	// messages.ta.farmer_type.
	Messages map[string]map[string]string
}

type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    int
	WriteTimeout   int
	BodyLimit      int
	AllowedOrigins []string
	Environment    string
}

type CatalogConfig struct {
	// Source is one of seed, file or sqlite.
	Source string
	Path   string
}

type MatchingConfig struct {
	IncludeIneligible bool
	TopN              int
	Weights           WeightsConfig
	StrictDistricts   bool
}

type WeightsConfig struct {
	LandSize   float64
	FarmerType float64
	Crops      float64
	District   float64
}

type AIConfig struct {
	// Provider is one of none, openai, gemini or http.
	Provider    string
	Model       string
	APIKey      string
	Endpoint    string
	Temperature float32
	MaxTokens   int
	TimeoutMs   int
	Breaker     BreakerConfig
}

type BreakerConfig struct {
	FailureThreshold uint32
	OpenSeconds      int
}

type SQLiteConfig struct {
	Enabled bool
	Path    string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CacheConfig struct {
	TTLSeconds int
}

type RateLimitConfig struct {
	RequestsPerMinute int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func (c AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

func Load() (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/subsidy-matcher")

	v.SetEnvPrefix("SUBSIDY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	switch c.Catalog.Source {
	case "seed", "file", "sqlite":
	default:
		return fmt.Errorf("invalid catalog.source %q", c.Catalog.Source)
	}
	if c.Catalog.Source == "file" && c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required when catalog.source is file")
	}
	if c.Catalog.Source == "sqlite" && !c.SQLite.Enabled {
		return fmt.Errorf("sqlite.enabled must be true when catalog.source is sqlite")
	}

	switch c.AI.Provider {
	case "none", "openai", "gemini":
	case "http":
		if c.AI.Endpoint == "" {
			return fmt.Errorf("ai.endpoint is required for the http provider")
		}
	default:
		return fmt.Errorf("invalid ai.provider %q", c.AI.Provider)
	}
	if c.AI.TimeoutMs <= 0 {
		return fmt.Errorf("ai.timeoutMs must be positive")
	}
	if c.Matching.TopN < 0 {
		return fmt.Errorf("matching.topN must not be negative")
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.bodyLimit", 1048576)
	v.SetDefault("server.allowedOrigins", []string{"*"})
	v.SetDefault("server.environment", "development")

	v.SetDefault("catalog.source", "seed")
	v.SetDefault("catalog.path", "")

	v.SetDefault("matching.includeIneligible", true)
	v.SetDefault("matching.topN", 0)
	v.SetDefault("matching.strictDistricts", true)
	v.SetDefault("matching.weights.landSize", 25)
	v.SetDefault("matching.weights.farmerType", 25)
	v.SetDefault("matching.weights.crops", 30)
	v.SetDefault("matching.weights.district", 20)

	v.SetDefault("ai.provider", "none")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.temperature", 0.1)
	v.SetDefault("ai.maxTokens", 2048)
	v.SetDefault("ai.timeoutMs", 8000)
	v.SetDefault("ai.breaker.failureThreshold", 3)
	v.SetDefault("ai.breaker.openSeconds", 30)

	v.SetDefault("sqlite.enabled", false)
	v.SetDefault("sqlite.path", "./data/subsidy.db")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	v.SetDefault("cache.ttlSeconds", 900)

	v.SetDefault("rateLimit.requestsPerMinute", 60)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputPath", "stdout")
}
