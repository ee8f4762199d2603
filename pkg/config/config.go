package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env  string
	Port int

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Forum     ForumConfig
	Embedding EmbeddingConfig
	Search    SearchConfig
	Backfill  BackfillConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ForumConfig points at the upstream forum API. WebBaseURL is the
// user-facing site used to build deep links in search results.
type ForumConfig struct {
	BaseURL    string
	WebBaseURL string
	PageSize   int
	Timeout    time.Duration
}

// EmbeddingConfig configures the text-embedding provider.
type EmbeddingConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	Dimension int
	MaxChars  int
	Timeout   time.Duration
}

// SearchConfig tunes semantic search behaviour.
type SearchConfig struct {
	DefaultLimit int
	CacheTTL     time.Duration
}

// BackfillConfig governs the background embedding backfill worker.
type BackfillConfig struct {
	Enabled   bool
	Workers   int
	BatchSize int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Forum = ForumConfig{
		BaseURL:    strings.TrimRight(v.GetString("FORUM_BASE_URL"), "/"),
		WebBaseURL: strings.TrimRight(v.GetString("FORUM_WEB_BASE_URL"), "/"),
		PageSize:   v.GetInt("FORUM_PAGE_SIZE"),
		Timeout:    parseDuration(v.GetString("FORUM_TIMEOUT"), 30*time.Second),
	}

	cfg.Embedding = EmbeddingConfig{
		BaseURL:   strings.TrimRight(v.GetString("EMBEDDING_BASE_URL"), "/"),
		APIKey:    v.GetString("EMBEDDING_API_KEY"),
		Model:     v.GetString("EMBEDDING_MODEL"),
		Dimension: v.GetInt("EMBEDDING_DIMENSION"),
		MaxChars:  v.GetInt("EMBEDDING_MAX_CHARS"),
		Timeout:   parseDuration(v.GetString("EMBEDDING_TIMEOUT"), 30*time.Second),
	}

	cfg.Search = SearchConfig{
		DefaultLimit: v.GetInt("SEARCH_DEFAULT_LIMIT"),
		CacheTTL:     parseDuration(v.GetString("SEARCH_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Backfill = BackfillConfig{
		Enabled:   v.GetBool("ENABLE_EMBEDDING_BACKFILL"),
		Workers:   v.GetInt("BACKFILL_WORKERS"),
		BatchSize: v.GetInt("BACKFILL_BATCH_SIZE"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "forum_sync")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("FORUM_BASE_URL", "https://forum.example.edu/api")
	v.SetDefault("FORUM_WEB_BASE_URL", "https://forum.example.edu")
	v.SetDefault("FORUM_PAGE_SIZE", 50)
	v.SetDefault("FORUM_TIMEOUT", "30s")

	v.SetDefault("EMBEDDING_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("EMBEDDING_API_KEY", "")
	v.SetDefault("EMBEDDING_MODEL", "text-embedding-3-small")
	v.SetDefault("EMBEDDING_DIMENSION", 1536)
	v.SetDefault("EMBEDDING_MAX_CHARS", 8192)
	v.SetDefault("EMBEDDING_TIMEOUT", "30s")

	v.SetDefault("SEARCH_DEFAULT_LIMIT", 5)
	v.SetDefault("SEARCH_CACHE_TTL", "10m")

	v.SetDefault("ENABLE_EMBEDDING_BACKFILL", false)
	v.SetDefault("BACKFILL_WORKERS", 1)
	v.SetDefault("BACKFILL_BATCH_SIZE", 100)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
