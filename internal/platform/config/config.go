package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Lock backends used to serialise certificate numbering.
const (
	LockMemory   = "memory"
	LockRedis    = "redis"
	LockPostgres = "postgres"
)

// Config holds application configuration.
type Config struct {
	Port         string
	IsProduction bool

	StoreBackend   string
	DatabaseURL    string
	MigrationsPath string // file path of the SQL migrations; empty skips migrating
	SeedFile       string // JSON reference data loaded into the memory store

	LockBackend string
	RedisURL    string
	LockTTL     time.Duration
	LockWait    time.Duration // Maximum time spent waiting for a numbering lock

	NumberingRetries  int
	CertificatePrefix string
	CertificateSuffix string
	CertificateStart  int

	RendererURL         string
	RenderTimeout       time.Duration
	RenderMaxSessions   int64
	RenderCacheSize     int
	RenderCacheTTL      time.Duration
	PageFormat          string  // paper size passed to the renderer, e.g. "A4"
	PageMargin          float64 // inches, applied to all four sides
	PrintBackground     bool
	HoldingsConcurrency int
	Locale              string
	LookbackYears       int
	PermittedFields     []string // Custom certificate fields accepted by the template engine

	JWTSecret     string
	JWTIssuer     string
	RateLimit     string // ulule/limiter formatted rate, e.g. "100-M"
	DocumentRate  string // stricter rate for document generation
	AllowedOrigin []string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("STORE_BACKEND", StoreMemory)
	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("MIGRATIONS_PATH", "migrations")
	viper.SetDefault("SEED_FILE", "")
	viper.SetDefault("LOCK_BACKEND", LockMemory)
	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	viper.SetDefault("LOCK_TTL", "30s")
	viper.SetDefault("LOCK_WAIT", "10s")
	viper.SetDefault("NUMBERING_RETRIES", 3)
	viper.SetDefault("CERTIFICATE_PREFIX", "CERT")
	viper.SetDefault("CERTIFICATE_SUFFIX", "")
	viper.SetDefault("CERTIFICATE_START_NUMBER", 1)
	viper.SetDefault("RENDERER_URL", "http://localhost:3000")
	viper.SetDefault("RENDER_TIMEOUT", "30s")
	viper.SetDefault("RENDER_MAX_SESSIONS", 4)
	viper.SetDefault("RENDER_CACHE_SIZE", 256)
	viper.SetDefault("RENDER_CACHE_TTL", "15m")
	viper.SetDefault("PAGE_FORMAT", "A4")
	viper.SetDefault("PAGE_MARGIN", 0.5)
	viper.SetDefault("PRINT_BACKGROUND", true)
	viper.SetDefault("HOLDINGS_CONCURRENCY", 8)
	viper.SetDefault("LOCALE", "en-AU")
	viper.SetDefault("LOOKBACK_YEARS", 10)
	viper.SetDefault("CERTIFICATE_CUSTOM_FIELDS", "")
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_ISSUER", "securities-registry")
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("DOCUMENT_RATE_LIMIT", "20-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")

	viper.AutomaticEnv()

	cfg := &Config{
		Port:              viper.GetString("PORT"),
		IsProduction:      viper.GetBool("IS_PRODUCTION"),
		StoreBackend:      strings.ToLower(viper.GetString("STORE_BACKEND")),
		DatabaseURL:       viper.GetString("PGSQL_URL"),
		MigrationsPath:    viper.GetString("MIGRATIONS_PATH"),
		SeedFile:          viper.GetString("SEED_FILE"),
		LockBackend:       strings.ToLower(viper.GetString("LOCK_BACKEND")),
		RedisURL:          viper.GetString("REDIS_URL"),
		NumberingRetries:  viper.GetInt("NUMBERING_RETRIES"),
		CertificatePrefix: viper.GetString("CERTIFICATE_PREFIX"),
		CertificateSuffix: viper.GetString("CERTIFICATE_SUFFIX"),
		CertificateStart:  viper.GetInt("CERTIFICATE_START_NUMBER"),
		RendererURL:       viper.GetString("RENDERER_URL"),
		RenderMaxSessions: viper.GetInt64("RENDER_MAX_SESSIONS"),
		RenderCacheSize:   viper.GetInt("RENDER_CACHE_SIZE"),
		Locale:            viper.GetString("LOCALE"),
		LookbackYears:     viper.GetInt("LOOKBACK_YEARS"),
		PermittedFields:   splitList(viper.GetString("CERTIFICATE_CUSTOM_FIELDS")),
		JWTSecret:         viper.GetString("JWT_SECRET"),
		JWTIssuer:         viper.GetString("JWT_ISSUER"),
		RateLimit:         viper.GetString("RATE_LIMIT"),
		DocumentRate:      viper.GetString("DOCUMENT_RATE_LIMIT"),
		AllowedOrigin:     splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),

		HoldingsConcurrency: viper.GetInt("HOLDINGS_CONCURRENCY"),
		PageFormat:          strings.ToUpper(viper.GetString("PAGE_FORMAT")),
		PageMargin:          viper.GetFloat64("PAGE_MARGIN"),
		PrintBackground:     viper.GetBool("PRINT_BACKGROUND"),
	}

	cfg.LockTTL = duration("LOCK_TTL", 30*time.Second)
	cfg.LockWait = duration("LOCK_WAIT", 10*time.Second)
	cfg.RenderTimeout = duration("RENDER_TIMEOUT", 30*time.Second)
	cfg.RenderCacheTTL = duration("RENDER_CACHE_TTL", 15*time.Minute)

	if cfg.Port == "" {
		cfg.Port = "8080" // Default port
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	if cfg.NumberingRetries < 1 {
		cfg.NumberingRetries = 1
	}
	if cfg.RenderCacheSize < 1 {
		cfg.RenderCacheSize = 1
	}
	if cfg.PageMargin < 0 {
		cfg.PageMargin = 0
	}
	if cfg.HoldingsConcurrency < 1 {
		cfg.HoldingsConcurrency = 1
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("PGSQL_URL is required when STORE_BACKEND=%s", StorePostgres)
		}
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.LockBackend {
	case LockMemory, LockRedis:
	case LockPostgres:
		if c.StoreBackend != StorePostgres {
			return fmt.Errorf("LOCK_BACKEND=%s requires STORE_BACKEND=%s", LockPostgres, StorePostgres)
		}
	default:
		return fmt.Errorf("unsupported LOCK_BACKEND %q", c.LockBackend)
	}
	return nil
}

// duration reads a duration setting, falling back with a warning when it does not parse.
func duration(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback.String())
		}
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
