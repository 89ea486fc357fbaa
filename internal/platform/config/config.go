package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	strutil "mugs/pkg/platform/strings"
)

// Config aggregates application configuration values.
type Config struct {
	Server   Server
	Auth     Auth
	Mongo    MongoConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logging  LoggingConfig
	People   PeopleConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	MetricsEnabled  bool
}

// Auth configures token issuing and password hashing.
type Auth struct {
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	TokenTTL      time.Duration
	BcryptCost    int
	// RegistrationTTL bounds each step of the registration flow.
	RegistrationTTL time.Duration
	// RevocationCleanupInterval applies to the in-memory revocation list only.
	RevocationCleanupInterval time.Duration
}

// MongoConfig selects the live document store. An empty URI keeps every
// collection in memory.
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// PostgresConfig selects the archive store. Without a DSN the archive lives in
// Mongo when configured, otherwise in memory.
type PostgresConfig struct {
	DSN string
}

// RedisConfig backs the view cache and the token revocation list.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

// PeopleConfig tunes the person lifecycle.
type PeopleConfig struct {
	PropagateToSiblings bool
	ViewTTL             time.Duration
	SweepInterval       time.Duration
	OrphanGrace         time.Duration
}

const devSigningKey = "dev-secret-key-change-in-production"

// Load reads an optional .env file, then the environment, applying defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Server: Server{
			Addr:            valueOrDefault("MUGS_ADDR", ":8080"),
			ReadTimeout:     durationOrDefault("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    durationOrDefault("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: durationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  strutil.SplitList(valueOrDefault("ALLOWED_ORIGINS", "http://localhost:3000")),
			MetricsEnabled:  boolOrDefault("METRICS_ENABLED", true),
		},
		Auth: Auth{
			JWTSigningKey:             valueOrDefault("JWT_SIGNING_KEY", devSigningKey),
			JWTIssuer:                 valueOrDefault("JWT_ISSUER", "mugs"),
			JWTAudience:               valueOrDefault("JWT_AUDIENCE", "mugs-api"),
			TokenTTL:                  durationOrDefault("TOKEN_TTL", 24*time.Hour),
			BcryptCost:                intOrDefault("BCRYPT_COST", 10),
			RegistrationTTL:           durationOrDefault("REGISTRATION_TOKEN_TTL", 15*time.Minute),
			RevocationCleanupInterval: durationOrDefault("REVOCATION_CLEANUP_INTERVAL", 5*time.Minute),
		},
		Mongo: MongoConfig{
			URI:            os.Getenv("MONGO_URI"),
			Database:       valueOrDefault("MONGO_DATABASE", "mugs"),
			ConnectTimeout: durationOrDefault("MONGO_CONNECT_TIMEOUT", 10*time.Second),
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("POSTGRES_DSN"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intOrDefault("REDIS_POOL_SIZE", 10),
			MinIdleConns: intOrDefault("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durationOrDefault("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durationOrDefault("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durationOrDefault("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", "info"),
			Format:        valueOrDefault("LOG_FORMAT", "text"),
			IncludeCaller: boolOrDefault("LOG_INCLUDE_CALLER", false),
		},
		People: PeopleConfig{
			PropagateToSiblings: boolOrDefault("PROPAGATE_TO_SIBLINGS", true),
			ViewTTL:             durationOrDefault("VIEW_CACHE_TTL", 5*time.Minute),
			SweepInterval:       durationOrDefault("ORPHAN_SWEEP_INTERVAL", 10*time.Minute),
			OrphanGrace:         durationOrDefault("ORPHAN_GRACE", time.Hour),
		},
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.Auth.RegistrationTTL <= 0 {
		return fmt.Errorf("REGISTRATION_TOKEN_TTL must be positive")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.Auth.BcryptCost)
	}
	if c.People.SweepInterval <= 0 {
		return fmt.Errorf("ORPHAN_SWEEP_INTERVAL must be positive")
	}
	return nil
}

// UsesDevSigningKey reports whether the built-in development key is in use.
func (c Config) UsesDevSigningKey() bool {
	return c.Auth.JWTSigningKey == devSigningKey
}

func valueOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func durationOrDefault(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func intOrDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func boolOrDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
