package app

import (
	"fmt"
	"time"

	"github.com/aussiebroadwan/gather/pkg/httpx"
	"github.com/caarlos0/env/v11"
)

type Config struct {
	Issuer         string `env:"GATHER_ISSUER" envDefault:"gather"`
	SigningKeyID   string `env:"GATHER_SIGNING_KEY_ID" envDefault:"gather-key-001"`
	SigningKeyFile string `env:"GATHER_SIGNING_KEY_FILE"` // Optional: PEM Ed25519 key; generated per process when empty

	DatabaseFile string `env:"GATHER_DATABASE_FILE" envDefault:"gather.db"`

	// Phone numbering plan used to match contacts to accounts.
	CountryCode string `env:"GATHER_COUNTRY_CODE" envDefault:"593"`
	TrunkPrefix string `env:"GATHER_TRUNK_PREFIX" envDefault:"0"`

	TokenTTL  time.Duration `env:"GATHER_TOKEN_TTL" envDefault:"24h"`
	LinkTTL   time.Duration `env:"GATHER_LINK_TTL" envDefault:"168h"`
	MaxWrites int           `env:"GATHER_MAX_WRITE_ATTEMPTS" envDefault:"8"`

	Env                  string        `env:"ENV" envDefault:"dev"`
	LogLevel             string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat            string        `env:"LOG_FORMAT" envDefault:"json"`
	Port                 int           `env:"PORT" envDefault:"8080"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`
	StreamPing           time.Duration `env:"STREAM_PING_INTERVAL" envDefault:"25s"`

	RateLimitStrict   httpx.RateLimitConfig `envPrefix:"RATELIMIT_STRICT_"`
	RateLimitModerate httpx.RateLimitConfig `envPrefix:"RATELIMIT_MODERATE_"`
	RateLimitLenient  httpx.RateLimitConfig `envPrefix:"RATELIMIT_LENIENT_"`
}

// LoadConfig reads the environment. Rate limit profiles start from the
// built-in values and only the variables that are set override them.
func LoadConfig() (Config, error) {
	cfg := Config{
		RateLimitStrict:   httpx.StrictLimit,
		RateLimitModerate: httpx.ModerateLimit,
		RateLimitLenient:  httpx.LenientLimit,
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
