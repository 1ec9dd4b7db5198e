package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"ATLAS_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"ATLAS_DB_MAX_CONNS" default:"8"`

	DatasetPath         string `envconfig:"DATASET_PATH" default:"data/photos.geojson"`
	SimilarityHintsPath string `envconfig:"SIMILARITY_HINTS_PATH" default:""`
	ArchiveBaseURL      string `envconfig:"ARCHIVE_BASE_URL" default:"https://katalog.ahmp.cz/pragapublica"`

	TurnstileSiteKey   string `envconfig:"TURNSTILE_SITE_KEY" default:""`
	TurnstileSecretKey string `envconfig:"TURNSTILE_SECRET_KEY" default:""`
	TurnstileBypass    bool   `envconfig:"TURNSTILE_BYPASS" default:"false"`

	SessionSecret       string `envconfig:"SESSION_SECRET" default:""`
	SessionTTLHours     int    `envconfig:"SESSION_TTL_HOURS" default:"6"`
	SessionCookieName   string `envconfig:"SESSION_COOKIE_NAME" default:"atlas_turnstile_session"`
	SessionCookieSecure bool   `envconfig:"SESSION_COOKIE_SECURE" default:"false"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("ATLAS_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("ATLAS_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("ATLAS_DB_MIN_CONNS (%d) cannot exceed ATLAS_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if strings.TrimSpace(c.DatasetPath) == "" {
		return fmt.Errorf("DATASET_PATH is required")
	}
	if !c.TurnstileBypass && strings.TrimSpace(c.TurnstileSecretKey) == "" {
		return fmt.Errorf("TURNSTILE_SECRET_KEY is required unless TURNSTILE_BYPASS is set")
	}
	if c.SessionTTLHours < 1 {
		return fmt.Errorf("SESSION_TTL_HOURS must be >= 1")
	}
	if strings.TrimSpace(c.SessionCookieName) == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME is required")
	}
	return nil
}

// SessionSigningSecret falls back to the Turnstile secret so a minimal
// deployment needs only one configured key.
func (c *Config) SessionSigningSecret() string {
	if secret := strings.TrimSpace(c.SessionSecret); secret != "" {
		return secret
	}
	return strings.TrimSpace(c.TurnstileSecretKey)
}

func (c *Config) CORSAllowedOriginsList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		if _, exists := seen[origin]; exists {
			continue
		}
		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}
	return origins
}
