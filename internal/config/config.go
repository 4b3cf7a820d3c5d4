package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for the upstream Tonie cloud endpoints. The token endpoint is the
// my-tonies Keycloak realm; the API base is the v2 REST surface the mobile
// apps talk to.
const (
	DefaultTokenURL   = "https://login.tonies.com/auth/realms/tonies/protocol/openid-connect/token"
	DefaultAPIBaseURL = "https://api.tonie.cloud/v2"
	DefaultClientID   = "my-tonies"
)

// Config carries everything the service needs at construction time. It is
// built once in main and injected into components; nothing reads the
// environment after startup.
type Config struct {
	// Port the HTTP server listens on.
	Port string `yaml:"port"`

	// AppPassword is the shared secret the frontend must present.
	AppPassword string `yaml:"app_password"`

	// TonieUsername / ToniePassword are the upstream service account.
	TonieUsername string `yaml:"tonie_username"`
	ToniePassword string `yaml:"tonie_password"`

	// Upstream endpoint overrides, used by tests against fake servers.
	TokenURL   string `yaml:"token_url"`
	APIBaseURL string `yaml:"api_base_url"`
	ClientID   string `yaml:"client_id"`

	// TempDir holds remote-audio downloads before upload.
	TempDir string `yaml:"temp_dir"`

	// Rate limiting for the password-gated endpoints.
	RateLimitWindow  time.Duration `yaml:"rate_limit_window"`
	RateLimitMaxHits int           `yaml:"rate_limit_max_hits"`
}

// Load builds the Config from the environment, with an optional YAML overlay
// file named by TONIELIFT_CONFIG. Environment variables win over the file so
// deployments can override a checked-in config.
func Load() (*Config, error) {
	cfg := &Config{
		Port:             "8080",
		TokenURL:         DefaultTokenURL,
		APIBaseURL:       DefaultAPIBaseURL,
		ClientID:         DefaultClientID,
		TempDir:          os.TempDir(),
		RateLimitWindow:  time.Minute,
		RateLimitMaxHits: 30,
	}

	if path := os.Getenv("TONIELIFT_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg.Port, "PORT")
	applyEnv(&cfg.AppPassword, "APP_PASSWORD")
	applyEnv(&cfg.TonieUsername, "TONIE_USERNAME")
	applyEnv(&cfg.ToniePassword, "TONIE_PASSWORD")
	applyEnv(&cfg.TokenURL, "TONIE_TOKEN_URL")
	applyEnv(&cfg.APIBaseURL, "TONIE_API_BASE_URL")
	applyEnv(&cfg.ClientID, "TONIE_CLIENT_ID")
	applyEnv(&cfg.TempDir, "TONIELIFT_TEMP_DIR")

	return cfg, nil
}

// Validate reports missing required settings. Absence of credentials is a
// deployment mistake, so main treats this as fatal.
func (c *Config) Validate() error {
	if c.AppPassword == "" {
		return fmt.Errorf("APP_PASSWORD is not set")
	}
	if c.TonieUsername == "" || c.ToniePassword == "" {
		return fmt.Errorf("TONIE_USERNAME and TONIE_PASSWORD must both be set")
	}
	return nil
}

func applyEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
