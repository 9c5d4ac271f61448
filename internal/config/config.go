// Package config loads harness configuration from the environment and an
// optional YAML file. Environment variables use the BIOQA_ prefix, e.g.
// BIOQA_API_BASE_URL maps to api.base_url.
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/biometriqa/harness/internal/domain"
)

type Config struct {
	API     APIConfig     `koanf:"api"`
	HTTP    HTTPConfig    `koanf:"http"`
	Policy  PolicyConfig  `koanf:"policy"`
	Archive ArchiveConfig `koanf:"archive"`
}

// APIConfig holds the credentials and endpoint of the remote identity API.
type APIConfig struct {
	BaseURL      string `koanf:"base_url"`
	APIKey       string `koanf:"api_key"`
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	Realm        string `koanf:"realm"`
}

// HTTPConfig holds the retry and timeout policy of the request executor.
type HTTPConfig struct {
	MaxRetries int           `koanf:"max_retries"`
	RetryDelay time.Duration `koanf:"retry_delay"`
	Timeout    time.Duration `koanf:"timeout"`
}

// PolicyConfig declares the acceptance thresholds the analysis engine checks
// server responses against.
type PolicyConfig struct {
	MinAge              int    `koanf:"min_age"`
	MaxAge              int    `koanf:"max_age"`
	MinTolerance        int    `koanf:"min_tolerance"`
	MaxTolerance        int    `koanf:"max_tolerance"`
	ExpiryWarningMonths int    `koanf:"expiry_warning_months"`
	ExpectedAgeResult   string `koanf:"expected_age_result"`
	ExpectedAuthResult  string `koanf:"expected_auth_result"`
}

// ArchiveConfig configures the optional run-history archive.
type ArchiveConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// Load reads configuration from an optional YAML file and the environment.
// A .env file in the working directory is loaded first if present.
// Environment variables override file values.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, domain.ErrConfiguration("load config file " + path + ": " + err.Error())
		}
	}

	if err := k.Load(env.Provider("BIOQA_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "BIOQA_")), "_", ".", 1)
	}), nil); err != nil {
		return nil, domain.ErrConfiguration("load environment: " + err.Error())
	}

	setDefaults(k)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, domain.ErrConfiguration("unmarshal config: " + err.Error())
	}

	if cfg.API.BaseURL == "" {
		return nil, domain.ErrConfiguration("api.base_url is required (set BIOQA_API_BASE_URL)")
	}

	return &cfg, nil
}

func setDefaults(k *koanf.Koanf) {
	defaults := map[string]any{
		"http.max_retries":             3,
		"http.retry_delay":             time.Second,
		"http.timeout":                 30 * time.Second,
		"policy.min_age":               18,
		"policy.max_age":               65,
		"policy.expiry_warning_months": 6,
		"archive.path":                 "./data/runs.db",
	}
	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}
}

// HasOAuth reports whether client-credentials settings are complete.
func (c APIConfig) HasOAuth() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.Realm != ""
}
