// Package config loads the launcher settings and per-run request plans.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Netflix/go-env"

	"github.com/aaronwds/docusign-jwt/internal/auth"
	"github.com/aaronwds/docusign-jwt/internal/esign"
)

const (
	DefaultAuthServer  = "account-d.docusign.com"
	DefaultRedirectURI = "https://developers.docusign.com/platform/auth/consent"
	DefaultPlanPath    = "request.yaml"
)

// Config is read from config.json and then overridden by DOCUSIGN_*
// environment variables.
type Config struct {
	IntegrationKey string `json:"integration_key" env:"DOCUSIGN_INTEGRATION_KEY"`
	UserID         string `json:"user_impersonation_guid_jwt" env:"DOCUSIGN_USER_ID"`
	PrivateKeyPath string `json:"RSA_private_key_jwt_location" env:"DOCUSIGN_PRIVATE_KEY_PATH"`
	AuthServer     string `json:"auth_server" env:"DOCUSIGN_AUTH_SERVER"`
	RedirectURI    string `json:"redirect_uri" env:"DOCUSIGN_REDIRECT_URI"`
	BasePath       string `json:"base_path" env:"DOCUSIGN_BASE_PATH"`

	// TokenValidity is the lifetime of the JWT assertion, e.g. "60s".
	TokenValidity string `json:"token_validity" env:"DOCUSIGN_TOKEN_VALIDITY"`

	PlanPath        string   `json:"request_plan" env:"DOCUSIGN_REQUEST_PLAN"`
	ConnectHMACKeys []string `json:"connect_hmac_keys" env:"DOCUSIGN_CONNECT_HMAC_KEYS,separator=|"`

	Environment string `json:"environment" env:"ENVIRONMENT"`
	LogLevel    string `json:"log_level" env:"LOG_LEVEL"`
	Host        string `json:"host" env:"HOST"`
	Port        int    `json:"port" env:"PORT"`
}

var validEnvs = map[string]bool{
	"dev":  true,
	"test": true,
	"prod": true,
}

// Load reads the JSON file at path, when path is not empty, and applies the
// environment on top. A missing file is not an error when optional is true.
func Load(path string, optional bool) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist) && optional:
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := json.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AuthServer == "" {
		c.AuthServer = DefaultAuthServer
	}
	if c.RedirectURI == "" {
		c.RedirectURI = DefaultRedirectURI
	}
	if c.BasePath == "" {
		c.BasePath = esign.DemoBasePath
	}
	if c.PlanPath == "" {
		c.PlanPath = DefaultPlanPath
	}
	if c.Environment == "" {
		c.Environment = "dev"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
}

func (c *Config) validate() error {
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid ENVIRONMENT: %s", c.Environment)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if _, err := c.AssertionValidity(); err != nil {
		return err
	}
	return nil
}

// RequireCredentials checks the settings needed to authenticate.
func (c *Config) RequireCredentials() error {
	var missing []string
	if c.IntegrationKey == "" {
		missing = append(missing, "integration_key")
	}
	if c.UserID == "" {
		missing = append(missing, "user_impersonation_guid_jwt")
	}
	if c.PrivateKeyPath == "" {
		missing = append(missing, "RSA_private_key_jwt_location")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// AssertionValidity parses TokenValidity, falling back to
// auth.DefaultTokenValidity when it is unset.
func (c *Config) AssertionValidity() (time.Duration, error) {
	if c.TokenValidity == "" {
		return auth.DefaultTokenValidity, nil
	}
	d, err := time.ParseDuration(c.TokenValidity)
	if err != nil {
		return 0, fmt.Errorf("invalid token_validity %q: %w", c.TokenValidity, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("token_validity must be positive, got %s", d)
	}
	return d, nil
}

func (c *Config) Credentials() auth.Credentials {
	return auth.Credentials{
		IntegrationKey: c.IntegrationKey,
		UserID:         c.UserID,
		PrivateKeyPath: c.PrivateKeyPath,
		AuthServer:     c.AuthServer,
		RedirectURI:    c.RedirectURI,
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
