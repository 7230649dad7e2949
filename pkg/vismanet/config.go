package vismanet

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/martinberglund/Visma.Net/pkg/config"
)

const (
	DefaultBaseURL         = "https://integration.visma.net/API"
	DefaultTokenURL        = "https://connect.visma.com/connect/token"
	DefaultApplicationType = "Visma.net Financials"
	DefaultScope           = "vismanet_erp_service_api:read vismanet_erp_service_api:create vismanet_erp_service_api:update vismanet_erp_service_api:delete"
	DefaultTimeout         = 300 * time.Second
	DefaultMaxRetries      = 3
)

// Config holds the connection settings for one Visma.net company.
//
// Either Token (a pre-issued bearer token) or the client credentials triple
// ClientID/ClientSecret/TenantID must be set. Token takes precedence.
type Config struct {
	BaseURL         string        `env:"VISMANET_BASE_URL" validate:"required,url"`
	TokenURL        string        `env:"VISMANET_TOKEN_URL" validate:"required,url"`
	Token           string        `env:"VISMANET_TOKEN"`
	ClientID        string        `env:"VISMANET_CLIENT_ID" validate:"required_without=Token"`
	ClientSecret    string        `env:"VISMANET_CLIENT_SECRET" validate:"required_without=Token"`
	TenantID        string        `env:"VISMANET_TENANT_ID" validate:"required_without=Token"`
	Scope           string        `env:"VISMANET_SCOPE"`
	CompanyID       string        `env:"VISMANET_COMPANY_ID" validate:"required"`
	BranchID        string        `env:"VISMANET_BRANCH_ID"`
	ApplicationType string        `env:"VISMANET_APPLICATION_TYPE" validate:"required"`
	Timeout         time.Duration `env:"VISMANET_TIMEOUT" validate:"gte=0"`
	MaxRetries      int           `env:"VISMANET_MAX_RETRIES" validate:"gte=-1,lte=10"`
}

func LoadConfig() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		BaseURL:         os.Getenv("VISMANET_BASE_URL"),
		TokenURL:        os.Getenv("VISMANET_TOKEN_URL"),
		Token:           os.Getenv("VISMANET_TOKEN"),
		ClientID:        os.Getenv("VISMANET_CLIENT_ID"),
		ClientSecret:    os.Getenv("VISMANET_CLIENT_SECRET"),
		TenantID:        os.Getenv("VISMANET_TENANT_ID"),
		Scope:           os.Getenv("VISMANET_SCOPE"),
		CompanyID:       os.Getenv("VISMANET_COMPANY_ID"),
		BranchID:        os.Getenv("VISMANET_BRANCH_ID"),
		ApplicationType: os.Getenv("VISMANET_APPLICATION_TYPE"),
	}

	if v := os.Getenv("VISMANET_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("VISMANET_TIMEOUT must be a duration: %w", err)
		}
		cfg.Timeout = timeout
	}
	if v := os.Getenv("VISMANET_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("VISMANET_MAX_RETRIES must be an integer: %w", err)
		}
		cfg.MaxRetries = n
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.TokenURL == "" {
		c.TokenURL = DefaultTokenURL
	}
	if c.ApplicationType == "" {
		c.ApplicationType = DefaultApplicationType
	}
	if c.Scope == "" {
		c.Scope = DefaultScope
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	// -1 disables retries; zero means "not set".
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
}

func (c *Config) Validate() error {
	return config.ValidateStruct(c)
}
