// Package vismanet provides a client for the Visma.net ERP REST API
// (Visma.net Financials).
//
// Visma.net ERP is a cloud accounting and ERP suite. Its REST API exposes
// customers, suppliers, invoices, inventory, general ledger and a long tail of
// other resources, all scoped to one company per request. Every call carries a
// bearer token issued by Visma Connect together with the ipp-company-id and
// ipp-application-type headers that select the company and the product.
//
// This package handles authentication and token caching, header shaping,
// JSON (de)serialization into caller-supplied types, lazy streaming of large
// list responses, the POST-then-GET pattern the API uses for created resources
// and the translation of error responses into *APIError values.
package vismanet

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	httpclient "github.com/martinberglund/Visma.Net/pkg/http"
	"go.uber.org/zap"
)

// controllerPath is the prefix of every ERP endpoint below Config.BaseURL.
const controllerPath = "controller/api/v1/"

const (
	HeaderCompanyID       = "ipp-company-id"
	HeaderApplicationType = "ipp-application-type"
	HeaderBranchID        = "branchid"
)

// VismaNet is the main client for interacting with the Visma.net ERP API
type VismaNet struct {
	config     *Config
	httpClient *httpclient.Client
	tokenCache *tokenCache
	logger     *zap.Logger
	apiBase    *url.URL
}

// tokenCache manages the OAuth access token with thread-safe access
type tokenCache struct {
	mu          sync.RWMutex
	accessToken string
	expiresAt   time.Time
}

// NewVismaNet creates a new Visma.net client with default production logger
func NewVismaNet(cfg *Config) (*VismaNet, error) {
	logger, _ := zap.NewProduction()
	return NewVismaNetWithLogger(cfg, logger)
}

// NewVismaNetWithLogger creates a new Visma.net client with a custom logger.
// cfg is copied; unset optional fields get their defaults.
func NewVismaNetWithLogger(cfg *Config, logger *zap.Logger) (*VismaNet, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	conf := *cfg
	conf.applyDefaults()
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	apiBase, err := url.Parse(strings.TrimRight(conf.BaseURL, "/") + "/" + controllerPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	return &VismaNet{
		config:     &conf,
		httpClient: httpclient.NewClientWithTimeout(conf.Timeout, logger),
		tokenCache: &tokenCache{},
		logger:     logger,
		apiBase:    apiBase,
	}, nil
}

// CompanyID returns the company every request is scoped to.
func (c *VismaNet) CompanyID() string {
	return c.config.CompanyID
}

// APIBase returns the absolute URL relative endpoint paths resolve against.
func (c *VismaNet) APIBase() string {
	return c.apiBase.String()
}
