package vismanet

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// AuthResponse represents the Visma Connect token response
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

// AuthRequest represents the client credentials token request
type AuthRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Scope        string `json:"scope,omitempty"`
	TenantID     string `json:"tenant_id"`
}

// getAccessToken returns the configured static token, or a cached Visma
// Connect token that is refreshed shortly before it expires.
func (c *VismaNet) getAccessToken(ctx context.Context) (string, error) {
	if c.config.Token != "" {
		return c.config.Token, nil
	}

	c.tokenCache.mu.RLock()
	if c.tokenCache.accessToken != "" && time.Now().Before(c.tokenCache.expiresAt) {
		token := c.tokenCache.accessToken
		remaining := time.Until(c.tokenCache.expiresAt)
		c.tokenCache.mu.RUnlock()
		c.logger.Debug("Using cached access token", zap.Duration("remaining", remaining))
		return token, nil
	}
	c.tokenCache.mu.RUnlock()

	c.logger.Info("Access token expired or not available, authenticating")
	authResp, err := c.Authenticate(ctx)
	if err != nil {
		c.logger.Error("Failed to authenticate", zap.Error(err))
		return "", fmt.Errorf("failed to authenticate: %w", err)
	}

	expiresIn := time.Duration(authResp.ExpiresIn) * time.Second
	if expiresIn <= 0 {
		expiresIn = time.Hour // Default to an hour if not provided
	}
	// Refresh 30 seconds early, or halfway through a shorter lifetime
	margin := min(30*time.Second, expiresIn/2)

	c.tokenCache.mu.Lock()
	c.tokenCache.accessToken = authResp.AccessToken
	c.tokenCache.expiresAt = time.Now().Add(expiresIn - margin)
	expiresAt := c.tokenCache.expiresAt
	c.tokenCache.mu.Unlock()

	c.logger.Info("Successfully authenticated and cached access token",
		zap.Duration("expires_in", expiresIn),
		zap.Time("expires_at", expiresAt))

	return authResp.AccessToken, nil
}

// invalidateToken drops the cached token so the next call authenticates again.
func (c *VismaNet) invalidateToken() {
	c.tokenCache.mu.Lock()
	c.tokenCache.accessToken = ""
	c.tokenCache.expiresAt = time.Time{}
	c.tokenCache.mu.Unlock()
}

// Authenticate retrieves an access token from Visma Connect using the client
// credentials grant. With a static token configured no request is made.
func (c *VismaNet) Authenticate(ctx context.Context) (*AuthResponse, error) {
	if c.config.Token != "" {
		return &AuthResponse{AccessToken: c.config.Token, TokenType: "Bearer"}, nil
	}

	c.logger.Info("Authenticating with Visma Connect", zap.String("url", c.config.TokenURL))

	authReq := AuthRequest{
		GrantType:    "client_credentials",
		ClientID:     c.config.ClientID,
		ClientSecret: c.config.ClientSecret,
		Scope:        c.config.Scope,
		TenantID:     c.config.TenantID,
	}

	headers := map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	}

	resp, err := c.httpClient.Post(ctx, c.config.TokenURL, headers, authReq)
	if err != nil {
		c.logger.Error("Authentication request failed", zap.Error(err), zap.String("url", c.config.TokenURL))
		return nil, fmt.Errorf("authentication request failed: %w", c.handleError(http.MethodPost, c.config.TokenURL, err))
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Authentication failed",
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", string(resp.Body)))
		return nil, fmt.Errorf("authentication failed with status %d: %s", resp.StatusCode, string(resp.Body))
	}

	var authResp AuthResponse
	if err := json.Unmarshal(resp.Body, &authResp); err != nil {
		c.logger.Error("Failed to parse authentication response", zap.Error(err))
		return nil, fmt.Errorf("failed to parse authentication response: %w", err)
	}
	if authResp.AccessToken == "" {
		return nil, fmt.Errorf("authentication response carried no access token")
	}

	c.logger.Info("Successfully authenticated",
		zap.String("token_type", authResp.TokenType),
		zap.Int("expires_in", authResp.ExpiresIn))

	return &authResp, nil
}
