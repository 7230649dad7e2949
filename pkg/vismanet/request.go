package vismanet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	httpclient "github.com/martinberglund/Visma.Net/pkg/http"
	"go.uber.org/zap"
)

// resolve turns an endpoint path ("customer/10001") or an absolute URL into
// the request URL.
func (c *VismaNet) resolve(path string, query map[string]string) (string, error) {
	return httpclient.BuildURL(c.apiBase.String(), path, query)
}

// headers returns the authentication and company headers of every ERP call.
func (c *VismaNet) headers(ctx context.Context) (map[string]string, error) {
	token, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{
		"Authorization":       "Bearer " + token,
		HeaderCompanyID:       c.config.CompanyID,
		HeaderApplicationType: c.config.ApplicationType,
	}
	if c.config.BranchID != "" {
		headers[HeaderBranchID] = c.config.BranchID
	}
	return headers, nil
}

func (c *VismaNet) requestOptions(ctx context.Context, method, path string, query map[string]string, body interface{}) (httpclient.RequestOptions, error) {
	endpoint, err := c.resolve(path, query)
	if err != nil {
		return httpclient.RequestOptions{}, fmt.Errorf("failed to build URL: %w", err)
	}

	headers, err := c.headers(ctx)
	if err != nil {
		return httpclient.RequestOptions{}, err
	}

	return httpclient.RequestOptions{
		Method:     method,
		URL:        endpoint,
		Headers:    headers,
		Body:       body,
		Context:    ctx,
		MaxRetries: c.config.MaxRetries,
	}, nil
}

// Send performs one ERP call and buffers the response. Non-success statuses
// are returned as *APIError. A relative Location header is resolved against
// the request URL.
func (c *VismaNet) Send(ctx context.Context, method, path string, query map[string]string, body interface{}) (*httpclient.Response, error) {
	opts, err := c.requestOptions(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(opts)
	if err != nil {
		err = c.handleError(method, opts.URL, err)
		if IsUnauthorized(err) {
			c.invalidateToken()
		}
		return nil, err
	}

	if loc := resp.Headers.Get("Location"); loc != "" {
		if abs, err := resolveLocation(opts.URL, loc); err == nil {
			resp.Headers.Set("Location", abs)
		}
	}

	return resp, nil
}

// OpenStream performs a GET and returns the unread response body. The
// caller must close it.
func (c *VismaNet) OpenStream(ctx context.Context, path string, query map[string]string) (io.ReadCloser, error) {
	opts, err := c.requestOptions(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Opening stream", zap.String("endpoint", opts.URL))
	resp, err := c.httpClient.Stream(opts)
	if err != nil {
		err = c.handleError(http.MethodGet, opts.URL, err)
		if IsUnauthorized(err) {
			c.invalidateToken()
		}
		return nil, err
	}
	return resp.Body, nil
}

func resolveLocation(requestURL, location string) (string, error) {
	base, err := url.Parse(requestURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

// PrepareRequest creates an *http.Request suitable for passing to CallAPI.
// - urlOrPath may be an absolute URL or a path relative to the ERP controller base.
// - body is JSON encoded unless it already is an io.Reader, []byte or string.
func (c *VismaNet) PrepareRequest(
	ctx context.Context,
	method string,
	urlOrPath string,
	headers map[string]string,
	queryParams map[string]string,
	body interface{},
) (*http.Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if method == "" {
		return nil, fmt.Errorf("method is required")
	}
	if urlOrPath == "" {
		return nil, fmt.Errorf("urlOrPath is required")
	}

	endpoint, err := c.resolve(urlOrPath, queryParams)
	if err != nil {
		return nil, fmt.Errorf("failed to parse urlOrPath: %w", err)
	}

	var bodyReader io.Reader
	if body != nil {
		switch v := body.(type) {
		case io.Reader:
			bodyReader = v
		case []byte:
			bodyReader = bytes.NewReader(v)
		case string:
			bodyReader = strings.NewReader(v)
		default:
			b, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal json body: %w", err)
			}
			bodyReader = bytes.NewReader(b)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Apply headers passed by caller.
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	return req, nil
}

// CallAPI executes a prepared request with the authentication and company
// headers added where the caller did not set them. Non-success responses are
// consumed and returned as *APIError; on success the caller owns resp.Body.
func (c *VismaNet) CallAPI(request *http.Request) (*http.Response, error) {
	if request == nil {
		return nil, fmt.Errorf("request is required")
	}

	// If caller provided a relative URL, resolve it against the API base.
	if request.URL != nil && !request.URL.IsAbs() {
		request.URL = c.apiBase.ResolveReference(request.URL)
	}

	headers, err := c.headers(request.Context())
	if err != nil {
		c.logger.Error("Failed to get access token", zap.Error(err))
		return nil, err
	}
	if request.Header == nil {
		request.Header = make(http.Header)
	}
	for k, v := range headers {
		if request.Header.Get(k) == "" {
			request.Header.Set(k, v)
		}
	}
	if request.Header.Get("Accept") == "" {
		request.Header.Set("Accept", "application/json")
	}

	resp, err := c.httpClient.DoRequest(request)
	if err != nil {
		c.logger.Error("Call API request failed", zap.Error(err), zap.String("url", request.URL.String()), zap.String("method", request.Method))
		return nil, fmt.Errorf("%s %s: %w", request.Method, request.URL, err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		apiErr := newAPIError(request.Method, request.URL.String(), resp.StatusCode, body)
		if IsUnauthorized(apiErr) {
			c.invalidateToken()
		}
		c.logger.Error("Call API returned an error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("url", request.URL.String()),
			zap.String("method", request.Method),
			zap.String("response", string(body)))
		return nil, apiErr
	}

	return resp, nil
}
