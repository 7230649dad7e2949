package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// DefaultTimeout is the timeout of the underlying *http.Client when none is given.
const DefaultTimeout = 30 * time.Second

type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
}

type RequestOptions struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    interface{}
	Context context.Context

	// MaxRetries caps the number of retries for idempotent requests.
	// Zero means retry until MaxElapsed, a negative value disables retries.
	MaxRetries      int
	MaxElapsed      time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// StatusError is returned for every response with a status code >= 400.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, strings.TrimSpace(string(e.Body)))
}

// NewClientWithTimeout creates a new HTTP client with a fixed request timeout
func NewClientWithTimeout(timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Do executes the request and buffers the response body.
func (c *Client) Do(opts RequestOptions) (*Response, error) {
	resp, err := execute(c, opts, func(httpResp *http.Response) (*Response, error) {
		defer httpResp.Body.Close()
		body, err := io.ReadAll(httpResp.Body)
		if err != nil {
			c.logger.Error("Failed to read response body", zap.Error(err))
			return nil, backoff.Permanent(fmt.Errorf("failed to read response body: %w", err))
		}
		return &Response{
			StatusCode: httpResp.StatusCode,
			Headers:    httpResp.Header,
			Body:       body,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("HTTP request completed successfully",
		zap.Int("status_code", resp.StatusCode),
		zap.String("method", opts.Method),
		zap.String("url", opts.URL))

	return resp, nil
}

// Stream executes the request like Do but hands back the open response.
// The caller owns resp.Body.
func (c *Client) Stream(opts RequestOptions) (*http.Response, error) {
	return execute(c, opts, func(httpResp *http.Response) (*http.Response, error) {
		return httpResp, nil
	})
}

func execute[T any](c *Client, opts RequestOptions, handle func(*http.Response) (T, error)) (T, error) {
	var zero T

	// Set default backoff configuration
	if opts.MaxElapsed == 0 {
		opts.MaxElapsed = 5 * time.Minute
	}
	if opts.InitialInterval == 0 {
		opts.InitialInterval = 100 * time.Millisecond
	}
	if opts.MaxInterval == 0 {
		opts.MaxInterval = 30 * time.Second
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = opts.InitialInterval
	expBackoff.MaxInterval = opts.MaxInterval
	expBackoff.Reset()

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	retryable := isIdempotent(opts.Method) && opts.MaxRetries >= 0

	operation := func() (T, error) {
		req, err := c.buildRequest(ctx, opts)
		if err != nil {
			c.logger.Error("Failed to build request", zap.Error(err), zap.String("method", opts.Method), zap.String("url", opts.URL))
			return zero, backoff.Permanent(err)
		}

		c.logger.Debug("Making HTTP request",
			zap.String("method", opts.Method),
			zap.String("url", opts.URL))

		httpResp, err := c.httpClient.Do(req)
		if err != nil {
			if !retryable || ctx.Err() != nil {
				return zero, backoff.Permanent(err)
			}
			c.logger.Warn("HTTP request failed, will retry",
				zap.Error(err),
				zap.String("method", opts.Method),
				zap.String("url", opts.URL))
			return zero, err
		}

		if httpResp.StatusCode >= 400 {
			body, _ := io.ReadAll(httpResp.Body)
			httpResp.Body.Close()
			statusErr := &StatusError{
				Method:     opts.Method,
				URL:        opts.URL,
				StatusCode: httpResp.StatusCode,
				Headers:    httpResp.Header,
				Body:       body,
			}

			if retryable && isRetryableStatus(httpResp.StatusCode) {
				c.logger.Warn("Server error, will retry",
					zap.Int("status_code", httpResp.StatusCode),
					zap.String("method", opts.Method),
					zap.String("url", opts.URL))
				if wait, ok := retryAfter(httpResp.Header.Get("Retry-After")); ok {
					return zero, errors.Join(statusErr, backoff.RetryAfter(wait))
				}
				return zero, statusErr
			}

			c.logger.Error("Client error, not retryable",
				zap.Int("status_code", httpResp.StatusCode),
				zap.String("method", opts.Method),
				zap.String("url", opts.URL),
				zap.String("response", string(body)))
			return zero, backoff.Permanent(statusErr)
		}

		c.logger.Debug("HTTP request successful",
			zap.Int("status_code", httpResp.StatusCode),
			zap.String("method", opts.Method),
			zap.String("url", opts.URL))

		return handle(httpResp)
	}

	retryOpts := []backoff.RetryOption{
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxElapsedTime(opts.MaxElapsed),
	}
	switch {
	case !retryable:
		retryOpts = append(retryOpts, backoff.WithMaxTries(1))
	case opts.MaxRetries > 0:
		retryOpts = append(retryOpts, backoff.WithMaxTries(uint(opts.MaxRetries+1)))
	}

	resp, err := backoff.Retry(ctx, operation, retryOpts...)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			err = statusErr
		}
		c.logger.Error("HTTP request failed",
			zap.Error(err),
			zap.String("method", opts.Method),
			zap.String("url", opts.URL))
		return zero, err
	}
	return resp, nil
}

func isIdempotent(method string) bool {
	switch strings.ToUpper(method) {
	case "", http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return true
	}
	return false
}

func isRetryableStatus(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}

// retryAfter parses a Retry-After header given in seconds or as an HTTP date.
func retryAfter(value string) (int, bool) {
	if value == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && secs >= 0 {
		return secs, true
	}
	if at, err := http.ParseTime(value); err == nil {
		return max(int(time.Until(at).Seconds()), 0), true
	}
	return 0, false
}

func (c *Client) buildRequest(ctx context.Context, opts RequestOptions) (*http.Request, error) {
	var bodyReader io.Reader
	if opts.Body != nil {
		if bodyBytes, ok := opts.Body.([]byte); ok {
			bodyReader = bytes.NewReader(bodyBytes)
		} else {
			// If Content-Type explicitly requests form encoding, honor it.
			contentType := opts.Headers["Content-Type"]
			if contentType == "" {
				contentType = opts.Headers["content-type"]
			}

			if strings.HasPrefix(strings.ToLower(contentType), "application/x-www-form-urlencoded") {
				form, err := encodeForm(opts.Body)
				if err != nil {
					return nil, err
				}
				bodyReader = strings.NewReader(form.Encode())
			} else {
				bodyJSON, err := json.Marshal(opts.Body)
				if err != nil {
					return nil, fmt.Errorf("failed to marshal request body: %w", err)
				}
				bodyReader = bytes.NewReader(bodyJSON)
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, opts.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set default headers
	if opts.Body != nil && opts.Headers["Content-Type"] == "" && opts.Headers["content-type"] == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	// Set custom headers
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	return req, nil
}

// encodeForm converts url.Values, string maps and JSON-marshalable structs into form values.
func encodeForm(body interface{}) (url.Values, error) {
	form := url.Values{}

	switch v := body.(type) {
	case url.Values:
		return v, nil
	case map[string]string:
		for k, val := range v {
			form.Set(k, val)
		}
		return form, nil
	case map[string]interface{}:
		for k, val := range v {
			if val == nil {
				continue
			}
			form.Set(k, fmt.Sprint(val))
		}
		return form, nil
	}

	// Convert structs (or other JSON-marshalable types) into a map first.
	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(bodyJSON, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request body: %w", err)
	}
	for k, val := range m {
		if val == nil {
			continue
		}
		form.Set(k, fmt.Sprint(val))
	}
	return form, nil
}

func (c *Client) Post(ctx context.Context, url string, headers map[string]string, body interface{}) (*Response, error) {
	return c.Do(RequestOptions{
		Method:  http.MethodPost,
		URL:     url,
		Headers: headers,
		Body:    body,
		Context: ctx,
	})
}

// DoRequest executes a fully-constructed net/http request. This is useful for
// calling endpoints that don't fit the typed helper methods (custom/native APIs).
func (c *Client) DoRequest(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}
