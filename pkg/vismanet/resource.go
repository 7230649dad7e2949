package vismanet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	httpclient "github.com/martinberglund/Visma.Net/pkg/http"
)

const (
	// MaxPageSize is the largest pageSize the ERP honours. Larger requests
	// are capped by the server, which would end paging after the first page.
	MaxPageSize = 1000
	// DefaultPageSize is the page size List uses when the filter sets none.
	DefaultPageSize = MaxPageSize
)

// ClampPageSize maps size onto 1..MaxPageSize, using DefaultPageSize for
// unset values.
func ClampPageSize(size int) int {
	if size <= 0 {
		return DefaultPageSize
	}
	return min(size, MaxPageSize)
}

// Requester is the transport the generic operations run on. *VismaNet
// implements it.
type Requester interface {
	Send(ctx context.Context, method, path string, query map[string]string, body interface{}) (*httpclient.Response, error)
	OpenStream(ctx context.Context, path string, query map[string]string) (io.ReadCloser, error)
}

// Get fetches path and decodes the response into T.
func Get[T any](ctx context.Context, c Requester, path string, query map[string]string) (*T, error) {
	resp, err := c.Send(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}

	var out T
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse %s response: %w", path, err)
	}
	return &out, nil
}

// List collects every page of a list endpoint. Paging stops at the first
// page holding fewer than PageSize items.
func List[T any](ctx context.Context, c Requester, path string, filter Filter) ([]T, error) {
	filter.PageSize = ClampPageSize(filter.PageSize)
	if filter.PageNumber <= 0 {
		filter.PageNumber = 1
	}

	var all []T
	for {
		page, err := Get[[]T](ctx, c, path, filter.Query())
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", filter.PageNumber, err)
		}
		all = append(all, *page...)
		if len(*page) < filter.PageSize {
			return all, nil
		}
		filter.PageNumber++
	}
}

// Create posts body to path. The ERP answers a create with 201 and a Location
// header; that location is fetched and decoded into T. Without a Location the
// POST response body itself is decoded.
func Create[T any](ctx context.Context, c Requester, path string, body interface{}) (*T, error) {
	resp, err := c.Send(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return nil, err
	}

	if location := resp.Headers.Get("Location"); location != "" {
		created, err := Get[T](ctx, c, location, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch created resource at %s: %w", location, err)
		}
		return created, nil
	}

	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil, ErrMissingLocation
	}

	var out T
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse %s response: %w", path, err)
	}
	return &out, nil
}

// Update replaces the fields present in body on the resource at path.
func Update(ctx context.Context, c Requester, path string, body interface{}) error {
	_, err := c.Send(ctx, http.MethodPut, path, nil, body)
	return err
}

// Delete removes the resource at path.
func Delete(ctx context.Context, c Requester, path string) error {
	_, err := c.Send(ctx, http.MethodDelete, path, nil, nil)
	return err
}

// Action invokes an action endpoint such as "customerinvoice/{n}/action/release".
// An action the ERP reports as failed is returned as an error together with
// its result.
func Action(ctx context.Context, c Requester, path string, body interface{}) (*ActionResult, error) {
	resp, err := c.Send(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return nil, err
	}

	result := &ActionResult{}
	if len(bytes.TrimSpace(resp.Body)) > 0 {
		if err := json.Unmarshal(resp.Body, result); err != nil {
			return nil, fmt.Errorf("failed to parse %s response: %w", path, err)
		}
	}
	return result, result.Err()
}
