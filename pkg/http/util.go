package http

import (
	"fmt"
	"net/url"
)

// BuildURL joins path onto baseURL, keeping any path prefix of the base, and
// merges queryParams into the query string.
func BuildURL(baseURL, path string, queryParams map[string]string) (string, error) {
	// Parse the base URL
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("error parsing base URL: %w", err)
	}

	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("error parsing path: %w", err)
	}
	if ref.IsAbs() {
		parsedURL = ref
	} else {
		// JoinPath expects escaped elements; ref.Path would undo %2F and %25.
		parsedURL = parsedURL.JoinPath(ref.EscapedPath())
		parsedURL.RawQuery = ref.RawQuery
	}

	// Set query parameters dynamically
	q := parsedURL.Query()
	for key, value := range queryParams {
		q.Set(key, value)
	}
	parsedURL.RawQuery = q.Encode()

	// Return the full URL as a string
	return parsedURL.String(), nil
}
