package vismanet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
)

// Stream lazily decodes the JSON array returned by a GET on path. The request
// is sent when iteration starts, elements are decoded one at a time and the
// response body is closed when the array ends, on the first error or when the
// consumer stops early. An error is always the last value yielded.
func Stream[T any](ctx context.Context, c Requester, path string, query map[string]string) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		body, err := c.OpenStream(ctx, path, query)
		if err != nil {
			yield(zero, err)
			return
		}
		defer body.Close()

		for item, err := range decodeArray[T](body) {
			if !yield(item, err) {
				return
			}
		}
	}
}

// decodeArray yields the elements of the JSON array read from r. An empty
// body or a JSON null is an empty sequence.
func decodeArray[T any](r io.Reader) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		dec := json.NewDecoder(r)

		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			yield(zero, fmt.Errorf("failed to read array start: %w", err))
			return
		}
		if tok == nil {
			return
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			yield(zero, fmt.Errorf("expected a JSON array, got %v", tok))
			return
		}

		for dec.More() {
			var item T
			if err := dec.Decode(&item); err != nil {
				yield(zero, fmt.Errorf("failed to decode array element: %w", err))
				return
			}
			if !yield(item, nil) {
				return
			}
		}

		if _, err := dec.Token(); err != nil {
			yield(zero, fmt.Errorf("failed to read array end: %w", err))
		}
	}
}
