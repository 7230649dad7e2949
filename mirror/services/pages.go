package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/martinberglund/Visma.Net/pkg/vismanet"
)

// streamPages streams every page of path and calls fn for each document.
// Each page is decoded as it arrives, so memory use is bounded by one
// document rather than one page. A page shorter than the requested size ends
// the walk.
func streamPages(ctx context.Context, client vismanet.Requester, path string, filter vismanet.Filter, pageSize int, fn func(json.RawMessage) error) error {
	pageSize = vismanet.ClampPageSize(pageSize)
	filter.PageSize = pageSize
	if filter.PageNumber <= 0 {
		filter.PageNumber = 1
	}

	for {
		count := 0
		for raw, err := range vismanet.Stream[json.RawMessage](ctx, client, path, filter.Query()) {
			if err != nil {
				return fmt.Errorf("page %d: %w", filter.PageNumber, err)
			}
			count++
			if err := fn(raw); err != nil {
				return err
			}
		}
		if count < pageSize {
			return nil
		}
		filter.PageNumber++
	}
}
