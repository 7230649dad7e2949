package services

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/martinberglund/Visma.Net/pkg/vismanet"
	"go.uber.org/zap"
)

// ExportService writes ERP resources out as JSON
type ExportService struct {
	client   vismanet.Requester
	pageSize int
	logger   *zap.Logger
}

// NewExportService creates a new export service
func NewExportService(client vismanet.Requester, pageSize int, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{client: client, pageSize: pageSize, logger: logger}
}

// Export streams every record of resource matching filter to w as one JSON
// array and returns the number of records written. Records are copied as
// they are decoded; the resource is never held in memory as a whole.
func (e *ExportService) Export(ctx context.Context, resource string, filter vismanet.Filter, w io.Writer) (int, error) {
	r, err := LookupResource(resource)
	if err != nil {
		return 0, err
	}

	e.logger.Info("Exporting resource", zap.String("resource", r.Name))

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("["); err != nil {
		return 0, err
	}

	count := 0
	err = streamPages(ctx, e.client, r.Path, filter, e.pageSize, func(raw json.RawMessage) error {
		if count > 0 {
			if err := bw.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := bw.WriteString("\n  "); err != nil {
			return err
		}
		if _, err := bw.Write(raw); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		e.logger.Error("Export failed", zap.String("resource", r.Name), zap.Int("written", count), zap.Error(err))
		return count, fmt.Errorf("export %s failed: %w", r.Name, err)
	}

	if count > 0 {
		if err := bw.WriteByte('\n'); err != nil {
			return count, err
		}
	}
	if _, err := bw.WriteString("]\n"); err != nil {
		return count, err
	}
	if err := bw.Flush(); err != nil {
		return count, err
	}

	e.logger.Info("Exported resource", zap.String("resource", r.Name), zap.Int("records", count))
	return count, nil
}
