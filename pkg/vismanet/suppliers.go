package vismanet

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"
)

const SupplierPath = "supplier"

// GetSupplier retrieves a single supplier by its supplier number
func (c *VismaNet) GetSupplier(ctx context.Context, number string) (*Supplier, error) {
	supplier, err := Get[Supplier](ctx, c, SupplierPath+"/"+url.PathEscape(number), nil)
	if err != nil {
		c.logger.Error("Get supplier failed", zap.String("supplier_number", number), zap.Error(err))
		return nil, fmt.Errorf("get supplier %s failed: %w", number, err)
	}
	return supplier, nil
}

// ListSuppliers retrieves every supplier matching filter
func (c *VismaNet) ListSuppliers(ctx context.Context, filter Filter) ([]Supplier, error) {
	suppliers, err := List[Supplier](ctx, c, SupplierPath, filter)
	if err != nil {
		c.logger.Error("List suppliers failed", zap.Error(err))
		return nil, fmt.Errorf("list suppliers failed: %w", err)
	}

	c.logger.Info("Successfully listed suppliers", zap.Int("items_count", len(suppliers)))
	return suppliers, nil
}
