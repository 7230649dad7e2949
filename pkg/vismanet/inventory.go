package vismanet

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"
)

const (
	InventoryPath = "inventory"
	AccountPath   = "account"
)

// GetInventoryItem retrieves an inventory item by its inventory number
func (c *VismaNet) GetInventoryItem(ctx context.Context, inventoryNumber string) (*InventoryItem, error) {
	item, err := Get[InventoryItem](ctx, c, InventoryPath+"/"+url.PathEscape(inventoryNumber), nil)
	if err != nil {
		c.logger.Error("Get inventory item failed", zap.String("inventory_number", inventoryNumber), zap.Error(err))
		return nil, fmt.Errorf("get inventory item %s failed: %w", inventoryNumber, err)
	}
	return item, nil
}

// ListInventory retrieves every inventory item matching filter
func (c *VismaNet) ListInventory(ctx context.Context, filter Filter) ([]InventoryItem, error) {
	items, err := List[InventoryItem](ctx, c, InventoryPath, filter)
	if err != nil {
		c.logger.Error("List inventory failed", zap.Error(err))
		return nil, fmt.Errorf("list inventory failed: %w", err)
	}
	return items, nil
}

// ListAccounts retrieves the general ledger accounts
func (c *VismaNet) ListAccounts(ctx context.Context, filter Filter) ([]Account, error) {
	accounts, err := List[Account](ctx, c, AccountPath, filter)
	if err != nil {
		c.logger.Error("List accounts failed", zap.Error(err))
		return nil, fmt.Errorf("list accounts failed: %w", err)
	}
	return accounts, nil
}
