package vismanet

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"
)

const CustomerInvoicePath = "customerinvoice"

// GetCustomerInvoice retrieves a customer invoice by its reference number
func (c *VismaNet) GetCustomerInvoice(ctx context.Context, referenceNumber string) (*CustomerInvoice, error) {
	invoice, err := Get[CustomerInvoice](ctx, c, CustomerInvoicePath+"/"+url.PathEscape(referenceNumber), nil)
	if err != nil {
		c.logger.Error("Get customer invoice failed", zap.String("reference_number", referenceNumber), zap.Error(err))
		return nil, fmt.Errorf("get customer invoice %s failed: %w", referenceNumber, err)
	}
	return invoice, nil
}

// ListCustomerInvoices retrieves every customer invoice matching filter
func (c *VismaNet) ListCustomerInvoices(ctx context.Context, filter Filter) ([]CustomerInvoice, error) {
	invoices, err := List[CustomerInvoice](ctx, c, CustomerInvoicePath, filter)
	if err != nil {
		c.logger.Error("List customer invoices failed", zap.Error(err))
		return nil, fmt.Errorf("list customer invoices failed: %w", err)
	}

	c.logger.Info("Successfully listed customer invoices", zap.Int("items_count", len(invoices)))
	return invoices, nil
}

// CreateCustomerInvoice creates an invoice on hold and returns it as stored
func (c *VismaNet) CreateCustomerInvoice(ctx context.Context, invoice *CustomerInvoiceUpdate) (*CustomerInvoice, error) {
	c.logger.Info("Creating customer invoice")

	created, err := Create[CustomerInvoice](ctx, c, CustomerInvoicePath, invoice)
	if err != nil {
		c.logger.Error("Create customer invoice failed", zap.Error(err))
		return nil, fmt.Errorf("create customer invoice failed: %w", err)
	}

	c.logger.Info("Successfully created customer invoice", zap.String("reference_number", created.ReferenceNumber))
	return created, nil
}

// ReleaseCustomerInvoice releases an invoice so it is posted to the ledger
func (c *VismaNet) ReleaseCustomerInvoice(ctx context.Context, referenceNumber string) (*ActionResult, error) {
	c.logger.Info("Releasing customer invoice", zap.String("reference_number", referenceNumber))

	path := fmt.Sprintf("%s/%s/action/release", CustomerInvoicePath, url.PathEscape(referenceNumber))
	result, err := Action(ctx, c, path, nil)
	if err != nil {
		c.logger.Error("Release customer invoice failed", zap.String("reference_number", referenceNumber), zap.Error(err))
		return result, fmt.Errorf("release customer invoice %s failed: %w", referenceNumber, err)
	}

	c.logger.Info("Successfully released customer invoice",
		zap.String("reference_number", referenceNumber),
		zap.String("action_id", result.ActionID))
	return result, nil
}
