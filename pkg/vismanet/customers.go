package vismanet

import (
	"context"
	"fmt"
	"iter"
	"net/url"

	"go.uber.org/zap"
)

const CustomerPath = "customer"

// GetCustomer retrieves a single customer by its customer number
func (c *VismaNet) GetCustomer(ctx context.Context, number string) (*Customer, error) {
	c.logger.Info("Getting customer", zap.String("customer_number", number))

	customer, err := Get[Customer](ctx, c, CustomerPath+"/"+url.PathEscape(number), nil)
	if err != nil {
		c.logger.Error("Get customer failed", zap.String("customer_number", number), zap.Error(err))
		return nil, fmt.Errorf("get customer %s failed: %w", number, err)
	}

	c.logger.Info("Successfully retrieved customer",
		zap.String("customer_number", customer.Number),
		zap.String("customer_name", customer.Name))

	return customer, nil
}

// ListCustomers retrieves every customer matching filter, page by page
func (c *VismaNet) ListCustomers(ctx context.Context, filter Filter) ([]Customer, error) {
	c.logger.Info("Listing customers", zap.Any("filter", filter.Query()))

	customers, err := List[Customer](ctx, c, CustomerPath, filter)
	if err != nil {
		c.logger.Error("List customers failed", zap.Error(err))
		return nil, fmt.Errorf("list customers failed: %w", err)
	}

	c.logger.Info("Successfully listed customers", zap.Int("items_count", len(customers)))
	return customers, nil
}

// StreamCustomers yields customers as they are decoded from one list response
func (c *VismaNet) StreamCustomers(ctx context.Context, filter Filter) iter.Seq2[Customer, error] {
	return Stream[Customer](ctx, c, CustomerPath, filter.Query())
}

// CreateCustomer creates a customer and returns it as stored by the ERP
func (c *VismaNet) CreateCustomer(ctx context.Context, customer *CustomerUpdate) (*Customer, error) {
	c.logger.Info("Creating customer")

	created, err := Create[Customer](ctx, c, CustomerPath, customer)
	if err != nil {
		c.logger.Error("Create customer failed", zap.Error(err))
		return nil, fmt.Errorf("create customer failed: %w", err)
	}

	c.logger.Info("Successfully created customer", zap.String("customer_number", created.Number))
	return created, nil
}

// UpdateCustomer updates the fields present in customer
func (c *VismaNet) UpdateCustomer(ctx context.Context, number string, customer *CustomerUpdate) error {
	c.logger.Info("Updating customer", zap.String("customer_number", number))

	if err := Update(ctx, c, CustomerPath+"/"+url.PathEscape(number), customer); err != nil {
		c.logger.Error("Update customer failed", zap.String("customer_number", number), zap.Error(err))
		return fmt.Errorf("update customer %s failed: %w", number, err)
	}

	c.logger.Info("Successfully updated customer", zap.String("customer_number", number))
	return nil
}
