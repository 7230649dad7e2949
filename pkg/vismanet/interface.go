package vismanet

import (
	"context"
	"iter"
	"net/http"
)

// VismaNetClient defines the interface for Visma.net API operations
type VismaNetClient interface {
	Requester

	// Authenticate retrieves an OAuth access token
	Authenticate(ctx context.Context) (*AuthResponse, error)

	// PrepareRequest builds a request that can be executed via CallAPI.
	PrepareRequest(ctx context.Context, method string, urlOrPath string, headers map[string]string, queryParams map[string]string, body interface{}) (*http.Request, error)

	CallAPI(request *http.Request) (*http.Response, error)

	GetCustomer(ctx context.Context, number string) (*Customer, error)
	ListCustomers(ctx context.Context, filter Filter) ([]Customer, error)
	StreamCustomers(ctx context.Context, filter Filter) iter.Seq2[Customer, error]
	CreateCustomer(ctx context.Context, customer *CustomerUpdate) (*Customer, error)
	UpdateCustomer(ctx context.Context, number string, customer *CustomerUpdate) error

	GetSupplier(ctx context.Context, number string) (*Supplier, error)
	ListSuppliers(ctx context.Context, filter Filter) ([]Supplier, error)

	GetCustomerInvoice(ctx context.Context, referenceNumber string) (*CustomerInvoice, error)
	ListCustomerInvoices(ctx context.Context, filter Filter) ([]CustomerInvoice, error)
	CreateCustomerInvoice(ctx context.Context, invoice *CustomerInvoiceUpdate) (*CustomerInvoice, error)
	ReleaseCustomerInvoice(ctx context.Context, referenceNumber string) (*ActionResult, error)

	GetInventoryItem(ctx context.Context, inventoryNumber string) (*InventoryItem, error)
	ListInventory(ctx context.Context, filter Filter) ([]InventoryItem, error)
	ListAccounts(ctx context.Context, filter Filter) ([]Account, error)
}

var _ VismaNetClient = (*VismaNet)(nil)
