package vismanet

// Country is the country reference embedded in addresses
type Country struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Address represents a postal address as returned by the ERP
type Address struct {
	AddressID    int     `json:"addressId"`
	AddressLine1 string  `json:"addressLine1"`
	AddressLine2 string  `json:"addressLine2"`
	AddressLine3 string  `json:"addressLine3"`
	PostalCode   string  `json:"postalCode"`
	City         string  `json:"city"`
	Country      Country `json:"country"`
}

// AddressUpdate is the write form of Address
type AddressUpdate struct {
	AddressLine1 *DtoValue[string] `json:"addressLine1,omitempty"`
	AddressLine2 *DtoValue[string] `json:"addressLine2,omitempty"`
	PostalCode   *DtoValue[string] `json:"postalCode,omitempty"`
	City         *DtoValue[string] `json:"city,omitempty"`
	CountryID    *DtoValue[string] `json:"countryId,omitempty"`
}

// Contact represents the main contact of a customer or supplier
type Contact struct {
	ContactID int    `json:"contactId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone1    string `json:"phone1"`
}

// Reference is a number/name pair pointing at another resource
type Reference struct {
	Number string `json:"number"`
	Name   string `json:"name"`
}

// Customer represents a customer (debtor) in the ERP
type Customer struct {
	InternalID           int     `json:"internalId"`
	Number               string  `json:"number"`
	Name                 string  `json:"name"`
	Status               string  `json:"status"`
	MainAddress          Address `json:"mainAddress"`
	MainContact          Contact `json:"mainContact"`
	CorporateID          string  `json:"corporateId"`
	VatRegistrationID    string  `json:"vatRegistrationId"`
	CurrencyID           string  `json:"currencyId"`
	CreditLimit          float64 `json:"creditLimit"`
	CreatedDateTime      APITime `json:"createdDateTime"`
	LastModifiedDateTime APITime `json:"lastModifiedDateTime"`
}

// CustomerUpdate is the payload for creating or updating a customer.
// Only non-nil fields are sent.
type CustomerUpdate struct {
	Number            *DtoValue[string]        `json:"number,omitempty"`
	Name              *DtoValue[string]        `json:"name,omitempty"`
	Status            *DtoValue[string]        `json:"status,omitempty"`
	CorporateID       *DtoValue[string]        `json:"corporateId,omitempty"`
	VatRegistrationID *DtoValue[string]        `json:"vatRegistrationId,omitempty"`
	CurrencyID        *DtoValue[string]        `json:"currencyId,omitempty"`
	CreditLimit       *DtoValue[float64]       `json:"creditLimit,omitempty"`
	MainAddress       *DtoValue[AddressUpdate] `json:"mainAddress,omitempty"`
}

// Supplier represents a supplier (creditor) in the ERP
type Supplier struct {
	InternalID           int     `json:"internalId"`
	Number               string  `json:"number"`
	Name                 string  `json:"name"`
	Status               string  `json:"status"`
	MainAddress          Address `json:"mainAddress"`
	MainContact          Contact `json:"mainContact"`
	CorporateID          string  `json:"corporateId"`
	VatRegistrationID    string  `json:"vatRegistrationId"`
	CurrencyID           string  `json:"currencyId"`
	CreatedDateTime      APITime `json:"createdDateTime"`
	LastModifiedDateTime APITime `json:"lastModifiedDateTime"`
}

// CustomerInvoiceLine is one line of a customer invoice
type CustomerInvoiceLine struct {
	LineNumber          int     `json:"lineNumber"`
	InventoryNumber     string  `json:"inventoryNumber"`
	Description         string  `json:"description"`
	Quantity            float64 `json:"quantity"`
	UnitPriceInCurrency float64 `json:"unitPriceInCurrency"`
	AmountInCurrency    float64 `json:"amountInCurrency"`
}

// CustomerInvoice represents an accounts receivable invoice
type CustomerInvoice struct {
	ReferenceNumber      string                `json:"referenceNumber"`
	Type                 string                `json:"type"`
	Status               string                `json:"status"`
	Customer             Reference             `json:"customer"`
	DocumentDate         APITime               `json:"documentDate"`
	DueDate              APITime               `json:"dueDate"`
	CurrencyID           string                `json:"currencyId"`
	Amount               float64               `json:"amount"`
	Balance              float64               `json:"balance"`
	InvoiceLines         []CustomerInvoiceLine `json:"invoiceLines"`
	LastModifiedDateTime APITime               `json:"lastModifiedDateTime"`
}

// CustomerInvoiceLineUpdate is one line of a CustomerInvoiceUpdate.
// Operation is "Insert", "Update" or "Delete".
type CustomerInvoiceLineUpdate struct {
	Operation           *DtoValue[string]  `json:"operation,omitempty"`
	LineNumber          *DtoValue[int]     `json:"lineNumber,omitempty"`
	InventoryNumber     *DtoValue[string]  `json:"inventoryNumber,omitempty"`
	Description         *DtoValue[string]  `json:"description,omitempty"`
	Quantity            *DtoValue[float64] `json:"quantity,omitempty"`
	UnitPriceInCurrency *DtoValue[float64] `json:"unitPriceInCurrency,omitempty"`
}

// CustomerInvoiceUpdate is the payload for creating or updating a customer invoice
type CustomerInvoiceUpdate struct {
	ReferenceNumber *DtoValue[string]           `json:"referenceNumber,omitempty"`
	CustomerNumber  *DtoValue[string]           `json:"customerNumber,omitempty"`
	DocumentDate    *DtoValue[APITime]          `json:"documentDate,omitempty"`
	DueDate         *DtoValue[APITime]          `json:"dueDate,omitempty"`
	CurrencyID      *DtoValue[string]           `json:"currencyId,omitempty"`
	InvoiceLines    []CustomerInvoiceLineUpdate `json:"invoiceLines,omitempty"`
}

// InventoryItem represents a stock or non-stock item
type InventoryItem struct {
	InventoryID          int     `json:"inventoryId"`
	InventoryNumber      string  `json:"inventoryNumber"`
	Status               string  `json:"status"`
	Type                 string  `json:"type"`
	Description          string  `json:"description"`
	DefaultPrice         float64 `json:"defaultPrice"`
	BaseUnit             string  `json:"baseUnit"`
	LastModifiedDateTime APITime `json:"lastModifiedDateTime"`
}

// Account represents a general ledger account
type Account struct {
	AccountID            int     `json:"accountId"`
	AccountCD            string  `json:"accountCD"`
	Description          string  `json:"description"`
	Type                 string  `json:"type"`
	Active               bool    `json:"active"`
	LastModifiedDateTime APITime `json:"lastModifiedDateTime"`
}
