package services

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/martinberglund/Visma.Net/mirror/schema/postgres"
	"github.com/martinberglund/Visma.Net/pkg/vismanet"
)

// Resource describes an ERP list endpoint the mirror knows how to copy
type Resource struct {
	// Name is the name used on the command line and in erp_records.resource
	Name string
	// Path is the endpoint below the controller base
	Path string
	// KeyField is the JSON field identifying a record
	KeyField string
	// ModifiedField is the JSON field holding the last change timestamp
	ModifiedField string
}

var resources = []Resource{
	{Name: "customer", Path: vismanet.CustomerPath, KeyField: "number", ModifiedField: "lastModifiedDateTime"},
	{Name: "supplier", Path: vismanet.SupplierPath, KeyField: "number", ModifiedField: "lastModifiedDateTime"},
	{Name: "customerinvoice", Path: vismanet.CustomerInvoicePath, KeyField: "referenceNumber", ModifiedField: "lastModifiedDateTime"},
	{Name: "inventory", Path: vismanet.InventoryPath, KeyField: "inventoryNumber", ModifiedField: "lastModifiedDateTime"},
	{Name: "account", Path: vismanet.AccountPath, KeyField: "accountCD", ModifiedField: "lastModifiedDateTime"},
}

// ResourceNames lists the resources the mirror supports
func ResourceNames() []string {
	names := make([]string, len(resources))
	for i, r := range resources {
		names[i] = r.Name
	}
	return names
}

// LookupResource returns the resource registered under name
func LookupResource(name string) (Resource, error) {
	for _, r := range resources {
		if strings.EqualFold(r.Name, name) {
			return r, nil
		}
	}
	return Resource{}, fmt.Errorf("unknown resource %q (supported: %s)", name, strings.Join(ResourceNames(), ", "))
}

// lookupResources resolves names, or every resource when names is empty.
// Duplicates are dropped.
func lookupResources(names []string) ([]Resource, error) {
	if len(names) == 0 {
		return slices.Clone(resources), nil
	}

	var out []Resource
	for _, name := range names {
		r, err := LookupResource(name)
		if err != nil {
			return nil, err
		}
		if !slices.ContainsFunc(out, func(o Resource) bool { return o.Name == r.Name }) {
			out = append(out, r)
		}
	}
	return out, nil
}

// record extracts the key and modification time of one API document
func (r Resource) record(raw json.RawMessage) (postgres.Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return postgres.Record{}, fmt.Errorf("%s: record is not an object: %w", r.Name, err)
	}

	id, err := keyString(fields[r.KeyField])
	if err != nil {
		return postgres.Record{}, fmt.Errorf("%s: invalid %s: %w", r.Name, r.KeyField, err)
	}
	if id == "" {
		return postgres.Record{}, fmt.Errorf("%s: record has no %s", r.Name, r.KeyField)
	}

	rec := postgres.Record{Resource: r.Name, ID: id, Payload: raw}
	if modified, ok := fields[r.ModifiedField]; ok {
		var t vismanet.APITime
		if err := json.Unmarshal(modified, &t); err != nil {
			return postgres.Record{}, fmt.Errorf("%s %s: invalid %s: %w", r.Name, id, r.ModifiedField, err)
		}
		rec.LastModified = t.Time
	}
	return rec, nil
}

func keyString(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(val), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unexpected type %T", v)
	}
}
