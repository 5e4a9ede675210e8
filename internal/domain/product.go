// Package domain contains core business types and interfaces.
//
// This file defines the catalog Product, which doubles as the draft mutated
// by the edit form, and the tenant Company records it belongs to.
package domain

import (
	"github.com/google/uuid"
)

// =============================================================================
// Field Names
// =============================================================================

// Product field names as they appear in forms, rule tables and the wire format.
const (
	FieldSKU       = "sku"
	FieldSKULink   = "skulink"
	FieldTitle     = "title"
	FieldCondition = "condition"
	FieldInStock   = "instock"
	FieldUnitCost  = "unitcost"
	FieldCompany   = "company"
)

// ProductFields lists the editable product fields in display order.
var ProductFields = []string{
	FieldSKU,
	FieldSKULink,
	FieldTitle,
	FieldCondition,
	FieldInStock,
	FieldUnitCost,
	FieldCompany,
}

// =============================================================================
// Product Domain Type
// =============================================================================

// Product is a catalog entry owned by a tenant company.
//
// Every editable attribute is kept as the string the form submitted; the
// catalog API is responsible for parsing stock and cost values.
type Product struct {
	ID          uuid.UUID `json:"id"`
	SKU         string    `json:"sku"`
	SKULink     string    `json:"skulink"`
	Title       string    `json:"title"`
	Condition   string    `json:"condition"`
	InStock     string    `json:"instock"`
	UnitCost    string    `json:"unitcost"`
	Company     string    `json:"company"`        // Owning company ID, empty when unassigned
	CompanyName string    `json:"name,omitempty"` // Tenant name, populated by list queries

	// Version counts in-place edits made during an edit session. It is not
	// sent to the catalog API.
	Version int `json:"-"`
}

// IsNew returns true if the product has not been persisted yet.
func (p *Product) IsNew() bool {
	return p.ID == uuid.Nil
}

// Get returns the value of the named field and whether the field exists.
func (p *Product) Get(field string) (string, bool) {
	ptr := p.fieldPtr(field)
	if ptr == nil {
		return "", false
	}
	return *ptr, true
}

// Set mutates the named field in place and bumps Version.
// Returns false, leaving the product untouched, if the field is unknown.
func (p *Product) Set(field, value string) bool {
	ptr := p.fieldPtr(field)
	if ptr == nil {
		return false
	}
	*ptr = value
	p.Version++
	return true
}

// Fields returns every editable field with its current value.
func (p *Product) Fields() map[string]string {
	fields := make(map[string]string, len(ProductFields))
	for _, name := range ProductFields {
		fields[name] = *p.fieldPtr(name)
	}
	return fields
}

// CopyFieldsFrom overwrites the editable fields and ID with those of src.
// The draft keeps its identity as an object, so callers holding it observe
// the loaded values.
func (p *Product) CopyFieldsFrom(src *Product) {
	p.ID = src.ID
	p.CompanyName = src.CompanyName
	for _, name := range ProductFields {
		*p.fieldPtr(name) = *src.fieldPtr(name)
	}
	p.Version++
}

func (p *Product) fieldPtr(field string) *string {
	switch field {
	case FieldSKU:
		return &p.SKU
	case FieldSKULink:
		return &p.SKULink
	case FieldTitle:
		return &p.Title
	case FieldCondition:
		return &p.Condition
	case FieldInStock:
		return &p.InStock
	case FieldUnitCost:
		return &p.UnitCost
	case FieldCompany:
		return &p.Company
	}
	return nil
}

// =============================================================================
// Company Domain Type
// =============================================================================

// Company is a tenant of the catalog. Only cross-tenant actors see the list.
type Company struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Subdomain string    `json:"subdomain"`
}

// =============================================================================
// Remote Contracts
// =============================================================================

// PaginatedResponse is one page of a server-paginated list.
type PaginatedResponse[T any] struct {
	Docs  []T `json:"docs"`
	Pages int `json:"pages"`
}

// SubmitOutcome is what a submit handler reports back to the edit form.
type SubmitOutcome struct {
	Success bool
	Errors  []string
}
