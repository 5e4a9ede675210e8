package validation

import (
	"fmt"

	"github.com/DukeRupert/catalogadmin/internal/domain"
)

// Built-in messages for the catalog entry form.
const (
	MsgSKURequired     = "SKU is required"
	MsgCompanyRequired = "Company is required"
)

// CatalogRules returns the rule table for editing a product as role.
//
// SKU is always required. Company is only rendered for cross-tenant actors,
// so it is only required for them. Extra specs are appended in order and
// replace built-in rules for the same field; specs restricted to other
// roles are skipped.
func CatalogRules(role domain.Role, extra ...RuleSpec) (*Table, error) {
	t := NewTable(Required(domain.FieldSKU, MsgSKURequired))
	if role.Elevated() {
		t.Add(Required(domain.FieldCompany, MsgCompanyRequired))
	}

	for _, rs := range extra {
		if !appliesTo(rs, role) {
			continue
		}
		r, err := CompileRule(rs)
		if err != nil {
			return nil, fmt.Errorf("catalog rules: %w", err)
		}
		t.Add(r)
	}
	return t, nil
}

func appliesTo(rs RuleSpec, role domain.Role) bool {
	if len(rs.Roles) == 0 {
		return true
	}
	for _, r := range rs.Roles {
		if parsed, ok := domain.ParseRole(r); ok && parsed == role {
			return true
		}
	}
	return false
}
