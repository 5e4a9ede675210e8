package validation

// Predicate decides whether a field value is valid.
type Predicate func(value any) bool

// Rule binds a predicate and its message to one field.
type Rule struct {
	Field   string
	Message string
	Check   Predicate
}

// Table is the field name to rule mapping consulted by Validate.
// Adding a required field means adding one rule.
type Table struct {
	rules map[string]Rule
	order []string
}

// NewTable builds a table from rules. A later rule for the same field
// replaces the earlier one but keeps its position.
func NewTable(rules ...Rule) *Table {
	t := &Table{rules: make(map[string]Rule, len(rules))}
	for _, r := range rules {
		t.Add(r)
	}
	return t
}

// Add inserts or replaces the rule for r.Field.
func (t *Table) Add(r Rule) {
	if _, exists := t.rules[r.Field]; !exists {
		t.order = append(t.order, r.Field)
	}
	t.rules[r.Field] = r
}

// Rule returns the rule for field, if any.
func (t *Table) Rule(field string) (Rule, bool) {
	r, ok := t.rules[field]
	return r, ok
}

// Fields returns the ruled field names in insertion order.
func (t *Table) Fields() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// NewState returns the initial state: every ruled field untouched and
// invalid until a validation pass proves otherwise.
func (t *Table) NewState() State {
	s := State{Fields: make(map[string]FieldState, len(t.rules))}
	for name, r := range t.rules {
		s.Fields[name] = FieldState{Message: r.Message}
	}
	s.recompute()
	return s
}

// Validate runs the rule for field against value and returns the updated
// state. The input state is not modified.
//
// Fields that are not ruled are a no-op: forms render fields that may have no
// rule for the current role, and validating them must not fail.
func (t *Table) Validate(s State, field string, value any) State {
	fs, ok := s.Fields[field]
	if !ok {
		return s
	}
	r, ok := t.rules[field]
	if !ok {
		return s
	}

	next := s.clone()
	fs.Touched = true
	fs.Valid = r.Check(value)
	fs.Message = r.Message
	next.Fields[field] = fs
	next.recompute()
	return next
}

// =============================================================================
// Built-in Predicates
// =============================================================================

// NonEmpty accepts a string with at least one character.
func NonEmpty(value any) bool {
	s, ok := value.(string)
	return ok && len(s) > 0
}

// Required builds a NonEmpty rule.
func Required(field, message string) Rule {
	return Rule{Field: field, Message: message, Check: NonEmpty}
}
