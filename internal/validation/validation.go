// Package validation tracks per-field validity for entity edit forms.
//
// Rules live in a Table keyed by field name. A State holds one FieldState
// per ruled field and the aggregate FormValid flag, which is always derived
// from the field states and never assigned on its own.
package validation

import (
	"sort"
)

// FieldState is the validation status of one ruled field.
type FieldState struct {
	Valid   bool
	Touched bool   // Set on the first validation attempt, never cleared
	Message string // Static message shown while the field is touched and invalid
}

// ShowError reports whether the field's message should be displayed.
func (f FieldState) ShowError() bool {
	return f.Touched && !f.Valid
}

// State maps field names to their FieldState. Fields without a rule are not
// present and therefore never block FormValid.
type State struct {
	Fields    map[string]FieldState
	FormValid bool
}

// Field returns the state of a ruled field.
func (s State) Field(name string) (FieldState, bool) {
	f, ok := s.Fields[name]
	return f, ok
}

// VisibleErrors returns the messages of touched, invalid fields keyed by field name.
func (s State) VisibleErrors() map[string]string {
	errs := make(map[string]string)
	for name, f := range s.Fields {
		if f.ShowError() {
			errs[name] = f.Message
		}
	}
	return errs
}

// VisibleMessages returns the visible error messages ordered by field name.
func (s State) VisibleMessages() []string {
	errs := s.VisibleErrors()
	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}
	sort.Strings(names)

	msgs := make([]string, 0, len(names))
	for _, name := range names {
		msgs = append(msgs, errs[name])
	}
	return msgs
}

func (s State) clone() State {
	fields := make(map[string]FieldState, len(s.Fields))
	for k, v := range s.Fields {
		fields[k] = v
	}
	return State{Fields: fields, FormValid: s.FormValid}
}

// recompute derives FormValid as the AND of every field's Valid flag.
func (s *State) recompute() {
	s.FormValid = true
	for _, f := range s.Fields {
		if !f.Valid {
			s.FormValid = false
			return
		}
	}
}
