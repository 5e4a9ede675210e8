package validation

import (
	"fmt"
	"io"
	"os"

	"github.com/expr-lang/expr"
	"gopkg.in/yaml.v3"
)

// RuleSpec is a rule declared in configuration instead of code.
// Expr must evaluate to a boolean; it sees the field's value as `value`.
type RuleSpec struct {
	Field   string   `yaml:"field"`
	Expr    string   `yaml:"expr"`
	Message string   `yaml:"message"`
	Roles   []string `yaml:"roles,omitempty"` // Empty means every role
}

type ruleFile struct {
	Rules []RuleSpec `yaml:"rules"`
}

// CompileRule compiles rs into a Rule. Evaluation errors at validation
// time make the value invalid.
func CompileRule(rs RuleSpec) (Rule, error) {
	if rs.Field == "" {
		return Rule{}, fmt.Errorf("rule field is required")
	}
	if rs.Expr == "" {
		return Rule{}, fmt.Errorf("rule %q: expr is required", rs.Field)
	}

	program, err := expr.Compile(rs.Expr, expr.Env(map[string]any{"value": ""}), expr.AsBool())
	if err != nil {
		return Rule{}, fmt.Errorf("rule %q: compile: %w", rs.Field, err)
	}

	check := func(value any) bool {
		out, err := expr.Run(program, map[string]any{"value": asString(value)})
		if err != nil {
			return false
		}
		ok, _ := out.(bool)
		return ok
	}

	return Rule{Field: rs.Field, Message: rs.Message, Check: check}, nil
}

// LoadRuleSpecs decodes a YAML document of the form `rules: [...]`.
func LoadRuleSpecs(r io.Reader) ([]RuleSpec, error) {
	var f ruleFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	return f.Rules, nil
}

// LoadRuleFile reads rule specs from a YAML file on disk.
func LoadRuleFile(path string) ([]RuleSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules file: %w", err)
	}
	defer f.Close()
	return LoadRuleSpecs(f)
}

func asString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
