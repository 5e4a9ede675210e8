package handler

import (
	"fmt"
	"html/template"

	twmerge "github.com/Oudwins/tailwind-merge-go"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TemplateFuncs returns the functions available to every catalog template.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"title": func(v interface{}) string {
			// A Caser is stateful, so each call gets its own.
			return cases.Title(language.English).String(fmt.Sprint(v))
		},

		// cx merges Tailwind class lists. Later classes win conflicts, so a
		// field's error classes override its base classes.
		"cx": func(classes ...string) string {
			return twmerge.Merge(classes...)
		},

		"ternary": func(condition bool, trueVal, falseVal interface{}) interface{} {
			if condition {
				return trueVal
			}
			return falseVal
		},

		"uuidString": func(u uuid.UUID) string {
			return u.String()
		},

		// sortArrow renders the header indicator for "asc", "desc" or "".
		"sortArrow": func(direction string) string {
			switch direction {
			case "asc":
				return "▲"
			case "desc":
				return "▼"
			default:
				return ""
			}
		},
	}
}
