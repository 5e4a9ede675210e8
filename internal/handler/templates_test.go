package handler

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTemplateFuncs(t *testing.T) {
	funcs := TemplateFuncs()

	title := funcs["title"].(func(interface{}) string)
	assert.Equal(t, "Unit Cost", title("unit cost"))

	cx := funcs["cx"].(func(...string) string)
	merged := cx("rounded border px-2 border-gray-300", "border-red-600")
	assert.Contains(t, merged, "border-red-600")
	assert.NotContains(t, merged, "border-gray-300")
	assert.Contains(t, merged, "rounded")

	ternary := funcs["ternary"].(func(bool, interface{}, interface{}) interface{})
	assert.Equal(t, "on", ternary(true, "on", "off"))
	assert.Equal(t, "off", ternary(false, "on", "off"))

	id := uuid.New()
	assert.Equal(t, id.String(), funcs["uuidString"].(func(uuid.UUID) string)(id))

	arrow := funcs["sortArrow"].(func(string) string)
	assert.Equal(t, "▲", arrow("asc"))
	assert.Equal(t, "▼", arrow("desc"))
	assert.Empty(t, arrow(""))
}
