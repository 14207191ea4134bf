package xltpl

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeJSON(t *testing.T, raw string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestResolveNested(t *testing.T) {
	doc := decodeJSON(t, `{
		"owner": {"name": "Acme Holdings", "contact": {"email": "ops@acme.test"}},
		"structured_data": [{"propertyName": "Urban 148"}]
	}`)

	assert.Equal(t, "Acme Holdings", Resolve(doc, "owner.name"))
	assert.Equal(t, "ops@acme.test", Resolve(doc, "owner.contact.email"))
	assert.Equal(t, "Urban 148", Resolve(doc, "structured_data[0].propertyName"))
}

func TestResolveIndexed(t *testing.T) {
	doc := decodeJSON(t, `{"rows": [{"bed": 2}, {"bed": 3}]}`)

	assert.Equal(t, float64(3), Resolve(doc, "rows[1].bed"))
	assert.Nil(t, Resolve(doc, "rows[5].bed"))
	assert.Nil(t, Resolve(doc, "rows[0].bath"))
}

func TestResolveLiteralDottedKey(t *testing.T) {
	// Extractor output sometimes uses keys that contain dots; a literal
	// top-level match wins over segment navigation.
	doc := decodeJSON(t, `{"unitMix.units": 148, "unitMix": {"units": 9}}`)

	assert.Equal(t, float64(148), Resolve(doc, "unitMix.units"))
	assert.Equal(t, float64(9), Resolve(doc, "unitMix").(map[string]any)["units"])
}

func TestResolveIsTotal(t *testing.T) {
	doc := decodeJSON(t, `{"a": {"b": 1}, "list": [1, 2]}`)

	assert.Nil(t, Resolve(nil, "a.b"))
	assert.Nil(t, Resolve(doc, ""))
	assert.Nil(t, Resolve(doc, "missing"))
	assert.Nil(t, Resolve(doc, "a.b.c"))       // descend through a scalar
	assert.Nil(t, Resolve(doc, "list.b"))      // key access on a list
	assert.Nil(t, Resolve(doc, "a[0]"))        // index access on a map value
	assert.Nil(t, Resolve("scalar", "a"))      // non-map root
	assert.Nil(t, Resolve(doc, "..."))         // degenerate path
}

func TestResolveDefaultRoot(t *testing.T) {
	doc := decodeJSON(t, `{"structured_data": [{"owner": {"name": "Acme"}}]}`)

	root := Resolve(doc, DefaultJSONRoot)
	require.NotNil(t, root)
	assert.Equal(t, "Acme", Resolve(root, "owner.name"))
}
