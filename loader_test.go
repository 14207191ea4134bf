package xltpl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocumentCleanJSON(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"structured_data": [{"owner": {"name": "Acme"}}]}`))
	require.NoError(t, err)
	assert.Equal(t, "Acme", Resolve(doc, "structured_data[0].owner.name"))
}

func TestParseDocumentRepairsTrailingComma(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"owner": {"name": "Acme",},}`))
	require.NoError(t, err)
	assert.Equal(t, "Acme", Resolve(doc, "owner.name"))
}

func TestParseDocumentRepairsSingleQuotes(t *testing.T) {
	doc, err := ParseDocument([]byte(`{'owner': {'name': 'Acme'}}`))
	require.NoError(t, err)
	assert.Equal(t, "Acme", Resolve(doc, "owner.name"))
}

func TestLoadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extracted.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a": 1}`), 0o644))

	doc, err := LoadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, float64(1), Resolve(doc, "a"))

	_, err = LoadDocument(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
