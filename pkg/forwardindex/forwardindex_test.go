package forwardindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddGetRemove(t *testing.T) {
	idx := New()
	doc := NewForwardDoc()
	doc.TextFields["title"] = "hi"

	idx.Add("1", doc)
	got, ok := idx.Get("1")
	require.True(t, ok)
	assert.Equal(t, "hi", got.TextFields["title"])

	idx.Remove("1")
	_, ok = idx.Get("1")
	assert.False(t, ok)
}

func TestExportImport(t *testing.T) {
	idx := New()
	doc := NewForwardDoc()
	doc.NumericFields["year"] = 2025
	idx.Add("1", doc)

	restored := Import(idx.Export())
	got, ok := restored.Get("1")
	require.True(t, ok)
	assert.Equal(t, 2025.0, got.NumericFields["year"])
}
