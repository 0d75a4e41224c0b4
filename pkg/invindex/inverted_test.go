package invindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddTermAndSearch(t *testing.T) {
	idx := New()
	idx.AddTerm("pokemon", "1", 0, "title")
	idx.AddTerm("digimon", "2", 0, "title")

	assert.ElementsMatch(t, []string{"1"}, idx.SearchTerm([]string{"pokemon"}))
	assert.ElementsMatch(t, []string{"1", "2"}, idx.SearchTerm([]string{"pokemon", "digimon"}))
}

func TestSearchTermInField(t *testing.T) {
	idx := New()
	idx.AddTerm("rust", "1", 0, "attributes.language")
	idx.AddTerm("rust", "2", 0, "body")

	assert.Equal(t, []string{"1"}, idx.SearchTermInField("rust", "attributes.language"))
}

func TestSearchTermInFieldPrefix(t *testing.T) {
	idx := New()
	idx.AddTerm("pokemon", "1", 0, "attributes.KEY.Mew")

	got := idx.SearchTermInFieldPrefix("pokemon", "KEY")
	assert.Equal(t, []string{"1"}, got)
}

func TestRemoveDocumentIsSoftDelete(t *testing.T) {
	idx := New()
	idx.AddTerm("pokemon", "1", 0, "title")
	idx.RemoveDocument("1")

	assert.Empty(t, idx.SearchTerm([]string{"pokemon"}))

	// The id stays interned; the delete is a tombstone, not a hard removal.
	_, ok := idx.ids.lookup("1")
	require.True(t, ok)

	idx.Compact()
	assert.True(t, idx.deleted.IsEmpty())
}

func TestBM25PositivityAndExportImport(t *testing.T) {
	idx := New()
	idx.AddTerm("mon", "1", 0, "title")
	idx.AddTerm("mon", "1", 1, "title")
	idx.AddTerm("mon", "2", 0, "title")

	scores := idx.BM25Search([]string{"mon"}, 1.2, 0.75)
	require.Len(t, scores, 2)
	for _, s := range scores {
		assert.Greater(t, s, 0.0)
	}

	snap := idx.Export()
	restored := Import(snap)
	restoredScores := restored.BM25Search([]string{"mon"}, 1.2, 0.75)
	assert.InDelta(t, scores["1"], restoredScores["1"], 1e-9)
	assert.InDelta(t, scores["2"], restoredScores["2"], 1e-9)
}
