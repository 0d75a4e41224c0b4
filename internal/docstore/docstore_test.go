package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/gokitt-search/pkg/tokenizer"
	"github.com/kittclouds/gokitt-search/pkg/value"
)

func newTestStore(t *testing.T, cfg tokenizer.Config) *Store {
	t.Helper()
	tok, err := tokenizer.New(cfg)
	require.NoError(t, err)
	return New(tok)
}

func TestValidateRejectsEmptyFieldName(t *testing.T) {
	err := Validate(value.Object(map[string]value.Value{
		"": value.Text("oops"),
	}))
	require.Error(t, err)
}

func TestAddDocumentAssignsSequentialIDs(t *testing.T) {
	s := newTestStore(t, tokenizer.Config{})

	id1 := s.AddDocument(value.Object(map[string]value.Value{"title": value.Text("a")}), 4)
	id2 := s.AddDocument(value.Object(map[string]value.Value{"title": value.Text("b")}), 4)

	assert.Equal(t, "1", id1)
	assert.Equal(t, "2", id2)
}

func TestNestedIndexing(t *testing.T) {
	// Deeply nested objects should index leaves by their full dotted path.
	s := newTestStore(t, tokenizer.Config{})

	id := s.AddDocument(value.Object(map[string]value.Value{
		"attributes": value.Object(map[string]value.Value{
			"language": value.Text("Rust"),
			"year":     value.Number(2025),
			"KEY": value.Object(map[string]value.Value{
				"Mew": value.Text("pokemon"),
			}),
		}),
	}), 4)

	got := s.Inverted.SearchTermInField("pokemon", "attributes.KEY.Mew")
	assert.Equal(t, []string{id}, got)
}

func TestDeleteDocumentReversesEveryDerivedIndex(t *testing.T) {
	s := newTestStore(t, tokenizer.Config{MinNgram: 2, MaxNgram: 3})

	id := s.AddDocument(value.Object(map[string]value.Value{
		"title": value.Text("pokemon"),
		"year":  value.Number(2025),
		"born":  value.Date("2020-01-01"),
	}), 4)

	s.DeleteDocument(id)

	assert.Empty(t, s.Inverted.SearchTerm([]string{"pokemon"}))
	assert.Empty(t, s.Ngrams.GetTerms("pok"))
	assert.Empty(t, s.Values.Range("year", 0, 1<<40))
	_, ok := s.Forward.Get(id)
	assert.False(t, ok)
	_, ok = s.Get(id)
	assert.False(t, ok)
}

func TestDeleteUnknownIDIsNoOp(t *testing.T) {
	s := newTestStore(t, tokenizer.Config{})
	assert.NotPanics(t, func() { s.DeleteDocument("missing") })
}

func TestNonReusingMonotonicIDsAfterDelete(t *testing.T) {
	s := newTestStore(t, tokenizer.Config{})

	doc := func(title string) value.Value {
		return value.Object(map[string]value.Value{"title": value.Text(title)})
	}

	_ = s.AddDocument(doc("a"), 0)
	id2 := s.AddDocument(doc("b"), 0)
	s.DeleteDocument(id2)
	id3 := s.AddDocument(doc("c"), 0)

	assert.Equal(t, "3", id3, "id 2 must never be reused after delete")
}
