package ngramtrie

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInsertAndGetTerms(t *testing.T) {
	tr := New()
	tr.Insert("mon", "pokemon")
	tr.Insert("mon", "digimon")

	assert.ElementsMatch(t, []string{"pokemon", "digimon"}, tr.GetTerms("mon"))
}

func TestGetTermsWithPrefix(t *testing.T) {
	tr := New()
	tr.Insert("po", "pokemon")
	tr.Insert("pok", "pokemon")
	tr.Insert("xy", "other")

	got := tr.GetTermsWithPrefix("po")
	assert.ElementsMatch(t, []string{"pokemon"}, got)
}

func TestRemovePrunesEmptyNodes(t *testing.T) {
	tr := New()
	tr.Insert("mon", "pokemon")
	tr.Remove("mon", "pokemon")

	assert.Nil(t, tr.GetTerms("mon"))
	assert.True(t, tr.root.isEmpty())
}

func TestRemoveKeepsSharedPrefixAlive(t *testing.T) {
	tr := New()
	tr.Insert("mon", "pokemon")
	tr.Insert("mon", "digimon")
	tr.Remove("mon", "pokemon")

	assert.Equal(t, []string{"digimon"}, tr.GetTerms("mon"))
}

func TestExportImportRoundTrip(t *testing.T) {
	tr := New()
	tr.Insert("mo", "pokemon")
	tr.Insert("on", "pokemon")

	exported := tr.Export()
	restored := Import(exported)

	assert.ElementsMatch(t, []string{"pokemon"}, restored.GetTerms("mo"))
	assert.ElementsMatch(t, []string{"pokemon"}, restored.GetTerms("on"))
}
