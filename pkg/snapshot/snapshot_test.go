package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/gokitt-search/internal/docstore"
	"github.com/kittclouds/gokitt-search/internal/ioutil"
	"github.com/kittclouds/gokitt-search/pkg/invindex"
)

func TestLoadWithoutPriorSaveReportsAbsence(t *testing.T) {
	dir, err := ioutil.Open(t.TempDir())
	require.NoError(t, err)

	m, err := Open(dir, 2)
	require.NoError(t, err)

	_, ok := m.Load()
	assert.False(t, ok)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir, err := ioutil.Open(t.TempDir())
	require.NoError(t, err)

	m, err := Open(dir, 2)
	require.NoError(t, err)

	st := docstore.IndexState{
		AllowNgram: true,
		Inverted:   invindex.New().Export(),
		Ngrams:     map[string][]string{"mo": {"mon"}},
		Values:     nil,
		Forward:    nil,
	}
	f := FromIndexState(st, 7)
	require.NoError(t, m.Save(f))

	got, ok := m.Load()
	require.True(t, ok)
	assert.Equal(t, uint64(7), got.LastCommitID)
	assert.Equal(t, []string{"mon"}, got.NGramTrie["mo"])
}

func TestSaveRotatesAcrossSlots(t *testing.T) {
	dir, err := ioutil.Open(t.TempDir())
	require.NoError(t, err)

	m, err := Open(dir, 2)
	require.NoError(t, err)

	for i := uint64(1); i <= 3; i++ {
		st := docstore.IndexState{Inverted: invindex.New().Export()}
		require.NoError(t, m.Save(FromIndexState(st, i)))
	}

	got, ok := m.Load()
	require.True(t, ok)
	assert.Equal(t, uint64(3), got.LastCommitID)

	// A crash between rename and meta write leaves the prior slot
	// authoritative; here we just assert that both rotation slots were
	// written.
	assert.True(t, dir.Exists("snapshot_1.json"))
	assert.True(t, dir.Exists("snapshot_2.json"))
}
