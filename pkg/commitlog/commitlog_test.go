package commitlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/gokitt-search/internal/ioutil"
	"github.com/kittclouds/gokitt-search/pkg/value"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	dir, err := ioutil.Open(t.TempDir())
	require.NoError(t, err)
	log, err := Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })
	return log
}

func TestAppendAssignsMonotonicIDs(t *testing.T) {
	log := openTestLog(t)

	c1, err := log.Append(Op{Add: &AddOp{ID: "1", Data: value.Text("a")}}, 100)
	require.NoError(t, err)
	c2, err := log.Append(Op{Delete: &DeleteOp{ID: "1"}}, 200)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), c1.ID)
	assert.Equal(t, uint64(2), c2.ID)
	assert.Equal(t, uint64(3), log.NextCommitID())
}

func TestReplayInvokesCallbackInOrder(t *testing.T) {
	log := openTestLog(t)

	_, err := log.Append(Op{Add: &AddOp{ID: "1", Data: value.Text("a")}}, 1)
	require.NoError(t, err)
	_, err = log.Append(Op{Add: &AddOp{ID: "2", Data: value.Text("b")}}, 2)
	require.NoError(t, err)

	var seen []string
	err = log.Replay(func(c Commit) error {
		seen = append(seen, c.Op.Add.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, seen)
	assert.Equal(t, uint64(3), log.NextCommitID())
}

func TestReplayTailSkipsUpToCommitID(t *testing.T) {
	log := openTestLog(t)

	for i := 0; i < 3; i++ {
		_, err := log.Append(Op{Add: &AddOp{ID: "x", Data: value.Text("a")}}, uint64(i))
		require.NoError(t, err)
	}

	var n int
	err := log.ReplayTail(1, func(c Commit) error {
		n++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRollbackToStopsAtCommitID(t *testing.T) {
	dir, err := ioutil.Open(t.TempDir())
	require.NoError(t, err)
	log, err := Open(dir)
	require.NoError(t, err)
	defer log.Close()

	for i := 1; i <= 4; i++ {
		_, err := log.Append(Op{Add: &AddOp{ID: "x", Data: value.Number(float64(i))}}, uint64(i))
		require.NoError(t, err)
	}

	var applied []uint64
	err = RollbackTo(dir, 2, func(c Commit) error {
		applied = append(applied, c.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, applied)
}
