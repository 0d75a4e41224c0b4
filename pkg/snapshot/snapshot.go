// Package snapshot is the rotating, crash-consistent durable snapshot of
// every derived index: write to a temp file, atomically rename it into a
// rotation slot, then commit a meta.json pointer to that slot — N slots in
// rotation rather than a single overwritten file.
package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/kittclouds/gokitt-search/internal/docstore"
	"github.com/kittclouds/gokitt-search/internal/ioutil"
	"github.com/kittclouds/gokitt-search/pkg/forwardindex"
	"github.com/kittclouds/gokitt-search/pkg/invindex"
	"github.com/kittclouds/gokitt-search/pkg/valuetree"
)

// File is the on-disk snapshot payload: pretty-printed JSON of every
// derived index plus the commit id it is consistent with. Schema
// stability across versions is not guaranteed — snapshots are derived
// artifacts, rebuildable from the log.
type File struct {
	AllowNgram   bool                                   `json:"allow_ngram"`
	NormalIndex  invindex.Snapshot                      `json:"normal_index"`
	NGramTrie    map[string][]string                    `json:"n_gram_trie"`
	ValueTree    map[string][]valuetree.BucketSnapshot   `json:"value_tree"`
	ForwardIndex map[string]forwardindex.ForwardDoc      `json:"forward_index"`
	LastCommitID uint64                                 `json:"last_commit_id"`
}

// FromIndexState builds a File from a docstore.IndexState and the commit id
// it is consistent with.
func FromIndexState(st docstore.IndexState, lastCommitID uint64) File {
	return File{
		AllowNgram:   st.AllowNgram,
		NormalIndex:  st.Inverted,
		NGramTrie:    st.Ngrams,
		ValueTree:    st.Values,
		ForwardIndex: st.Forward,
		LastCommitID: lastCommitID,
	}
}

// ToIndexState recovers the docstore.IndexState a File carries.
func (f File) ToIndexState() docstore.IndexState {
	return docstore.IndexState{
		AllowNgram: f.AllowNgram,
		Inverted:   f.NormalIndex,
		Ngrams:     f.NGramTrie,
		Values:     f.ValueTree,
		Forward:    f.ForwardIndex,
	}
}

type meta struct {
	Curr int `json:"curr"`
}

const metaFile = "meta.json"

func slotFile(i int) string { return fmt.Sprintf("snapshot_%d.json", i) }

// Manager is the rotating, N-slot snapshot manager. Slots are numbered
// 1..N; meta.json names the most recently committed slot.
type Manager struct {
	dir *ioutil.Dir
	n   int

	curr int
}

// Open constructs a Manager rooted at dir with n rotation slots, reading
// whatever meta.json already exists there (absence is not an error — it
// simply means no snapshot has ever been saved).
func Open(dir *ioutil.Dir, n int) (*Manager, error) {
	m := &Manager{dir: dir, n: n}
	if !dir.Exists(metaFile) {
		return m, nil
	}
	data, err := dir.ReadFile(metaFile)
	if err != nil {
		return m, nil
	}
	var meta meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return m, nil
	}
	m.curr = meta.Curr
	return m, nil
}

// Save writes f to the next rotation slot and commits meta.json to point at
// it: tmp write, atomic rename, then meta write, then in-memory commit. A
// crash between rename and meta write leaves the previous meta.json — and
// therefore the previous slot — authoritative; the partially-written new
// slot is silently overwritten on the next Save.
func (m *Manager) Save(f File) error {
	next := (m.curr % m.n) + 1

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	if err := m.dir.WriteFileAtomic(slotFile(next), data, 0o644); err != nil {
		return err
	}

	metaData, err := json.Marshal(meta{Curr: next})
	if err != nil {
		return err
	}
	if err := m.dir.WriteFileAtomic(metaFile, metaData, 0o644); err != nil {
		return err
	}

	m.curr = next
	return nil
}

// Load reads the most recently committed slot. It returns (File{}, false)
// if no snapshot has ever been saved, or if meta.json or the slot it names
// is missing or unparseable — load never fails, it just reports absence.
func (m *Manager) Load() (File, bool) {
	if !m.dir.Exists(metaFile) {
		return File{}, false
	}
	metaData, err := m.dir.ReadFile(metaFile)
	if err != nil {
		return File{}, false
	}
	var meta meta
	if err := json.Unmarshal(metaData, &meta); err != nil {
		return File{}, false
	}

	if !m.dir.Exists(slotFile(meta.Curr)) {
		return File{}, false
	}
	data, err := m.dir.ReadFile(slotFile(meta.Curr))
	if err != nil {
		return File{}, false
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return File{}, false
	}

	m.curr = meta.Curr
	return f, true
}
