// Package docstore owns every derived index (inverted, n-gram trie, value
// tree, forward) plus the raw document map, and is the only place that
// mutates them: add/delete/normalize/index.
package docstore

import (
	"sort"
	"strconv"
	"sync"

	"github.com/kittclouds/gokitt-search/pkg/errs"
	"github.com/kittclouds/gokitt-search/pkg/forwardindex"
	"github.com/kittclouds/gokitt-search/pkg/invindex"
	"github.com/kittclouds/gokitt-search/pkg/ngramtrie"
	"github.com/kittclouds/gokitt-search/pkg/tokenizer"
	"github.com/kittclouds/gokitt-search/pkg/value"
	"github.com/kittclouds/gokitt-search/pkg/valuetree"
)

// Document is the stored {id, data} pair.
type Document struct {
	ID   string
	Data value.Value
}

// Store owns the tokenizer and every derived index. Safe for concurrent
// read access; writes are expected to come from a single serial caller
// (Engine), so the lock below guards readers against a writer in
// progress rather than arbitrating between concurrent writers.
type Store struct {
	mu sync.RWMutex

	tokenizer  *tokenizer.Tokenizer
	allowNgram bool

	Inverted *invindex.InvertedIndex
	Ngrams   *ngramtrie.Trie // nil when !allowNgram
	Values   *valuetree.Index
	Forward  *forwardindex.Index

	documents map[string]Document
	seq       int // count of documents ever assigned an id, never decremented by delete
}

// New constructs an empty Store. ngramTrie participates iff tok.AllowNgram().
func New(tok *tokenizer.Tokenizer) *Store {
	s := &Store{
		tokenizer:  tok,
		allowNgram: tok.AllowNgram(),
		Inverted:   invindex.New(),
		Values:     valuetree.New(),
		Forward:    forwardindex.New(),
		documents:  make(map[string]Document),
	}
	if s.allowNgram {
		s.Ngrams = ngramtrie.New()
	}
	return s
}

// Size returns the number of live (never-deleted) documents currently held.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}

// SetSeq sets the monotonic "documents ever assigned an id" counter — used
// by Engine at recovery to restore it from a full commit-log scan, since
// the live document count alone would let a deleted id's slot be reused.
func (s *Store) SetSeq(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = n
}

// AllowNgram reports whether this Store's tokenizer (and therefore its
// n-gram trie) is active.
func (s *Store) AllowNgram() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allowNgram
}

// Tokenize exposes the Store's tokenizer to QueryService, which needs to
// tokenize query text the same way documents were tokenized at index time.
func (s *Store) Tokenize(text string, allowNgram bool) ([]string, []tokenizer.WordNgrams) {
	return s.tokenizer.Tokenize(text, allowNgram)
}

// Get returns the stored document by id.
func (s *Store) Get(id string) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.documents[id]
	return d, ok
}

// Documents returns a snapshot copy of the id -> Document map, for
// persistence to the documents file.
func (s *Store) Documents() map[string]Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Document, len(s.documents))
	for k, v := range s.documents {
		out[k] = v
	}
	return out
}

// LoadDocuments replaces the raw document map wholesale, e.g. after reading
// the documents file at startup. It does not touch derived indexes.
func (s *Store) LoadDocuments(docs map[string]Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = docs
}

// nextID implements the non-reusing monotonic id scheme: the decimal string
// form of seq+1, regardless of how many documents have since been deleted.
func (s *Store) nextID() string {
	return strconv.Itoa(s.seq + 1)
}

// Validate rejects a document tree containing any empty Object key,
// anywhere, returning errs.ErrValidationFailed.
func Validate(data value.Value) error {
	if obj, ok := data.AsObject(); ok {
		for k, child := range obj {
			if k == "" {
				return errs.New(errs.KindValidationFailed, "empty field name in document tree")
			}
			if err := Validate(child); err != nil {
				return err
			}
		}
	}
	return nil
}

// textTerm is one text leaf discovered during extraction, in document order.
type textTerm struct {
	text      string
	fieldPath string
}

// PeekNextID reports the id AddDocument would assign if called right now,
// without mutating anything — Engine needs this to log a commit's id before
// applying it to the store.
func (s *Store) PeekNextID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextID()
}

// AddDocument assigns an id, normalizes, stores, extracts, indexes, and
// returns the new id.
func (s *Store) AddDocument(data value.Value, maxDepth int) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID()
	s.seq++
	normalized := data.Normalize(0, maxDepth)
	s.documents[id] = Document{ID: id, Data: normalized}
	s.indexDocument(id, normalized, maxDepth)
	return id
}

// ReindexDocument re-runs extraction and indexing for a document already
// present in the raw document map (loaded, e.g., from the documents file)
// without assigning a new id or re-storing it. Used during recovery to
// rebuild derived indexes for log-tail Add commits whose document was
// already restored from persistence but predates the loaded snapshot. A
// no-op if docID is unknown.
func (s *Store) ReindexDocument(docID string, maxDepth int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[docID]
	if !ok {
		return
	}
	s.indexDocument(docID, doc.Data, maxDepth)
}

// indexDocument runs the depth-first extraction over data and feeds the
// resulting terms and leaf values into every derived index, for docID's
// already-normalized data. Callers hold s.mu.
func (s *Store) indexDocument(docID string, data value.Value, maxDepth int) {
	var terms []textTerm
	forward := forwardindex.NewForwardDoc()
	extractText(data, "", 0, maxDepth, &terms, &forward, docID, s.Values)

	s.Forward.Add(docID, forward)

	for pos, t := range terms {
		words, wordGrams := s.tokenizer.Tokenize(t.text, s.allowNgram)
		for _, w := range words {
			s.Inverted.AddTerm(w, docID, pos, t.fieldPath)
		}
		if s.Ngrams != nil {
			for _, wg := range wordGrams {
				for _, g := range wg.Ngrams {
					s.Ngrams.Insert(g, wg.Word)
				}
			}
		}
	}
}

// extractText performs a depth-first, per-key (lexicographically ordered
// for determinism) traversal of a document's value tree: leaves append
// to terms/forward and (for numeric/date leaves) register directly into the
// value tree; nodes beyond maxDepth are skipped.
func extractText(v value.Value, prefix string, depth, maxDepth int, terms *[]textTerm, fwd *forwardindex.ForwardDoc, docID string, values *valuetree.Index) {
	if depth > maxDepth {
		return
	}

	switch v.Kind() {
	case value.KindText:
		text, _ := v.AsText()
		*terms = append(*terms, textTerm{text: text, fieldPath: prefix})
		fwd.TextFields[prefix] = text
	case value.KindNumber:
		n, _ := v.AsNumber()
		fwd.NumericFields[prefix] = n
		values.Add(prefix, v, docID)
	case value.KindDate:
		d, _ := v.AsDate()
		fwd.DateFields[prefix] = d
		values.Add(prefix, v, docID)
	case value.KindBool:
		// Bool leaves are validation-only; not indexed, not in the forward index.
	case value.KindObject:
		obj, _ := v.AsObject()
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			child := obj[k]
			childPath := k
			if prefix != "" {
				childPath = prefix + "." + k
			}
			extractText(child, childPath, depth+1, maxDepth, terms, fwd, docID, values)
		}
	}
}

// DeleteDocument reverses every derived-index write the document produced,
// using its ForwardIndex entry, then removes it from the document map.
// Deleting an unknown id is a silent no-op: with no ForwardIndex entry,
// every reversal step below ranges over nil maps and does nothing, and
// removing an absent key from the document map is itself a no-op. This
// also makes the method safe to call during recovery replay of a tail
// Delete commit whose document the raw document map (loaded from
// persistence) already lacks, while its ForwardIndex entry still carries
// pre-delete state inherited from an older loaded snapshot.
func (s *Store) DeleteDocument(docID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fwd, _ := s.Forward.Get(docID)

	// Retokenizing post-normalization stored text reproduces exactly the
	// tokens AddDocument indexed, so the inverted index and n-gram trie
	// reversal below is the exact inverse of indexing. A single tombstone
	// call, not a per-word hard removal, is how the inverted index's
	// soft-delete design (see pkg/invindex) satisfies "no longer
	// referenced" for every word at once; Compact() later reclaims storage.
	s.Inverted.RemoveDocument(docID)

	if s.Ngrams != nil {
		for fieldPath, text := range fwd.TextFields {
			_, wordGrams := s.tokenizer.Tokenize(text, true)
			for _, wg := range wordGrams {
				// The trie holds word sets, not per-doc entries: a word another
				// live document still contains keeps its n-grams.
				if len(s.Inverted.SearchTerm([]string{wg.Word})) > 0 {
					continue
				}
				for _, g := range wg.Ngrams {
					s.Ngrams.Remove(g, wg.Word)
				}
			}
			_ = fieldPath
		}
	}

	for fieldPath, n := range fwd.NumericFields {
		s.Values.Remove(fieldPath, value.Number(n), docID)
	}
	for fieldPath, d := range fwd.DateFields {
		s.Values.Remove(fieldPath, value.Date(d), docID)
	}

	s.Forward.Remove(docID)
	delete(s.documents, docID)
}

// AllDocumentIDs returns every live document id, for NotWord's full-set
// operand.
func (s *Store) AllDocumentIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.documents))
	for id := range s.documents {
		out = append(out, id)
	}
	return out
}

// IndexState is the serializable projection of every derived index: the
// n-gram flag, the inverted index, the n-gram trie, the value tree, and
// the forward index. The commit id a snapshot was taken at is the
// caller's concern, not this state's.
type IndexState struct {
	AllowNgram bool
	Inverted   invindex.Snapshot
	Ngrams     map[string][]string // nil when !AllowNgram
	Values     map[string][]valuetree.BucketSnapshot
	Forward    map[string]forwardindex.ForwardDoc
}

// ExportIndexes captures every derived index's current state. The raw
// document map is not included; it is persisted separately (data.json).
func (s *Store) ExportIndexes() IndexState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := IndexState{
		AllowNgram: s.allowNgram,
		Inverted:   s.Inverted.Export(),
		Values:     s.Values.Export(),
		Forward:    s.Forward.Export(),
	}
	if s.Ngrams != nil {
		st.Ngrams = s.Ngrams.Export()
	}
	return st
}

// ImportIndexes replaces every derived index wholesale from a previously
// exported IndexState, as on snapshot load. The raw document map is left
// untouched; callers load it separately via LoadDocuments.
func (s *Store) ImportIndexes(st IndexState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allowNgram = st.AllowNgram
	s.Inverted = invindex.Import(st.Inverted)
	s.Values = valuetree.Import(st.Values)
	s.Forward = forwardindex.Import(st.Forward)
	if s.allowNgram {
		s.Ngrams = ngramtrie.Import(st.Ngrams)
	} else {
		s.Ngrams = nil
	}
}

