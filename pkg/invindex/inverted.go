// Package invindex is the term -> postings inverted index with BM25
// scoring. The delete tombstone set is a roaring bitmap over densely
// interned document ids; search results are returned as string id slices.
package invindex

import (
	"math"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// Posting is the per-term, per-doc record: ordered positions, the derived
// term frequency, and the set of field paths the term occurred under.
type Posting struct {
	Positions  []int
	TermFreq   int
	FieldPaths map[string]struct{}
}

// InvertedIndex holds term -> docID -> Posting, running doc lengths, and a
// tombstone set of soft-deleted docs.
type InvertedIndex struct {
	postings   map[string]map[uint32]*Posting
	docLengths map[uint32]int
	deleted    *roaring.Bitmap
	ids        *interner
}

// New constructs an empty InvertedIndex.
func New() *InvertedIndex {
	return &InvertedIndex{
		postings:   make(map[string]map[uint32]*Posting),
		docLengths: make(map[uint32]int),
		deleted:    roaring.New(),
		ids:        newInterner(),
	}
}

// AddTerm records one occurrence of term at pos under fieldPath for docID.
// A no-op if docID has been soft-deleted.
func (idx *InvertedIndex) AddTerm(term, docID string, pos int, fieldPath string) {
	id := idx.ids.intern(docID)
	if idx.deleted.Contains(id) {
		return
	}

	byDoc, ok := idx.postings[term]
	if !ok {
		byDoc = make(map[uint32]*Posting)
		idx.postings[term] = byDoc
	}

	p, ok := byDoc[id]
	if !ok {
		p = &Posting{FieldPaths: make(map[string]struct{})}
		byDoc[id] = p
	}
	p.Positions = append(p.Positions, pos)
	p.FieldPaths[fieldPath] = struct{}{}
	p.TermFreq = len(p.Positions)

	idx.docLengths[id]++
}

// SearchTerm returns the union of doc ids across all given terms, excluding
// deleted docs. Order is unspecified.
func (idx *InvertedIndex) SearchTerm(terms []string) []string {
	var out []string
	seen := make(map[uint32]struct{})
	for _, t := range terms {
		t = strings.ToLower(t)
		for id := range idx.postings[t] {
			if idx.deleted.Contains(id) {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, idx.ids.name(id))
		}
	}
	return out
}

// SearchTermInField returns the doc ids whose posting for term includes field.
func (idx *InvertedIndex) SearchTermInField(term, field string) []string {
	term = strings.ToLower(term)
	var out []string
	for id, p := range idx.postings[term] {
		if idx.deleted.Contains(id) {
			continue
		}
		if _, ok := p.FieldPaths[field]; ok {
			out = append(out, idx.ids.name(id))
		}
	}
	return out
}

// SearchTermInFieldPrefix returns doc ids whose posting for term has any
// field path with prefix as one of its dot-separated segments.
func (idx *InvertedIndex) SearchTermInFieldPrefix(term, prefix string) []string {
	term = strings.ToLower(term)
	var out []string
	for id, p := range idx.postings[term] {
		if idx.deleted.Contains(id) {
			continue
		}
		for fp := range p.FieldPaths {
			if hasSegment(fp, prefix) {
				out = append(out, idx.ids.name(id))
				break
			}
		}
	}
	return out
}

func hasSegment(fieldPath, segment string) bool {
	for _, part := range strings.Split(fieldPath, ".") {
		if part == segment {
			return true
		}
	}
	return false
}

// BM25Search scores every doc matching any query term with Okapi BM25,
// summing per-term contributions.
func (idx *InvertedIndex) BM25Search(queryTerms []string, k1, b float64) map[string]float64 {
	scores := make(map[string]float64)

	n := len(idx.docLengths)
	if n == 0 {
		return scores
	}
	N := float64(n)

	var totalLen float64
	for _, l := range idx.docLengths {
		totalLen += float64(l)
	}
	avgdl := totalLen / N

	for _, term := range queryTerms {
		term = strings.ToLower(term)
		byDoc := idx.postings[term]
		df := 0
		for id := range byDoc {
			if !idx.deleted.Contains(id) {
				df++
			}
		}
		if df == 0 {
			continue
		}

		idf := math.Log((N-float64(df)+0.5)/(float64(df)+0.5) + 1)

		for id, p := range byDoc {
			if idx.deleted.Contains(id) {
				continue
			}
			tf := float64(p.TermFreq)
			dl := float64(idx.docLengths[id])
			denom := tf + k1*(1-b+b*dl/avgdl)
			if denom == 0 {
				continue
			}
			score := idf * (tf * (k1 + 1)) / denom
			scores[idx.ids.name(id)] += score
		}
	}

	return scores
}

// RemoveDocument soft-deletes docID: it is tombstoned and excluded from
// every future search until Compact runs.
func (idx *InvertedIndex) RemoveDocument(docID string) {
	id, ok := idx.ids.lookup(docID)
	if !ok {
		return
	}
	idx.deleted.Add(id)
}

// PostingSnapshot is the serializable form of a Posting, field paths
// flattened to a slice since set order is not meaningful.
type PostingSnapshot struct {
	Positions  []int    `json:"positions"`
	TermFreq   int      `json:"term_freq"`
	FieldPaths []string `json:"field_paths"`
}

// Snapshot is the serializable projection of the whole index, keyed by the
// public string doc ids rather than the internal uint32 interning.
type Snapshot struct {
	Postings    map[string]map[string]PostingSnapshot `json:"postings"`
	DocLengths  map[string]int                        `json:"doc_lengths"`
	DeletedDocs []string                               `json:"deleted_docs"`
}

// Export captures the index's current state for durable snapshotting.
func (idx *InvertedIndex) Export() Snapshot {
	snap := Snapshot{
		Postings:   make(map[string]map[string]PostingSnapshot, len(idx.postings)),
		DocLengths: make(map[string]int, len(idx.docLengths)),
	}
	for term, byDoc := range idx.postings {
		out := make(map[string]PostingSnapshot, len(byDoc))
		for id, p := range byDoc {
			fps := make([]string, 0, len(p.FieldPaths))
			for fp := range p.FieldPaths {
				fps = append(fps, fp)
			}
			out[idx.ids.name(id)] = PostingSnapshot{
				Positions:  append([]int(nil), p.Positions...),
				TermFreq:   p.TermFreq,
				FieldPaths: fps,
			}
		}
		snap.Postings[term] = out
	}
	for id, l := range idx.docLengths {
		snap.DocLengths[idx.ids.name(id)] = l
	}
	it := idx.deleted.Iterator()
	for it.HasNext() {
		snap.DeletedDocs = append(snap.DeletedDocs, idx.ids.name(it.Next()))
	}
	return snap
}

// Import rebuilds an InvertedIndex from a Snapshot.
func Import(snap Snapshot) *InvertedIndex {
	idx := New()
	for term, byDoc := range snap.Postings {
		out := make(map[uint32]*Posting, len(byDoc))
		for docID, p := range byDoc {
			id := idx.ids.intern(docID)
			fps := make(map[string]struct{}, len(p.FieldPaths))
			for _, fp := range p.FieldPaths {
				fps[fp] = struct{}{}
			}
			out[id] = &Posting{
				Positions:  append([]int(nil), p.Positions...),
				TermFreq:   p.TermFreq,
				FieldPaths: fps,
			}
		}
		idx.postings[term] = out
	}
	for docID, l := range snap.DocLengths {
		idx.docLengths[idx.ids.intern(docID)] = l
	}
	for _, docID := range snap.DeletedDocs {
		idx.deleted.Add(idx.ids.intern(docID))
	}
	return idx
}

// Compact physically removes tombstoned postings and clears the tombstone
// set. An amortized, host-scheduled maintenance operation.
func (idx *InvertedIndex) Compact() {
	if idx.deleted.IsEmpty() {
		return
	}
	for term, byDoc := range idx.postings {
		for id := range byDoc {
			if idx.deleted.Contains(id) {
				delete(byDoc, id)
				delete(idx.docLengths, id)
			}
		}
		if len(byDoc) == 0 {
			delete(idx.postings, term)
		}
	}
	idx.deleted.Clear()
}
