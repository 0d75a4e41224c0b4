// Package forwardindex holds the flat per-doc projection that lets delete
// reverse what add produced, without re-consulting the original document.
// No search queries ever consult it.
package forwardindex

// ForwardDoc is the post-normalization snapshot of one document's leaf
// values, keyed by field path. Storing post-normalization values (not raw
// input) guarantees retokenizing them on delete reproduces exactly the
// tokens add indexed.
type ForwardDoc struct {
	TextFields    map[string]string
	NumericFields map[string]float64
	DateFields    map[string]string
}

func newForwardDoc() ForwardDoc {
	return ForwardDoc{
		TextFields:    make(map[string]string),
		NumericFields: make(map[string]float64),
		DateFields:    make(map[string]string),
	}
}

// NewForwardDoc returns an empty ForwardDoc ready for population during
// extraction.
func NewForwardDoc() ForwardDoc { return newForwardDoc() }

// Index is the doc id -> ForwardDoc map.
type Index struct {
	docs map[string]ForwardDoc
}

// New constructs an empty Index.
func New() *Index {
	return &Index{docs: make(map[string]ForwardDoc)}
}

func (idx *Index) Add(docID string, doc ForwardDoc) {
	idx.docs[docID] = doc
}

func (idx *Index) Get(docID string) (ForwardDoc, bool) {
	d, ok := idx.docs[docID]
	return d, ok
}

func (idx *Index) Remove(docID string) {
	delete(idx.docs, docID)
}

// Export returns a defensive copy of the doc id -> ForwardDoc map, for
// durable snapshotting.
func (idx *Index) Export() map[string]ForwardDoc {
	out := make(map[string]ForwardDoc, len(idx.docs))
	for k, v := range idx.docs {
		out[k] = v
	}
	return out
}

// Import rebuilds an Index from a previously Export-ed doc id -> ForwardDoc
// map.
func Import(m map[string]ForwardDoc) *Index {
	idx := New()
	for k, v := range m {
		idx.docs[k] = v
	}
	return idx
}
