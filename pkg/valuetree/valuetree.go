// Package valuetree is the ordered numeric/date index supporting range
// queries. Per field path it keeps a sorted key slice with binary-search
// insertion and lookup via sort.Search.
package valuetree

import (
	"math"
	"sort"

	"github.com/kittclouds/gokitt-search/pkg/value"
)

// Posting is one entry in a value-tree bucket: the document and field path
// that produced the normalized key.
type Posting struct {
	DocID     string
	FieldPath string
}

type bucket struct {
	key      int64
	postings []Posting
}

// Index is the per-field-path ordered map from normalized int64 key to its
// posting list, preserving insertion order within a key.
type Index struct {
	byField map[string][]*bucket
}

// New constructs an empty Index.
func New() *Index {
	return &Index{byField: make(map[string][]*bucket)}
}

// NormalizeNumber projects a float64 into the fixed ×1000 key space.
func NormalizeNumber(n float64) int64 {
	return int64(math.Round(n * 1000))
}

// NormalizeDate projects an ISO-8601 "YYYY-MM-DD" date into a
// lexicographically-equivalent packed integer Y*10000 + M*100 + D. Malformed
// dates normalize to 0 and are not indexed (ok=false).
func NormalizeDate(d string) (int64, bool) {
	if len(d) != 10 || d[4] != '-' || d[7] != '-' {
		return 0, false
	}
	y, ok1 := parseDigits(d[0:4])
	m, ok2 := parseDigits(d[5:7])
	day, ok3 := parseDigits(d[8:10])
	if !ok1 || !ok2 || !ok3 {
		return 0, false
	}
	return y*10000 + m*100 + day, true
}

func parseDigits(s string) (int64, bool) {
	var v int64
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + int64(c-'0')
	}
	return v, true
}

// Normalize resolves v to its key under the value-tree's normalized key
// space (Number and Date kinds only; other kinds report ok=false), for
// callers outside this package that need to compute a range boundary, such
// as QueryService's gt/gte/lt/lte/between ±1 shifts.
func Normalize(v value.Value) (int64, bool) {
	return normalizeValue(v)
}

// normalizeValue resolves v to its key under the value-tree's normalized key
// space, for Number and Date kinds only.
func normalizeValue(v value.Value) (int64, bool) {
	if n, ok := v.AsNumber(); ok {
		return NormalizeNumber(n), true
	}
	if d, ok := v.AsDate(); ok {
		return NormalizeDate(d)
	}
	return 0, false
}

// Add inserts (docID, fieldPath) under value's normalized key, preserving
// insertion order within the key. Non-numeric, non-date values are not
// indexed.
func (idx *Index) Add(fieldPath string, v value.Value, docID string) {
	key, ok := normalizeValue(v)
	if !ok {
		return
	}
	buckets := idx.byField[fieldPath]
	i, found := search(buckets, key)
	if !found {
		b := &bucket{key: key}
		buckets = append(buckets, nil)
		copy(buckets[i+1:], buckets[i:])
		buckets[i] = b
		idx.byField[fieldPath] = buckets
	}
	buckets[i].postings = append(buckets[i].postings, Posting{DocID: docID, FieldPath: fieldPath})
}

// Remove deletes every (docID, fieldPath) tuple at value's normalized key,
// dropping the key entirely if it becomes empty.
func (idx *Index) Remove(fieldPath string, v value.Value, docID string) {
	key, ok := normalizeValue(v)
	if !ok {
		return
	}
	buckets := idx.byField[fieldPath]
	i, found := search(buckets, key)
	if !found {
		return
	}
	b := buckets[i]
	kept := b.postings[:0]
	for _, p := range b.postings {
		if p.DocID == docID && p.FieldPath == fieldPath {
			continue
		}
		kept = append(kept, p)
	}
	b.postings = kept
	if len(b.postings) == 0 {
		buckets = append(buckets[:i], buckets[i+1:]...)
		if len(buckets) == 0 {
			delete(idx.byField, fieldPath)
		} else {
			idx.byField[fieldPath] = buckets
		}
	}
}

// Range returns postings for fieldPath whose key lies in [minKey, maxKey],
// inclusive, in key-ascending order.
func (idx *Index) Range(fieldPath string, minKey, maxKey int64) []Posting {
	buckets := idx.byField[fieldPath]
	var out []Posting
	lo := sort.Search(len(buckets), func(i int) bool { return buckets[i].key >= minKey })
	for i := lo; i < len(buckets) && buckets[i].key <= maxKey; i++ {
		out = append(out, buckets[i].postings...)
	}
	return out
}

// BucketSnapshot is one serializable (key, postings) bucket.
type BucketSnapshot struct {
	Key      int64     `json:"key"`
	Postings []Posting `json:"postings"`
}

// Export captures every field path's bucket list, in ascending key order,
// for durable snapshotting.
func (idx *Index) Export() map[string][]BucketSnapshot {
	out := make(map[string][]BucketSnapshot, len(idx.byField))
	for field, buckets := range idx.byField {
		bs := make([]BucketSnapshot, len(buckets))
		for i, b := range buckets {
			bs[i] = BucketSnapshot{Key: b.key, Postings: append([]Posting(nil), b.postings...)}
		}
		out[field] = bs
	}
	return out
}

// Import rebuilds an Index from a previously Export-ed field -> buckets map.
// Bucket key order is trusted as already sorted ascending, matching Export.
func Import(m map[string][]BucketSnapshot) *Index {
	idx := New()
	for field, bs := range m {
		buckets := make([]*bucket, len(bs))
		for i, b := range bs {
			buckets[i] = &bucket{key: b.Key, postings: append([]Posting(nil), b.Postings...)}
		}
		idx.byField[field] = buckets
	}
	return idx
}

// search finds the index of key within buckets (sorted ascending), and
// whether it was found exactly.
func search(buckets []*bucket, key int64) (int, bool) {
	i := sort.Search(len(buckets), func(i int) bool { return buckets[i].key >= key })
	if i < len(buckets) && buckets[i].key == key {
		return i, true
	}
	return i, false
}
