// Package query is the read-only façade over a DocumentStore: boolean word
// search, ordered range queries, and approximate n-gram+BM25 retrieval.
package query

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/kittclouds/gokitt-search/internal/docstore"
	"github.com/kittclouds/gokitt-search/pkg/value"
	"github.com/kittclouds/gokitt-search/pkg/valuetree"
)

// Scope restricts Range-family results to documents with a posting whose
// field path carries FieldPrefix as one of its dot-separated segments.
// Off by default (nil scope never filters).
type Scope struct {
	FieldPrefix string
}

// Result is one scored document from NgramBM25, in descending score order.
type Result struct {
	DocID string
	Score float64
}

// Service is the read-only query façade. It never mutates the Store.
type Service struct {
	store *docstore.Store
}

// New constructs a Service over store.
func New(store *docstore.Store) *Service {
	return &Service{store: store}
}

// GetWords is the union of doc ids matching any of words.
func (s *Service) GetWords(words []string) []string {
	return s.store.Inverted.SearchTerm(words)
}

// AndWords is the intersection of per-word doc id sets. Empty for an empty
// word list.
func (s *Service) AndWords(words []string) []string {
	if len(words) == 0 {
		return nil
	}
	sets := make([]map[string]struct{}, len(words))
	for i, w := range words {
		sets[i] = toSet(s.store.Inverted.SearchTerm([]string{w}))
	}
	result := sets[0]
	for _, set := range sets[1:] {
		result = intersect(result, set)
	}
	return fromSet(result)
}

// NotWord is the full live document id set minus every doc matching any of
// words.
func (s *Service) NotWord(words []string) []string {
	excluded := toSet(s.store.Inverted.SearchTerm(words))
	all := s.store.AllDocumentIDs()
	out := make([]string, 0, len(all))
	for _, id := range all {
		if _, ok := excluded[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

const (
	minKey = math.MinInt64
	maxKey = math.MaxInt64
)

// Range returns the doc ids with a value at fieldPath whose normalized key
// falls in [min, max], inclusive on both ends, optionally filtered by
// scope. Either bound that fails to normalize (non-numeric, non-date)
// yields an empty result.
func (s *Service) Range(fieldPath string, min, max value.Value, scope *Scope) []string {
	minK, ok1 := valuetree.Normalize(min)
	maxK, ok2 := valuetree.Normalize(max)
	if !ok1 || !ok2 {
		return nil
	}
	return s.rangeByKey(fieldPath, minK, maxK, scope)
}

// Gt returns docs whose value at fieldPath normalizes strictly greater
// than v.
func (s *Service) Gt(fieldPath string, v value.Value, scope *Scope) []string {
	k, ok := valuetree.Normalize(v)
	if !ok {
		return nil
	}
	return s.rangeByKey(fieldPath, k+1, maxKey, scope)
}

// Gte returns docs whose value at fieldPath normalizes greater than or
// equal to v.
func (s *Service) Gte(fieldPath string, v value.Value, scope *Scope) []string {
	k, ok := valuetree.Normalize(v)
	if !ok {
		return nil
	}
	return s.rangeByKey(fieldPath, k, maxKey, scope)
}

// Lt returns docs whose value at fieldPath normalizes strictly less than v.
func (s *Service) Lt(fieldPath string, v value.Value, scope *Scope) []string {
	k, ok := valuetree.Normalize(v)
	if !ok {
		return nil
	}
	return s.rangeByKey(fieldPath, minKey, k-1, scope)
}

// Lte returns docs whose value at fieldPath normalizes less than or equal
// to v.
func (s *Service) Lte(fieldPath string, v value.Value, scope *Scope) []string {
	k, ok := valuetree.Normalize(v)
	if !ok {
		return nil
	}
	return s.rangeByKey(fieldPath, minKey, k, scope)
}

// Between is an alias for Range.
func (s *Service) Between(fieldPath string, min, max value.Value, scope *Scope) []string {
	return s.Range(fieldPath, min, max, scope)
}

func (s *Service) rangeByKey(fieldPath string, minK, maxK int64, scope *Scope) []string {
	postings := s.store.Values.Range(fieldPath, minK, maxK)
	seen := make(map[string]struct{})
	var out []string
	for _, p := range postings {
		if scope != nil && !hasSegment(p.FieldPath, scope.FieldPrefix) {
			continue
		}
		if _, dup := seen[p.DocID]; dup {
			continue
		}
		seen[p.DocID] = struct{}{}
		out = append(out, p.DocID)
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

// NgramBM25 is the approximate fuzzy-retrieval algorithm: tokenize the
// query with n-grams enabled, score every NgramTrie candidate by
// α·jaccard + β·edit against the query text, keep the top_k, then
// weight-aggregate each kept candidate's BM25Search([candidate], k1, b)
// contribution. Returns nil if the store's tokenizer does not allow
// n-grams.
func (s *Service) NgramBM25(queryText string, k1, b, alpha, beta float64, topK int) []Result {
	if !s.store.AllowNgram() {
		return nil
	}

	words, wordGrams := s.store.Tokenize(queryText, true)
	queryJoined := strings.Join(words, " ")

	nTotal := 0
	for _, wg := range wordGrams {
		nTotal += len(wg.Ngrams)
	}
	if nTotal == 0 {
		nTotal = 1
	}

	counts := make(map[string]int)
	for _, wg := range wordGrams {
		for _, g := range wg.Ngrams {
			for _, term := range s.store.Ngrams.GetTerms(g) {
				counts[term]++
			}
		}
	}

	type scored struct {
		term  string
		score float64
	}
	candidates := make([]scored, 0, len(counts))
	for term, k := range counts {
		jaccard := float64(k) / float64(nTotal)
		ed := levenshtein(queryJoined, term)
		denom := utf8.RuneCountInString(term)
		if denom == 0 {
			denom = 1
		}
		edit := 1 - float64(ed)/float64(denom)
		candidates = append(candidates, scored{term: term, score: alpha*jaccard + beta*edit})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].term < candidates[j].term
	})
	if topK >= 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}

	docScores := make(map[string]float64)
	for _, c := range candidates {
		for doc, sc := range s.store.Inverted.BM25Search([]string{c.term}, k1, b) {
			docScores[doc] += sc * c.score
		}
	}

	results := make([]Result, 0, len(docScores))
	for doc, sc := range docScores {
		results = append(results, Result{DocID: doc, Score: sc})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})
	return results
}

// levenshtein is the classical three-operation (insert, delete, substitute)
// unit-cost edit distance over runes.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	n, m := len(ra), len(rb)

	prev := make([]int, m+1)
	curr := make([]int, m+1)
	for j := 0; j <= m; j++ {
		prev[j] = j
	}

	for i := 1; i <= n; i++ {
		curr[0] = i
		for j := 1; j <= m; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[m]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func toSet(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func fromSet(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	return out
}

func intersect(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for id := range a {
		if _, ok := b[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}
