// Package tokenizer turns raw text into words and, optionally, character
// n-grams, deterministically as a pure function of (config, text, allowNgram).
package tokenizer

import (
	"regexp"
	"strings"

	"github.com/kljensen/snowball/english"
	"github.com/orsinium-labs/stopwords"

	"github.com/kittclouds/gokitt-search/pkg/errs"
)

var wordRE = regexp.MustCompile(`[A-Za-z0-9]+`)

// Config enumerates the tokenizer's construction options.
type Config struct {
	UseStemming bool
	MinNgram    int // 0 means unset
	MaxNgram    int // 0 means unset

	// DropStopwords filters common English stopwords after stemming and
	// before n-gram extraction. Defaults to false so existing behavior is
	// unaffected unless a host opts in.
	DropStopwords bool
}

// Tokenizer is the compiled, validated form of a Config.
type Tokenizer struct {
	cfg        Config
	allowNgram bool
	minNgram   int
	maxNgram   int
}

// WordNgrams pairs a word with the n-grams generated from it, in tokenize
// order.
type WordNgrams struct {
	Word   string
	Ngrams []string
}

// New validates cfg and builds a Tokenizer. Returns errs.ErrInvalidConfig
// when both bounds are set and MinNgram > MaxNgram.
func New(cfg Config) (*Tokenizer, error) {
	if cfg.MinNgram != 0 && cfg.MaxNgram != 0 && cfg.MinNgram > cfg.MaxNgram {
		return nil, errs.New(errs.KindInvalidConfig, "min_ngram must be <= max_ngram")
	}
	if cfg.MinNgram < 0 || cfg.MaxNgram < 0 {
		return nil, errs.New(errs.KindInvalidConfig, "ngram bounds must be non-negative")
	}

	allow := cfg.MinNgram != 0 || cfg.MaxNgram != 0
	min, max := cfg.MinNgram, cfg.MaxNgram
	if allow {
		if min == 0 {
			min = max
		}
		if max == 0 {
			max = min
		}
	}

	return &Tokenizer{cfg: cfg, allowNgram: allow, minNgram: min, maxNgram: max}, nil
}

// AllowNgram reports whether this tokenizer was configured with n-gram
// bounds at all (as opposed to whether a given Tokenize call requested them).
func (t *Tokenizer) AllowNgram() bool { return t.allowNgram }

// Tokenize lowercases text, extracts maximal [A-Za-z0-9]+ runs in order,
// optionally stems and/or drops stopwords, and — when both allowNgram is
// true and the tokenizer itself carries n-gram bounds — emits per-word
// contiguous character windows for every n in [MinNgram, MaxNgram].
func (t *Tokenizer) Tokenize(text string, allowNgram bool) ([]string, []WordNgrams) {
	lower := strings.ToLower(text)
	runs := wordRE.FindAllString(lower, -1)

	words := make([]string, 0, len(runs))
	for _, w := range runs {
		if t.cfg.UseStemming {
			w = english.Stem(w, false)
		}
		if t.cfg.DropStopwords && stopwords.EN.IsStopword(w) {
			continue
		}
		words = append(words, w)
	}

	if !allowNgram || !t.allowNgram {
		return words, nil
	}

	grams := make([]WordNgrams, 0, len(words))
	for _, w := range words {
		wn := WordNgrams{Word: w}
		for n := t.minNgram; n <= t.maxNgram; n++ {
			wn.Ngrams = append(wn.Ngrams, extractNgrams(w, n)...)
		}
		grams = append(grams, wn)
	}
	return words, grams
}

// extractNgrams returns the ordered contiguous rune windows of length n.
// Words shorter than n contribute no n-grams at that n.
func extractNgrams(word string, n int) []string {
	if n <= 0 {
		return nil
	}
	runes := []rune(word)
	if len(runes) < n {
		return nil
	}
	out := make([]string, 0, len(runes)-n+1)
	for i := 0; i <= len(runes)-n; i++ {
		out = append(out, string(runes[i:i+n]))
	}
	return out
}
