package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsInconsistentBounds(t *testing.T) {
	_, err := New(Config{MinNgram: 5, MaxNgram: 2})
	require.Error(t, err)
}

func TestAllowNgramDefaultsMissingBound(t *testing.T) {
	tok, err := New(Config{MinNgram: 3})
	require.NoError(t, err)
	assert.True(t, tok.AllowNgram())

	words, grams := tok.Tokenize("pokemon", true)
	require.Equal(t, []string{"pokemon"}, words)
	require.Len(t, grams, 1)
	for _, g := range grams[0].Ngrams {
		assert.Len(t, g, 3)
	}
}

func TestTokenizeWithoutNgramBounds(t *testing.T) {
	tok, err := New(Config{})
	require.NoError(t, err)
	assert.False(t, tok.AllowNgram())

	words, grams := tok.Tokenize("Hello World", true)
	assert.Equal(t, []string{"hello", "world"}, words)
	assert.Nil(t, grams)
}

func TestDropStopwords(t *testing.T) {
	tok, err := New(Config{DropStopwords: true})
	require.NoError(t, err)

	words, _ := tok.Tokenize("the quick fox", false)
	for _, w := range words {
		assert.NotEqual(t, "the", w)
	}
}

func TestTokenizeCallerCanSuppressNgrams(t *testing.T) {
	tok, err := New(Config{MinNgram: 2, MaxNgram: 2})
	require.NoError(t, err)

	_, grams := tok.Tokenize("pokemon", false)
	assert.Nil(t, grams)
}
