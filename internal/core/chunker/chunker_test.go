package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core"
)

func TestSplitEmptyInput(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\n\t"} {
		chunks, err := Split(text, "doc-1", 100, 20)
		require.NoError(t, err)
		assert.Empty(t, chunks)
	}
}

func TestSplitRejectsBadConfig(t *testing.T) {
	_, err := Split("hello", "doc-1", 0, 0)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	_, err = Split("hello", "doc-1", 10, 10)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	_, err = Split("hello", "doc-1", 10, -1)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	text := "Just one short sentence."
	chunks, err := Split(text, "doc-1", 100, 20)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Text)
	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, len([]rune(text)), chunks[0].EndOffset)
	assert.Equal(t, 0, chunks[0].Ordinal)
	assert.Equal(t, "doc-1", chunks[0].DocumentID)
}

func TestSplitPrefersSentenceBoundaries(t *testing.T) {
	text := "Sentence one. Sentence two. Sentence three."
	chunks, err := Split(text, "doc-1", 20, 5)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, "Sentence one.", chunks[0].Text)
	assert.Equal(t, " one. Sentence two.", chunks[1].Text)
	assert.Equal(t, "two. Sentence three.", chunks[2].Text)
}

func TestSplitInvariants(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("The quick brown fox jumps over the lazy dog. ")
		if i%7 == 6 {
			b.WriteString("\n\n")
		}
	}
	text := b.String()
	runes := []rune(text)
	const maxChars, overlap = 120, 30

	chunks, err := Split(text, "doc-1", maxChars, overlap)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, len(runes), chunks[len(chunks)-1].EndOffset)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.Ordinal)
		assert.LessOrEqual(t, ch.EndOffset-ch.StartOffset, maxChars, "chunk %d over size", i)
		assert.Equal(t, string(runes[ch.StartOffset:ch.EndOffset]), ch.Text, "chunk %d text/offset mismatch", i)
		assert.NotEmpty(t, ch.ID)

		if i == 0 {
			continue
		}
		prev := chunks[i-1]
		realized := prev.EndOffset - ch.StartOffset
		assert.GreaterOrEqual(t, realized, 0, "gap between chunks %d and %d", i-1, i)
		assert.LessOrEqual(t, realized, overlap, "chunks %d and %d overlap too much", i-1, i)
		assert.Equal(t,
			string(runes[ch.StartOffset:prev.EndOffset]),
			ch.Text[:realized],
			"overlap text differs between chunks %d and %d", i-1, i)
	}
}

func TestSplitHardCutsOversizedWord(t *testing.T) {
	text := strings.Repeat("x", 50)
	chunks, err := Split(text, "doc-1", 20, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, strings.Repeat("x", 20), chunks[0].Text)
	assert.Equal(t, strings.Repeat("x", 20), chunks[1].Text)
	assert.Equal(t, strings.Repeat("x", 10), chunks[2].Text)
}

func TestSplitZeroOverlapTilesExactly(t *testing.T) {
	text := "Alpha beta. Gamma delta. Epsilon zeta."
	chunks, err := Split(text, "doc-1", 15, 0)
	require.NoError(t, err)

	var rebuilt strings.Builder
	for _, ch := range chunks {
		rebuilt.WriteString(ch.Text)
	}
	assert.Equal(t, text, rebuilt.String())
}
