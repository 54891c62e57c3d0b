// Package chunker splits transcript text into overlapping retrieval chunks.
package chunker

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/models"
)

// DefaultMaxChunkChars is the default chunk size in characters.
const DefaultMaxChunkChars = 1000

// DefaultOverlapChars is the default overlap between adjacent chunks.
const DefaultOverlapChars = 200

// span is a half-open [start, end) range of runes in the source text.
type span struct {
	start, end int
}

// Split cuts text into ordered chunks of at most maxChunkChars characters,
// where the trailing overlapChars of chunk N reappear at the start of chunk
// N+1. Boundaries prefer paragraph breaks, then sentence ends, then
// whitespace; a hard character cut happens only when a single word exceeds
// maxChunkChars.
//
// Empty or whitespace-only input yields no chunks, not an error.
// overlapChars must be strictly smaller than maxChunkChars.
func Split(text, documentID string, maxChunkChars, overlapChars int) ([]models.Chunk, error) {
	if maxChunkChars <= 0 {
		return nil, fmt.Errorf("%w: maxChunkChars must be positive, got %d", core.ErrInvalidConfig, maxChunkChars)
	}
	if overlapChars < 0 || overlapChars >= maxChunkChars {
		return nil, fmt.Errorf("%w: overlapChars %d must be in [0, maxChunkChars=%d)", core.ErrInvalidConfig, overlapChars, maxChunkChars)
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	runes := []rune(text)
	units := splitUnits(runes, maxChunkChars)

	var chunks []models.Chunk
	i := 0
	for i < len(units) {
		own := units[i]
		capacity := maxChunkChars
		if len(chunks) > 0 {
			capacity = maxChunkChars - overlapChars
		}
		// Greedily absorb following units while they fit. An oversized
		// single unit (still <= maxChunkChars by construction) stands
		// alone and borrows room from the overlap below.
		if own.end-own.start <= capacity {
			for i+1 < len(units) && units[i+1].end-own.start <= capacity {
				i++
				own.end = units[i].end
			}
		}

		overlap := overlapChars
		if len(chunks) == 0 {
			overlap = 0
		}
		if own.end-own.start+overlap > maxChunkChars {
			overlap = maxChunkChars - (own.end - own.start)
		}
		start := own.start - overlap

		chunks = append(chunks, models.Chunk{
			ID:          uuid.NewString(),
			DocumentID:  documentID,
			Ordinal:     len(chunks),
			Text:        string(runes[start:own.end]),
			StartOffset: start,
			EndOffset:   own.end,
		})
		i++
	}
	return chunks, nil
}

// splitUnits tiles the text into indivisible units no longer than max runes.
// Paragraphs that fit stay whole; oversized paragraphs break into sentences,
// oversized sentences into words, oversized words into hard cuts. The unit
// spans are contiguous and cover the whole text.
func splitUnits(runes []rune, max int) []span {
	var out []span
	for _, p := range splitAt(runes, span{0, len(runes)}, afterParagraphBreak) {
		if p.end-p.start <= max {
			out = append(out, p)
			continue
		}
		for _, s := range splitAt(runes, p, afterSentenceEnd) {
			if s.end-s.start <= max {
				out = append(out, s)
				continue
			}
			for _, w := range splitAt(runes, s, beforeWordStart) {
				if w.end-w.start <= max {
					out = append(out, w)
					continue
				}
				for c := w.start; c < w.end; c += max {
					e := c + max
					if e > w.end {
						e = w.end
					}
					out = append(out, span{c, e})
				}
			}
		}
	}
	return out
}

// splitAt cuts s into sub-spans at every interior position where boundary
// reports true.
func splitAt(runes []rune, s span, boundary func([]rune, int) bool) []span {
	var out []span
	start := s.start
	for i := s.start + 1; i < s.end; i++ {
		if boundary(runes, i) {
			out = append(out, span{start, i})
			start = i
		}
	}
	return append(out, span{start, s.end})
}

// afterParagraphBreak reports whether position i sits right after a blank line.
func afterParagraphBreak(runes []rune, i int) bool {
	return runes[i-1] == '\n' && i >= 2 && runes[i-2] == '\n' && runes[i] != '\n'
}

// afterSentenceEnd reports whether position i sits right after terminal
// punctuation. The following whitespace belongs to the next unit, so
// decimals like "3.14" never split.
func afterSentenceEnd(runes []rune, i int) bool {
	p := runes[i-1]
	if p != '.' && p != '!' && p != '?' {
		return false
	}
	return runes[i] == ' ' || runes[i] == '\n'
}

// beforeWordStart reports whether position i starts a new word.
func beforeWordStart(runes []rune, i int) bool {
	return unicode.IsSpace(runes[i-1]) && !unicode.IsSpace(runes[i])
}
