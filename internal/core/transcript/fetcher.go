// Package transcript resolves a video source reference to raw transcript
// text by trying an ordered chain of fetch strategies. The first strategy
// that yields text wins; exhausting the chain maps to TranscriptUnavailable.
package transcript

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core"
)

// Strategy is one way of obtaining a transcript. Implementations report
// failure through ok=false rather than an error, so the chain keeps going.
type Strategy interface {
	Name() string
	TryFetch(ctx context.Context, sourceRef string) (text string, ok bool)
}

// Fetcher runs strategies in order and returns the first non-empty result.
type Fetcher struct {
	strategies []Strategy
}

func NewFetcher(strategies ...Strategy) *Fetcher {
	return &Fetcher{strategies: strategies}
}

// Fetch tries each strategy in order. Every failure maps to
// core.ErrTranscriptUnavailable so ingestion halts with a single reason.
func (f *Fetcher) Fetch(ctx context.Context, sourceRef string) (string, error) {
	if len(f.strategies) == 0 {
		return "", fmt.Errorf("%w: no fetch strategies configured", core.ErrTranscriptUnavailable)
	}
	for _, s := range f.strategies {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %v", core.ErrTranscriptUnavailable, err)
		}
		text, ok := s.TryFetch(ctx, sourceRef)
		if ok && strings.TrimSpace(text) != "" {
			log.Printf("Transcript: %q resolved via %s strategy", sourceRef, s.Name())
			return text, nil
		}
		log.Printf("Transcript: %s strategy failed for %q, trying next", s.Name(), sourceRef)
	}
	return "", fmt.Errorf("%w: all %d strategies failed for %q", core.ErrTranscriptUnavailable, len(f.strategies), sourceRef)
}

var _ core.TranscriptFetcher = (*Fetcher)(nil)
