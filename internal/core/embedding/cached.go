// Package embedding wraps an external embedding provider with batching,
// retries and an LRU cache keyed by (model, text). Transcripts share a lot
// of boilerplate intros/outros, so identical chunk text across documents is
// common; the cache only saves recomputation and is never the source of
// truth for persisted vectors, so eviction is always safe.
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core"
)

// DefaultBatchSize is how many texts go to the provider per call.
const DefaultBatchSize = 32

// maxAttempts bounds retries per batch, including the first try.
const maxAttempts = 3

// Cached is a caching, batching adapter around an EmbeddingProvider.
// The LRU is safe for concurrent use, so parallel ingestions can share it.
type Cached struct {
	inner       core.EmbeddingProvider
	cache       *lru.Cache[string, []float32]
	batchSize   int
	baseBackoff time.Duration
}

// NewCached builds the adapter. cacheCap is the LRU capacity in entries;
// batchSize <= 0 falls back to DefaultBatchSize.
func NewCached(inner core.EmbeddingProvider, cacheCap, batchSize int) (*Cached, error) {
	if cacheCap <= 0 {
		return nil, fmt.Errorf("%w: cache capacity must be positive, got %d", core.ErrInvalidConfig, cacheCap)
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	cache, err := lru.New[string, []float32](cacheCap)
	if err != nil {
		return nil, err
	}
	return &Cached{inner: inner, cache: cache, batchSize: batchSize, baseBackoff: time.Second}, nil
}

func (c *Cached) ModelID() string { return c.inner.ModelID() }
func (c *Cached) Dims() int       { return c.inner.Dims() }

// EmbedTexts returns one vector per input text, in order. Cache misses are
// embedded in batches; a batch that still fails after retries fails the
// whole call with EmbeddingUnavailable and none of the computed vectors are
// returned, so callers never persist a partially embedded document.
func (c *Cached) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	var missIdx []int
	for i, t := range texts {
		if vec, ok := c.cache.Get(c.key(t)); ok {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
	}

	for lo := 0; lo < len(missIdx); lo += c.batchSize {
		hi := lo + c.batchSize
		if hi > len(missIdx) {
			hi = len(missIdx)
		}
		batch := missIdx[lo:hi]
		payload := make([]string, len(batch))
		for j, i := range batch {
			payload[j] = texts[i]
		}

		vectors, err := c.embedWithRetry(ctx, payload)
		if err != nil {
			return nil, err
		}
		for j, i := range batch {
			out[i] = vectors[j]
			c.cache.Add(c.key(texts[i]), vectors[j])
		}
	}
	return out, nil
}

// EmbedOne embeds a single text (the question path).
func (c *Cached) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (c *Cached) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		vectors, err := c.inner.EmbedTexts(ctx, texts)
		if err == nil {
			if len(vectors) != len(texts) {
				return nil, fmt.Errorf("%w: provider returned %d vectors for %d texts", core.ErrEmbeddingUnavailable, len(vectors), len(texts))
			}
			for _, v := range vectors {
				if len(v) != c.inner.Dims() {
					return nil, fmt.Errorf("%w: provider returned %d dims, expected %d", core.ErrDimensionMismatch, len(v), c.inner.Dims())
				}
			}
			return vectors, nil
		}
		lastErr = err
		if attempt == maxAttempts {
			break
		}
		backoff := c.baseBackoff << (attempt - 1)
		log.Printf("Embedding: attempt %d/%d failed, retrying in %s: %v", attempt, maxAttempts, backoff, err)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", core.ErrEmbeddingUnavailable, ctx.Err())
		}
	}
	return nil, fmt.Errorf("%w: %d attempts exhausted: %v", core.ErrEmbeddingUnavailable, maxAttempts, lastErr)
}

func (c *Cached) key(text string) string {
	h := sha256.Sum256([]byte(c.inner.ModelID() + "\x00" + text))
	return hex.EncodeToString(h[:])
}

var _ core.EmbeddingProvider = (*Cached)(nil)
