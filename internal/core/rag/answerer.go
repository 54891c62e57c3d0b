// Package rag assembles grounded prompts from retrieved chunks and
// orchestrates the single generation call that answers a question.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core/retrieval"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/models"
)

// NoContentAnswer is returned without calling the generator when retrieval
// finds nothing. Answering from an empty context invites fabrication.
const NoContentAnswer = "I could not find any relevant content in this session's documents. " +
	"Make sure the videos have been ingested, or try rephrasing the question."

const systemPrompt = "You are an assistant answering questions about video transcripts. " +
	"Answer ONLY from the provided transcript excerpts. " +
	"If the excerpts do not contain the answer, say so explicitly instead of guessing. " +
	"Cite excerpts by their number, e.g. [2]."

// DefaultContextTokens caps how much retrieved text goes into the prompt.
const DefaultContextTokens = 3000

// Answerer resolves a question against a document scope: retrieve, assemble
// a grounded prompt, generate once. Generation is never retried; it is
// costly and not idempotent.
type Answerer struct {
	merger   *retrieval.Merger
	llm      core.LLMProvider
	db       core.DbClient
	budget   int
	timeout  time.Duration
	encoding *tiktoken.Tiktoken
}

// NewAnswerer builds the orchestrator. timeout covers embedding, fan-out and
// generation together; zero disables it. The tiktoken encoding is optional:
// when unavailable, token counts fall back to a chars/4 estimate.
func NewAnswerer(merger *retrieval.Merger, llm core.LLMProvider, db core.DbClient, contextTokens int, timeout time.Duration) *Answerer {
	if contextTokens <= 0 {
		contextTokens = DefaultContextTokens
	}
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		log.Printf("Answerer: tiktoken encoding unavailable, estimating tokens: %v", err)
		enc = nil
	}
	return &Answerer{merger: merger, llm: llm, db: db, budget: contextTokens, timeout: timeout, encoding: enc}
}

// Answer runs the full query path for one question.
func (a *Answerer) Answer(ctx context.Context, documentIDs []string, question string, k int) (string, []models.SourceRef, []string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	results, warnings, err := a.merger.Retrieve(ctx, documentIDs, question, k)
	if err != nil {
		return "", nil, nil, err
	}
	if len(results) == 0 {
		return NoContentAnswer, nil, warnings, nil
	}

	titles, err := a.db.GetDocumentTitles(ctx, documentIDsOf(results))
	if err != nil {
		return "", nil, nil, fmt.Errorf("resolve document titles: %w", err)
	}

	prompt, sources := a.assemble(question, results, titles)

	answer, err := a.llm.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", nil, nil, fmt.Errorf("%w: %v", core.ErrRetrievalTimeout, err)
		}
		return "", nil, nil, fmt.Errorf("%w: %v", core.ErrAnswerGenerationFailed, err)
	}
	return answer, sources, warnings, nil
}

// assemble builds the grounded user prompt, labelling each excerpt with its
// source title, and returns the citations for the chunks that made it in.
// Chunks are added in rank order until the token budget runs out; the top
// result always fits.
func (a *Answerer) assemble(question string, results []models.RetrievalResult, titles map[string]string) (string, []models.SourceRef) {
	var b strings.Builder
	var sources []models.SourceRef

	b.WriteString("Transcript excerpts:\n\n")
	used := 0
	for _, r := range results {
		cost := a.countTokens(r.Text)
		if len(sources) > 0 && used+cost > a.budget {
			break
		}
		title := titles[r.DocumentID]
		if title == "" {
			title = r.DocumentID
		}
		fmt.Fprintf(&b, "[%d] (%s)\n%s\n\n", len(sources)+1, title, r.Text)
		used += cost
		sources = append(sources, models.SourceRef{
			DocumentID: r.DocumentID,
			Title:      title,
			ChunkID:    r.ChunkID,
			Score:      r.Score,
		})
	}
	fmt.Fprintf(&b, "Question: %s\n", question)
	return b.String(), sources
}

func (a *Answerer) countTokens(text string) int {
	if a.encoding != nil {
		return len(a.encoding.Encode(text, nil, nil))
	}
	n := len([]rune(text))
	return (n + 3) / 4
}

func documentIDsOf(results []models.RetrievalResult) []string {
	seen := make(map[string]bool, len(results))
	var ids []string
	for _, r := range results {
		if !seen[r.DocumentID] {
			seen[r.DocumentID] = true
			ids = append(ids, r.DocumentID)
		}
	}
	return ids
}
