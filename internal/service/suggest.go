package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/brandcart/storefront/internal/apiclient"
	"github.com/brandcart/storefront/internal/async"
	"github.com/brandcart/storefront/internal/domain"
)

// SuggestionDelay is the quiet period after the last keystroke before a
// lookup starts.
const SuggestionDelay = 220 * time.Millisecond

// SuggestionSource is the remote product search.
type SuggestionSource interface {
	SearchProducts(ctx context.Context, q apiclient.SearchQuery) ([]domain.Product, error)
}

// PoolFunc returns the product pools the local fallback scans, in priority
// order.
type PoolFunc func() [][]domain.Product

type suggestionWaiter struct {
	text string
	ch   chan []domain.Suggestion
}

// SuggestionEngine turns keystrokes into at most MaxSuggestions entries.
// Only the last input of a burst triggers a lookup, and a lookup applies its
// result only while it is still the latest.
type SuggestionEngine struct {
	source   SuggestionSource
	pools    PoolFunc
	debounce *async.Debouncer
	latest   async.Latest
	logger   *slog.Logger

	mu          sync.Mutex
	input       string
	appliedFor  string
	settled     bool
	suggestions []domain.Suggestion
	waiters     []suggestionWaiter
	closed      bool
}

// NewSuggestionEngine creates an engine whose debounce runs on clock.
func NewSuggestionEngine(source SuggestionSource, pools PoolFunc, clock async.Clock, logger *slog.Logger) *SuggestionEngine {
	if pools == nil {
		pools = func() [][]domain.Product { return nil }
	}
	return &SuggestionEngine{
		source:   source,
		pools:    pools,
		debounce: async.NewDebouncer(clock, SuggestionDelay),
		logger:   logger,
		settled:  true,
	}
}

// Input records the current search box text. Text shorter than
// domain.MinQueryRunes clears suggestions at once; anything else restarts
// the debounce. Pending or in-flight lookups for earlier text are dropped.
func (e *SuggestionEngine) Input(ctx context.Context, text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	e.input = text
	e.latest.Cancel()
	e.releaseOthers(text)

	if domain.QueryTooShort(text) {
		e.debounce.Stop()
		e.suggestions = nil
		e.appliedFor = text
		e.settled = true
		e.release(text, []domain.Suggestion{})
		return
	}

	e.settled = false
	e.debounce.Trigger(func() { e.fire(ctx, text) })
}

// fire starts the lookup for text. It runs on the debounce timer.
func (e *SuggestionEngine) fire(ctx context.Context, text string) {
	e.mu.Lock()
	if e.closed || e.input != text {
		e.mu.Unlock()
		return
	}
	lookupCtx, ticket := e.latest.Begin(context.WithoutCancel(ctx))
	e.mu.Unlock()

	go func() {
		results := e.lookup(lookupCtx, text)

		e.mu.Lock()
		defer e.mu.Unlock()
		if e.closed || !ticket.Current() {
			return
		}
		e.suggestions = results
		e.appliedFor = text
		e.settled = true
		e.release(text, results)
	}()
}

func (e *SuggestionEngine) lookup(ctx context.Context, text string) []domain.Suggestion {
	query := strings.TrimSpace(text)
	remote, err := e.source.SearchProducts(ctx, apiclient.SearchQuery{
		Q:     query,
		Limit: domain.MaxSuggestions,
		Page:  1,
	})
	if err == nil && len(remote) > 0 {
		suggestionRequests.WithLabelValues("remote").Inc()
		out := make([]domain.Suggestion, 0, min(len(remote), domain.MaxSuggestions))
		for _, p := range remote[:min(len(remote), domain.MaxSuggestions)] {
			out = append(out, domain.SuggestionFrom(p))
		}
		return out
	}

	if err != nil && ctx.Err() == nil {
		e.logger.DebugContext(ctx, "remote suggestions failed, using local scan",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
	}
	suggestionRequests.WithLabelValues("local").Inc()
	return domain.LocalSuggestions(query, e.pools()...)
}

// Await blocks until the suggestions for exactly text are applied. It
// reports false when text was superseded, the engine closed, or ctx ended.
func (e *SuggestionEngine) Await(ctx context.Context, text string) ([]domain.Suggestion, bool) {
	e.mu.Lock()
	if e.closed || e.input != text {
		e.mu.Unlock()
		return nil, false
	}
	if e.settled && e.appliedFor == text {
		out := cloneSuggestions(e.suggestions)
		e.mu.Unlock()
		return out, true
	}
	ch := make(chan []domain.Suggestion, 1)
	e.waiters = append(e.waiters, suggestionWaiter{text: text, ch: ch})
	e.mu.Unlock()

	select {
	case res, ok := <-ch:
		return res, ok
	case <-ctx.Done():
		return nil, false
	}
}

// Suggestions returns the applied suggestions and the text they answer.
func (e *SuggestionEngine) Suggestions() (string, []domain.Suggestion) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.settled || e.appliedFor != e.input {
		return e.input, nil
	}
	return e.appliedFor, cloneSuggestions(e.suggestions)
}

// Close stops the engine. Nothing is applied afterwards.
func (e *SuggestionEngine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.debounce.Stop()
	e.latest.Cancel()
	for _, w := range e.waiters {
		close(w.ch)
	}
	e.waiters = nil
}

// release hands results to every waiter for text. Caller holds mu.
func (e *SuggestionEngine) release(text string, results []domain.Suggestion) {
	kept := e.waiters[:0]
	for _, w := range e.waiters {
		if w.text == text {
			w.ch <- cloneSuggestions(results)
			continue
		}
		kept = append(kept, w)
	}
	e.waiters = kept
}

// releaseOthers fails every waiter whose text is not text. Caller holds mu.
func (e *SuggestionEngine) releaseOthers(text string) {
	kept := e.waiters[:0]
	for _, w := range e.waiters {
		if w.text != text {
			close(w.ch)
			continue
		}
		kept = append(kept, w)
	}
	e.waiters = kept
}

func cloneSuggestions(in []domain.Suggestion) []domain.Suggestion {
	out := make([]domain.Suggestion, len(in))
	copy(out, in)
	return out
}
