// =============================
// File: internal/swap/quote_tracker.go
// =============================
package swap

import (
	"sync"
	"sync/atomic"

	"swapkit/internal/token"
)

// QuoteTracker serializes concurrent quote refreshes with a monotonic request
// sequence. A new request invalidates any prior in-flight request: a slow,
// stale result arriving after a newer request began is discarded at
// completion time instead of overwriting the fresher one.
type QuoteTracker struct {
	seq    atomic.Uint64
	mu     sync.Mutex
	latest *Quote
}

func NewQuoteTracker() *QuoteTracker {
	return &QuoteTracker{}
}

// Begin registers a new quote request and returns its sequence number. The
// quote built from this request must carry the number in Quote.Seq.
func (t *QuoteTracker) Begin() uint64 {
	return t.seq.Add(1)
}

// Commit installs a completed quote as the current one. It reports false and
// leaves the cache untouched when a newer request has begun since this
// quote's Begin, meaning the result is stale and must be discarded.
func (t *QuoteTracker) Commit(q *Quote) bool {
	if q.Seq != t.seq.Load() {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.latest != nil && t.latest.Seq >= q.Seq {
		return false
	}
	t.latest = q
	return true
}

// Latest returns the most recent committed quote. Consumers compare the
// quote's input tag against current user input before applying it.
func (t *QuoteTracker) Latest() (*Quote, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest, t.latest != nil
}

// Matches reports whether a quote was produced for the given inputs.
func (q *Quote) Matches(tokenIn, tokenOut token.Token, amountIn token.Amount) bool {
	return q.TokenIn.Equal(tokenIn) &&
		q.TokenOut.Equal(tokenOut) &&
		q.AmountIn.Cmp(amountIn) == 0
}
