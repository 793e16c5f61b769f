package dirsize

import (
	"sync"
	"sync/atomic"
)

// Token is a cooperative cancellation flag shared between the goroutine that
// requests cancellation and the one performing the traversal.
// The zero value is not usable; create tokens with NewToken.
type Token struct {
	cancelled atomic.Bool
	released  atomic.Bool
	once      sync.Once
	done      chan struct{}
}

// NewToken returns a token that is not cancelled.
func NewToken() *Token {
	return &Token{done: make(chan struct{})}
}

// Cancel requests cancellation. It is safe to call from any goroutine, any number of times.
func (t *Token) Cancel() {
	t.cancelled.Store(true)
	t.once.Do(func() { close(t.done) })
}

// Cancelled reports whether Cancel has been called. It never blocks.
func (t *Token) Cancelled() bool {
	return t.cancelled.Load()
}

// Done returns a channel closed on the first Cancel.
func (t *Token) Done() <-chan struct{} {
	return t.done
}

// Release marks the token as no longer in use. Safe whether or not it was
// cancelled, and safe to call more than once.
// A released token still answers Cancelled truthfully.
func (t *Token) Release() {
	t.released.Store(true)
}

// Released reports whether Release has been called.
func (t *Token) Released() bool {
	return t.released.Load()
}
