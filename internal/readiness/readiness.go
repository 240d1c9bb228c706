// Package readiness provides an explicit "store is initialized" token.
//
// A Token is created by whoever owns startup and handed to the components
// that must not serve requests before startup finishes. Nothing about it is
// global, so independent instances (tests, multiple databases) never share
// state.
package readiness

import (
	"context"
	"sync"
)

// Token resolves exactly once, either ready or failed.
type Token struct {
	done chan struct{}
	once sync.Once
	err  error
}

// New creates an unresolved token.
func New() *Token {
	return &Token{done: make(chan struct{})}
}

// Resolved returns a token that is already ready.
func Resolved() *Token {
	t := New()
	t.MarkReady()
	return t
}

// MarkReady resolves the token successfully. Later calls are no-ops.
func (t *Token) MarkReady() {
	t.resolve(nil)
}

// Fail resolves the token with err. Later calls are no-ops.
func (t *Token) Fail(err error) {
	t.resolve(err)
}

func (t *Token) resolve(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}

// Done is closed once the token resolves.
func (t *Token) Done() <-chan struct{} {
	return t.done
}

// Ready reports whether the token resolved successfully.
func (t *Token) Ready() bool {
	select {
	case <-t.done:
		return t.err == nil
	default:
		return false
	}
}

// Wait blocks until the token resolves or ctx is done.
// Returns the failure the token resolved with, if any.
// A nil token is always ready.
func (t *Token) Wait(ctx context.Context) error {
	if t == nil {
		return nil
	}
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
