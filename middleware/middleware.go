// Package middleware provides composable middleware around validation
// checks. Middleware wraps the scan synchronously and can observe or
// modify execution (log, trace, record metrics, recover from panics in
// external graph descriptions).
package middleware

import (
	"context"

	"github.com/xraph/exportcheck"
)

// Handler is the terminal function that executes the scan.
type Handler func(ctx context.Context) error

// Middleware wraps a Handler with cross-cutting logic. It receives the
// current context, the check being executed, and the next handler to
// call. Middleware MUST call next to continue the chain (unless
// short-circuiting on error).
type Middleware func(ctx context.Context, c *exportcheck.Check, next Handler) error

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the
// list is the outermost wrapper.
//
// Example: Chain(tracing, logging) executes as:
//
//	tracing → logging → scan
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, c *exportcheck.Check, next Handler) error {
		// Build the chain from the end backwards.
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) error {
				return mw(ctx, c, prev)
			}
		}
		return h(ctx)
	}
}
