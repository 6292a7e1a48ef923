package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/exportcheck"
)

// Recover returns middleware that recovers from panics raised while a
// graph description is being inspected. Panics are converted to errors
// and logged with a stack trace.
//
// Recover is NOT part of the default chain: a panic from an inspected
// object signals that the object is already broken independent of
// export concerns, and by default it propagates unchanged. Add Recover
// explicitly when the dispatch layer prefers an error over a crash.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, c *exportcheck.Check, next Handler) (retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("export check panicked",
					slog.String("check_id", c.ID.String()),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				retErr = fmt.Errorf("panic in export check %s: %v", c.ID, r)
			}
		}()
		return next(ctx)
	}
}
