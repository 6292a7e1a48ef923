package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/xraph/exportcheck"
)

// Logging returns middleware that logs check start and completion.
// A fatal detection logs at Error with the diagnostic message; any
// other failure (a broken graph description, for instance) logs as-is.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, c *exportcheck.Check, next Handler) error {
		attrs := []any{
			slog.String("check_id", c.ID.String()),
			slog.String("policy", c.Policy.String()),
			slog.Int("variables", len(c.Variables)),
		}
		if c.Expr != "" {
			attrs = append(attrs, slog.String("expr", c.Expr))
		}
		logger.Debug("export check started", attrs...)

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			level := slog.LevelError
			if !errors.Is(err, exportcheck.ErrOpaqueReference) {
				// Unrelated fault of an inspected object; the error is
				// propagated unchanged, just note it on the way out.
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "export check failed",
				slog.String("check_id", c.ID.String()),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Debug("export check completed",
				slog.String("check_id", c.ID.String()),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}
