// Package audit bridges export check findings to an audit trail
// backend. Each finding and each fatal detection is recorded as a
// structured event through a caller-supplied Recorder.
//
// Warn-mode scans over handle-heavy graphs can produce floods of
// findings on a hot dispatch path, so the extension carries a
// token-bucket rate limiter; events over the budget are counted and
// dropped rather than blocking the check.
package audit

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/xraph/exportcheck"
	"github.com/xraph/exportcheck/ext"
)

// Compile-time interface checks.
var (
	_ ext.Extension       = (*Extension)(nil)
	_ ext.FindingDetected = (*Extension)(nil)
	_ ext.CheckFailed     = (*Extension)(nil)
	_ ext.CheckCompleted  = (*Extension)(nil)
)

// Action constants for recorded events.
const (
	ActionFindingDetected = "exportcheck.finding.detected"
	ActionCheckFailed     = "exportcheck.check.failed"
	ActionCheckCompleted  = "exportcheck.check.completed"
)

// Severity constants.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Event is one audit trail entry. It mirrors common audit backend
// schemas without importing one; callers bridge with a RecorderFunc.
type Event struct {
	Action   string `json:"action"`
	CheckID  string `json:"check_id"`
	Severity string `json:"severity"`

	// Finding details, set for finding and failure events.
	Variable string `json:"variable,omitempty"`
	Path     string `json:"path,omitempty"`
	TypeTag  string `json:"type_tag,omitempty"`
	Kind     string `json:"kind,omitempty"`

	// Findings is the aggregate count, set for completion events.
	Findings int `json:"findings,omitempty"`
}

// Recorder is the interface audit backends must implement.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *Event) error
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *Event) error

func (f RecorderFunc) Record(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// Extension records check findings through a Recorder.
type Extension struct {
	recorder Recorder
	limiter  *rate.Limiter
	logger   *slog.Logger
	dropped  atomic.Int64
}

// Option configures the audit extension.
type Option func(*Extension)

// WithLogger sets the logger used for recorder errors.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extension) { e.logger = l }
}

// WithRateLimit bounds sustained event recording to perSec events per
// second with the given burst. Zero perSec disables limiting.
func WithRateLimit(perSec float64, burst int) Option {
	return func(e *Extension) {
		if perSec <= 0 {
			e.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		e.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

// New creates an audit extension that emits events through r.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements ext.Extension.
func (e *Extension) Name() string { return "audit" }

// Dropped returns the number of events discarded by the rate limiter.
func (e *Extension) Dropped() int64 { return e.dropped.Load() }

// OnFindingDetected implements ext.FindingDetected.
func (e *Extension) OnFindingDetected(ctx context.Context, c *exportcheck.Check, f exportcheck.Finding) error {
	return e.record(ctx, &Event{
		Action:   ActionFindingDetected,
		CheckID:  c.ID.String(),
		Severity: SeverityWarning,
		Variable: f.Variable,
		Path:     strings.Join(f.Path, "."),
		TypeTag:  f.TypeTag,
		Kind:     string(f.Kind),
	})
}

// OnCheckFailed implements ext.CheckFailed.
func (e *Extension) OnCheckFailed(ctx context.Context, c *exportcheck.Check, err *exportcheck.OpaqueReferenceError) error {
	return e.record(ctx, &Event{
		Action:   ActionCheckFailed,
		CheckID:  c.ID.String(),
		Severity: SeverityCritical,
		Variable: err.Variable,
		Path:     strings.Join(err.Path, "."),
		TypeTag:  err.TypeTag,
		Kind:     string(err.Kind),
	})
}

// OnCheckCompleted implements ext.CheckCompleted. Clean checks are not
// recorded; only warn-mode completions that carried findings.
func (e *Extension) OnCheckCompleted(ctx context.Context, c *exportcheck.Check, res exportcheck.Result, _ time.Duration) error {
	if len(res.Findings) == 0 {
		return nil
	}
	return e.record(ctx, &Event{
		Action:   ActionCheckCompleted,
		CheckID:  c.ID.String(),
		Severity: SeverityInfo,
		Findings: len(res.Findings),
	})
}

func (e *Extension) record(ctx context.Context, evt *Event) error {
	if e.limiter != nil && !e.limiter.Allow() {
		e.dropped.Add(1)
		return nil
	}
	if err := e.recorder.Record(ctx, evt); err != nil {
		// Recorder failures must not affect the check outcome; the ext
		// registry logs returned errors, so just pass it up.
		return err
	}
	return nil
}
