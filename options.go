package resolvercore

import (
	"context"
	"log/slog"
	"time"
)

// Options configures a ResolverSession. All fields have defaults per
// spec §6's closed configuration set.
type Options struct {
	// BatchWindow is the coordinator's micro-batch delay, tunable in
	// [1ms, 50ms]; the spec's target is 5ms. A window of 0 keeps the
	// system correct, just less efficient (spec §4.6).
	BatchWindow time.Duration

	// SchemaTTL is accepted and defaulted but not read by the session:
	// the schema cache lives only as long as its session, has no expiry,
	// and fetches each board's schema at most once.
	SchemaTTL time.Duration

	// DebugLog enables Debug-level logging of resolution decisions.
	DebugLog bool

	// CycleBreakNumericDefault is the scalar returned on cycle re-entry
	// under a numeric-aggregation parent. Spec defaults this to 0; it's
	// exposed here because the spec lists it as a session option.
	CycleBreakNumericDefault Scalar

	// Logger receives debug output when DebugLog is set. Defaults to
	// slog.Default().
	Logger *slog.Logger

	// Cancel, if set, is checked before each uncached resolution step
	// starts; once it is done, that step fails with Cancelled. It is not
	// passed into QueryClient calls or coordinator batches, which observe
	// only the per-call context.
	Cancel context.Context

	// Clock backs NOW()/TODAY(); defaults to the system clock.
	Clock Clock
}

// DefaultOptions returns the closed configuration set's defaults (spec §6).
func DefaultOptions() Options {
	return Options{
		BatchWindow:              5 * time.Millisecond,
		SchemaTTL:                300 * time.Second,
		DebugLog:                 false,
		CycleBreakNumericDefault: NumberScalar(0),
		Logger:                   slog.Default(),
		Clock:                    systemClock{},
	}
}

// withDefaults fills the fields a caller is unlikely to want to set
// explicitly to zero: logger, clock, schema TTL, and cycle-break default.
// BatchWindow is left as given — 0 is a legitimate, if less efficient,
// choice per spec §4.6, so it can't be distinguished from "unset".
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Logger == nil {
		o.Logger = d.Logger
	}
	if o.Clock == nil {
		o.Clock = d.Clock
	}
	if o.SchemaTTL == 0 {
		o.SchemaTTL = d.SchemaTTL
	}
	if o.CycleBreakNumericDefault.Kind() == ScalarEmpty {
		o.CycleBreakNumericDefault = d.CycleBreakNumericDefault
	}
	return o
}
