package action

import "log/slog"

// Option is an option for configuring an Action.
type Option interface {
	applyAction(a any) // Uses any to avoid generics in interface
}

// optionFunc is a helper for creating Option implementations.
type optionFunc func(a any)

func (f optionFunc) applyAction(a any) {
	f(a)
}

// =============================================================================
// Concurrency Policies
// =============================================================================

// DropWhileRunning returns an option that ignores Run while an operation is
// in progress.
func DropWhileRunning() Option {
	return optionFunc(func(a any) {
		if x, ok := a.(interface{ setPolicy(ConcurrencyPolicy) }); ok {
			x.setPolicy(PolicyDropWhileRunning)
		}
	})
}

// =============================================================================
// Messages and Observability
// =============================================================================

// Named sets the name used in logs.
func Named(name string) Option {
	return optionFunc(func(a any) {
		if x, ok := a.(interface{ setName(string) }); ok {
			x.setName(name)
		}
	})
}

// SuccessMessage sets the message carried by the Done state.
func SuccessMessage(msg string) Option {
	return optionFunc(func(a any) {
		if x, ok := a.(interface{ setSuccessMessage(string) }); ok {
			x.setSuccessMessage(msg)
		}
	})
}

// FailureFallback sets the Failed message used when the error has none.
func FailureFallback(msg string) Option {
	return optionFunc(func(a any) {
		if x, ok := a.(interface{ setFailureFallback(string) }); ok {
			x.setFailureFallback(msg)
		}
	})
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(a any) {
		if x, ok := a.(interface{ setLogger(*slog.Logger) }); ok {
			x.setLogger(l)
		}
	})
}
