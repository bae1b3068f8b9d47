package resource

import (
	"log/slog"
	"time"
)

// Named sets the name used in logs.
func (r *Resource[T]) Named(name string) *Resource[T] {
	r.mu.Lock()
	r.name = name
	r.mu.Unlock()
	return r
}

// WithLogger sets the structured logger. A nil logger is ignored.
func (r *Resource[T]) WithLogger(logger *slog.Logger) *Resource[T] {
	if logger == nil {
		return r
	}
	r.mu.Lock()
	r.logger = logger
	r.mu.Unlock()
	return r
}

// RetryOnError sets the number of retries and delay between them.
// The default is no retry: recovery from Error is a manual Load.
func (r *Resource[T]) RetryOnError(count int, delay time.Duration) *Resource[T] {
	if count < 0 {
		count = 0
	}
	r.mu.Lock()
	r.retryCount = count
	r.retryDelay = delay
	r.mu.Unlock()
	return r
}

// OnSuccess registers a callback run with the value of every load that
// settles Ready. Stale responses do not reach it.
func (r *Resource[T]) OnSuccess(fn func(T)) *Resource[T] {
	r.mu.Lock()
	r.onSuccess = fn
	r.mu.Unlock()
	return r
}
