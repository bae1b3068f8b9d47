package resource

// Handler handles a specific resource state in Match.
type Handler[T, R any] interface {
	handle(State[T]) (R, bool)
}

// Match returns the result of the first handler that accepts s, or the zero
// R when none does.
func Match[T, R any](s State[T], handlers ...Handler[T, R]) R {
	for _, h := range handlers {
		if out, ok := h.handle(s); ok {
			return out
		}
	}
	var zero R
	return zero
}

// Handler implementations

type idleHandler[T, R any] struct {
	fn func() R
}

func (h idleHandler[T, R]) handle(s State[T]) (R, bool) {
	if s.Status == Idle {
		return h.fn(), true
	}
	var zero R
	return zero, false
}

type loadingHandler[T, R any] struct {
	fn func() R
}

func (h loadingHandler[T, R]) handle(s State[T]) (R, bool) {
	if s.Status == Loading {
		return h.fn(), true
	}
	var zero R
	return zero, false
}

type errorHandler[T, R any] struct {
	fn func(string) R
}

func (h errorHandler[T, R]) handle(s State[T]) (R, bool) {
	if s.Status == Error {
		return h.fn(s.Message), true
	}
	var zero R
	return zero, false
}

type readyHandler[T, R any] struct {
	fn func(T) R
}

func (h readyHandler[T, R]) handle(s State[T]) (R, bool) {
	if s.Status == Ready {
		return h.fn(s.Value), true
	}
	var zero R
	return zero, false
}

type loadingOrIdleHandler[T, R any] struct {
	fn func() R
}

func (h loadingOrIdleHandler[T, R]) handle(s State[T]) (R, bool) {
	if s.Status == Loading || s.Status == Idle {
		return h.fn(), true
	}
	var zero R
	return zero, false
}

// Constructors

// OnIdle handles the Idle state.
func OnIdle[T, R any](fn func() R) Handler[T, R] {
	return idleHandler[T, R]{fn: fn}
}

// OnLoading handles the Loading state.
func OnLoading[T, R any](fn func() R) Handler[T, R] {
	return loadingHandler[T, R]{fn: fn}
}

// OnError handles the Error state; fn receives the error message.
func OnError[T, R any](fn func(string) R) Handler[T, R] {
	return errorHandler[T, R]{fn: fn}
}

// OnReady handles the Ready state.
func OnReady[T, R any](fn func(T) R) Handler[T, R] {
	return readyHandler[T, R]{fn: fn}
}

// OnLoadingOrIdle handles both Loading and Idle states.
func OnLoadingOrIdle[T, R any](fn func() R) Handler[T, R] {
	return loadingOrIdleHandler[T, R]{fn: fn}
}
