package resource

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/vango-dev/userpages/internal/errors"
)

var errNoFetcher = errors.New("resource: no fetcher")

// Fetcher loads the value of a Resource.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Resource manages asynchronous data fetching and state.
type Resource[T any] struct {
	fetcher Fetcher[T]

	// Options
	name       string
	logger     *slog.Logger
	retryCount int
	retryDelay time.Duration
	onSuccess  func(T)

	// notifyMu orders transitions with their notifications.
	notifyMu sync.Mutex

	mu      sync.Mutex
	state   State[T]
	fetchID uint64 // Latest issued load; older responses are dropped
	subs    map[uint64]func(State[T])
	nextSub uint64
}

// New creates a new Resource with the given default fetcher function.
// The resource starts Idle; call Load or Start to fetch. fetcher may be nil
// when every load passes its own through LoadWith or StartWith.
func New[T any](fetcher Fetcher[T]) *Resource[T] {
	return &Resource[T]{
		fetcher: fetcher,
		logger:  slog.Default(),
		state:   IdleState[T](),
		subs:    make(map[uint64]func(State[T])),
	}
}

// State methods

// State returns a snapshot of the current state.
func (r *Resource[T]) State() State[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Control methods

// Load sets the state to Loading, calls the fetcher and settles to Ready or
// Error. It blocks until the fetch settles and returns the state at that
// point. If a newer load was issued meanwhile, this call's result is
// discarded and the current state is returned.
func (r *Resource[T]) Load(ctx context.Context) State[T] {
	return r.LoadWith(ctx, r.fetcher)
}

// LoadWith is Load with a fetcher for this call only.
func (r *Resource[T]) LoadWith(ctx context.Context, fetcher Fetcher[T]) State[T] {
	id := r.begin()
	return r.run(ctx, id, fetcher)
}

// Start is the asynchronous form of Load. The Loading transition is applied
// before Start returns; the returned channel is closed once the fetch settles.
func (r *Resource[T]) Start(ctx context.Context) <-chan struct{} {
	return r.StartWith(ctx, r.fetcher)
}

// StartWith is Start with a fetcher for this call only.
func (r *Resource[T]) StartWith(ctx context.Context, fetcher Fetcher[T]) <-chan struct{} {
	id := r.begin()
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.run(ctx, id, fetcher)
	}()
	return done
}

// Mutate replaces the ready value in place. It is a no-op returning false in
// any state other than Ready; the state stays Ready.
func (r *Resource[T]) Mutate(fn func(T) T) bool {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()

	r.mu.Lock()
	if r.state.Status != Ready {
		r.mu.Unlock()
		return false
	}
	r.state.Value = fn(r.state.Value)
	snapshot, subs := r.state, r.subscribers()
	r.mu.Unlock()

	notify(subs, snapshot)
	return true
}

// Subscribe registers fn to be called with every state transition, in the
// order they are applied. fn must not call Load or Mutate synchronously.
func (r *Resource[T]) Subscribe(fn func(State[T])) (cancel func()) {
	r.mu.Lock()
	r.nextSub++
	id := r.nextSub
	r.subs[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

func (r *Resource[T]) begin() uint64 {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()

	r.mu.Lock()
	r.fetchID++
	id := r.fetchID
	r.state = LoadingState[T]()
	snapshot, subs := r.state, r.subscribers()
	r.mu.Unlock()

	r.logger.Debug("resource loading", "resource", r.name, "fetch_id", id)
	notify(subs, snapshot)
	return id
}

func (r *Resource[T]) run(ctx context.Context, id uint64, fetcher Fetcher[T]) State[T] {
	if fetcher == nil {
		return r.settle(id, *new(T), errNoFetcher)
	}

	var (
		result T
		err    error
	)

	maxAttempts := 1 + r.retryCount
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			if err = sleep(ctx, r.retryDelay); err != nil {
				break
			}
		}

		if r.superseded(id) {
			return r.State()
		}

		result, err = fetcher(ctx)
		if err == nil {
			break
		}
		r.logger.Warn("resource fetch failed",
			"resource", r.name,
			"fetch_id", id,
			"attempt", i+1,
			"error", err)
	}

	return r.settle(id, result, err)
}

func (r *Resource[T]) settle(id uint64, result T, err error) State[T] {
	r.notifyMu.Lock()

	r.mu.Lock()
	if r.fetchID != id {
		current := r.state
		r.mu.Unlock()
		r.notifyMu.Unlock()
		r.logger.Debug("resource dropped stale response", "resource", r.name, "fetch_id", id)
		return current
	}
	if err != nil {
		r.state = ErrorState[T](apperrors.Message(err, apperrors.UnknownMessage))
	} else {
		r.state = ReadyState(result)
	}
	snapshot, subs := r.state, r.subscribers()
	r.mu.Unlock()

	notify(subs, snapshot)
	r.notifyMu.Unlock()

	if err == nil && r.onSuccess != nil {
		r.onSuccess(result)
	}
	return snapshot
}

func (r *Resource[T]) superseded(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fetchID != id
}

// subscribers must be called with r.mu held.
func (r *Resource[T]) subscribers() []func(State[T]) {
	if len(r.subs) == 0 {
		return nil
	}
	out := make([]func(State[T]), 0, len(r.subs))
	for _, fn := range r.subs {
		out = append(out, fn)
	}
	return out
}

func notify[T any](subs []func(State[T]), s State[T]) {
	for _, fn := range subs {
		fn(s)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
