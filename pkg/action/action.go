package action

import (
	"context"
	"log/slog"
	"sync"

	apperrors "github.com/vango-dev/userpages/internal/errors"
)

// Status is the tag of a State.
type Status int

const (
	// Idle is the initial status before any Run call.
	Idle Status = iota

	// Saving indicates the operation is in progress.
	Saving

	// Done indicates the last operation completed successfully.
	Done

	// Failed indicates the last operation failed.
	Failed
)

// String returns a human-readable name for the status.
func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Saving:
		return "saving"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// State is a tagged variant: Idle | Saving | Done(Message) | Failed(Message).
// Result holds the last successful result in the Done state.
type State[R any] struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Result  R      `json:"-"`
}

// ConcurrencyPolicy defines how an Action handles concurrent Run calls.
type ConcurrencyPolicy int

const (
	// PolicyCancelLatest cancels prior in-flight work when Run is called again.
	// This is the default policy.
	PolicyCancelLatest ConcurrencyPolicy = iota

	// PolicyDropWhileRunning ignores Run calls while work is in progress.
	PolicyDropWhileRunning
)

// Action is the structured primitive for async writes.
type Action[A any, R any] struct {
	do func(ctx context.Context, arg A) (R, error)

	// Options
	policy          ConcurrencyPolicy
	name            string
	successMessage  string
	failureFallback string
	logger          *slog.Logger

	notifyMu sync.Mutex

	mu      sync.Mutex
	state   State[R]
	seq     uint64
	cancel  context.CancelFunc
	subs    map[uint64]func(State[R])
	nextSub uint64
}

// New creates a new Action with the given work function.
//
// By default a new Run cancels prior in-flight work.
//
// Options:
//   - DropWhileRunning() - Ignore Run while Saving
//   - Named(name) - Name used in logs
//   - SuccessMessage(msg) - Message carried by Done
//   - FailureFallback(msg) - Message for Failed when the error has none
//   - WithLogger(l) - Structured logger
func New[A any, R any](do func(ctx context.Context, arg A) (R, error), opts ...Option) *Action[A, R] {
	a := &Action[A, R]{
		do:              do,
		policy:          PolicyCancelLatest,
		successMessage:  "Saved",
		failureFallback: apperrors.UnknownMessage,
		logger:          slog.Default(),
		subs:            make(map[uint64]func(State[R])),
	}
	for _, opt := range opts {
		opt.applyAction(a)
	}
	return a
}

// Run performs the operation with arg and blocks until it settles.
// It returns the state at that point and whether the call was accepted.
// Under DropWhileRunning a call made while Saving is rejected and the
// current state is returned unchanged.
func (a *Action[A, R]) Run(ctx context.Context, arg A) (State[R], bool) {
	workCtx, seq, ok := a.begin(ctx)
	if !ok {
		return a.State(), false
	}
	return a.work(workCtx, seq, arg), true
}

// Start is the asynchronous form of Run. The Saving transition is applied
// before Start returns. The channel is closed once the call settles; it is
// nil when the call was rejected.
func (a *Action[A, R]) Start(ctx context.Context, arg A) <-chan struct{} {
	workCtx, seq, ok := a.begin(ctx)
	if !ok {
		return nil
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.work(workCtx, seq, arg)
	}()
	return done
}

func (a *Action[A, R]) begin(ctx context.Context) (context.Context, uint64, bool) {
	a.notifyMu.Lock()
	defer a.notifyMu.Unlock()

	a.mu.Lock()
	if a.policy == PolicyDropWhileRunning && a.state.Status == Saving {
		a.mu.Unlock()
		a.logger.Debug("action dropped while saving", "action", a.name)
		return nil, 0, false
	}
	if a.cancel != nil {
		a.cancel()
	}
	workCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.seq++
	seq := a.seq
	a.state = State[R]{Status: Saving}
	snapshot, subs := a.state, a.subscribers()
	a.mu.Unlock()

	notify(subs, snapshot)
	return workCtx, seq, true
}

func (a *Action[A, R]) work(ctx context.Context, seq uint64, arg A) State[R] {
	result, err := a.do(ctx, arg)

	a.notifyMu.Lock()
	a.mu.Lock()
	if a.seq != seq {
		current := a.state
		a.mu.Unlock()
		a.notifyMu.Unlock()
		a.logger.Debug("action dropped stale result", "action", a.name, "seq", seq)
		return current
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if err != nil {
		a.state = State[R]{Status: Failed, Message: apperrors.Message(err, a.failureFallback)}
	} else {
		a.state = State[R]{Status: Done, Message: a.successMessage, Result: result}
	}
	snapshot, subs := a.state, a.subscribers()
	a.mu.Unlock()
	notify(subs, snapshot)
	a.notifyMu.Unlock()

	if err != nil {
		a.logger.Warn("action failed", "action", a.name, "seq", seq, "error", err)
	}
	return snapshot
}

// State returns a snapshot of the current state.
func (a *Action[A, R]) State() State[R] {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Subscribe registers fn to be called with every state transition.
// fn must not call Run synchronously.
func (a *Action[A, R]) Subscribe(fn func(State[R])) (cancel func()) {
	a.mu.Lock()
	a.nextSub++
	id := a.nextSub
	a.subs[id] = fn
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.subs, id)
		a.mu.Unlock()
	}
}

// subscribers must be called with a.mu held.
func (a *Action[A, R]) subscribers() []func(State[R]) {
	if len(a.subs) == 0 {
		return nil
	}
	out := make([]func(State[R]), 0, len(a.subs))
	for _, fn := range a.subs {
		out = append(out, fn)
	}
	return out
}

func notify[R any](subs []func(State[R]), s State[R]) {
	for _, fn := range subs {
		fn(s)
	}
}

// =============================================================================
// Option setters (called by Option implementations)
// =============================================================================

func (a *Action[A, R]) setPolicy(p ConcurrencyPolicy) {
	a.policy = p
}

func (a *Action[A, R]) setName(name string) {
	a.name = name
}

func (a *Action[A, R]) setSuccessMessage(msg string) {
	a.successMessage = msg
}

func (a *Action[A, R]) setFailureFallback(msg string) {
	a.failureFallback = msg
}

func (a *Action[A, R]) setLogger(l *slog.Logger) {
	if l != nil {
		a.logger = l
	}
}
