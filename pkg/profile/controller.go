package profile

import (
	"context"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/vango-dev/userpages/internal/errors"
	"github.com/vango-dev/userpages/pkg/action"
	"github.com/vango-dev/userpages/pkg/model"
	"github.com/vango-dev/userpages/pkg/resource"
)

// Messages shown after a save.
const (
	SuccessMessage  = "Profile updated successfully!"
	FailureFallback = "Update failed"
)

var (
	// ErrNotReady is returned by Submit when no profile is loaded.
	ErrNotReady = apperrors.New(apperrors.CodeNotReady)

	// ErrUnknownField is returned by EditField for fields other than name and email.
	ErrUnknownField = apperrors.New(apperrors.CodeUnknownField)

	// ErrSaveInFlight is returned by Submit while a save is running.
	ErrSaveInFlight = apperrors.New(apperrors.CodeSaveInFlight)
)

// LoadState is the load lifecycle of the profile.
type LoadState = resource.State[model.UserProfile]

// SaveState is the lifecycle of the last save.
type SaveState = action.State[model.ProfilePatch]

// Snapshot is a consistent view of the controller for rendering.
type Snapshot struct {
	Load LoadState `json:"load"`
	Save SaveState `json:"save"`
}

// Controller owns the profile draft and its load and save state.
type Controller struct {
	svc    model.ProfileService
	logger *slog.Logger

	retries    int
	retryDelay time.Duration

	res  *resource.Resource[model.UserProfile]
	save *action.Action[model.UserProfile, model.ProfilePatch]

	mu      sync.Mutex
	settled <-chan struct{}
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRetry retries a failed load count times, pausing delay between
// attempts, before the state settles to Error.
func WithRetry(count int, delay time.Duration) Option {
	return func(c *Controller) {
		c.retries = count
		c.retryDelay = delay
	}
}

// New creates a controller and starts the first load, so the initial
// observed state is Loading. ctx bounds the background loads.
func New(ctx context.Context, svc model.ProfileService, opts ...Option) *Controller {
	c := &Controller{
		svc:    svc,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.res = resource.New[model.UserProfile](svc.FetchUserProfile).
		Named("profile").
		WithLogger(c.logger).
		RetryOnError(c.retries, c.retryDelay)

	c.save = action.New(
		func(ctx context.Context, draft model.UserProfile) (model.ProfilePatch, error) {
			return svc.UpdateUserProfile(ctx, model.PatchOf(draft))
		},
		action.DropWhileRunning(),
		action.Named("profile:save"),
		action.SuccessMessage(SuccessMessage),
		action.FailureFallback(FailureFallback),
		action.WithLogger(c.logger),
	)

	c.StartLoadProfile(ctx)
	return c
}

// LoadProfile fetches the profile and blocks until the fetch settles. It is
// the only way out of the Error state and is safe to call repeatedly.
func (c *Controller) LoadProfile(ctx context.Context) LoadState {
	<-c.StartLoadProfile(ctx)
	return c.res.State()
}

// StartLoadProfile is the asynchronous form of LoadProfile.
func (c *Controller) StartLoadProfile(ctx context.Context) <-chan struct{} {
	done := c.res.Start(ctx)
	c.mu.Lock()
	c.settled = done
	c.mu.Unlock()
	return done
}

// Settled returns a channel closed when the most recent load settles.
func (c *Controller) Settled() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settled
}

// EditField replaces one field of the draft in place. It reports whether
// the edit was applied: nothing changes unless a profile is loaded. The
// service is not contacted.
func (c *Controller) EditField(field, value string) (bool, error) {
	var set func(*model.UserProfile)
	switch field {
	case model.FieldName:
		set = func(p *model.UserProfile) { p.Name = value }
	case model.FieldEmail:
		set = func(p *model.UserProfile) { p.Email = value }
	default:
		return false, ErrUnknownField
	}

	return c.res.Mutate(func(p model.UserProfile) model.UserProfile {
		set(&p)
		return p
	}), nil
}

// Submit saves the current draft and blocks until the save settles. Local
// edits are kept whatever the outcome, and the draft is never replaced by
// the service's echo.
func (c *Controller) Submit(ctx context.Context) (SaveState, error) {
	done, err := c.StartSubmit(ctx)
	if err != nil {
		return c.save.State(), err
	}
	<-done
	return c.save.State(), nil
}

// StartSubmit is the asynchronous form of Submit.
func (c *Controller) StartSubmit(ctx context.Context) (<-chan struct{}, error) {
	draft, ok := c.res.State().Get()
	if !ok {
		return nil, ErrNotReady
	}
	done := c.save.Start(ctx, draft)
	if done == nil {
		return nil, ErrSaveInFlight
	}
	return done, nil
}

// Snapshot returns the current load and save state.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{Load: c.res.State(), Save: c.save.State()}
}

// Subscribe calls fn with a fresh snapshot after every load or save
// transition. fn must not call back into the controller's mutating methods
// synchronously.
func (c *Controller) Subscribe(fn func(Snapshot)) (cancel func()) {
	cancelLoad := c.res.Subscribe(func(LoadState) { fn(c.Snapshot()) })
	cancelSave := c.save.Subscribe(func(SaveState) { fn(c.Snapshot()) })
	return func() {
		cancelLoad()
		cancelSave()
	}
}
