package vtest

import (
	"context"
	"sync"

	"github.com/vango-dev/userpages/pkg/model"
)

// ProfileService is a scripted model.ProfileService.
type ProfileService struct {
	mu          sync.Mutex
	profile     model.UserProfile
	fetchErrs   []error
	updateErrs  []error
	echo        *model.ProfilePatch
	fetchGate   chan struct{}
	updateGate  chan struct{}
	fetchCalls  int
	updateCalls []model.ProfilePatch
}

var _ model.ProfileService = (*ProfileService)(nil)

// NewProfileService returns a fake serving p.
func NewProfileService(p model.UserProfile) *ProfileService {
	return &ProfileService{profile: p}
}

// FailNextFetch queues an error for the next fetch.
func (s *ProfileService) FailNextFetch(err error) {
	s.mu.Lock()
	s.fetchErrs = append(s.fetchErrs, err)
	s.mu.Unlock()
}

// FailNextUpdate queues an error for the next update.
func (s *ProfileService) FailNextUpdate(err error) {
	s.mu.Lock()
	s.updateErrs = append(s.updateErrs, err)
	s.mu.Unlock()
}

// EchoWith makes updates return patch instead of echoing the request.
func (s *ProfileService) EchoWith(patch model.ProfilePatch) {
	s.mu.Lock()
	s.echo = &patch
	s.mu.Unlock()
}

// SetProfile replaces the served profile.
func (s *ProfileService) SetProfile(p model.UserProfile) {
	s.mu.Lock()
	s.profile = p
	s.mu.Unlock()
}

// HoldFetches blocks subsequent fetches until the returned channel is closed.
func (s *ProfileService) HoldFetches() chan struct{} {
	gate := make(chan struct{})
	s.mu.Lock()
	s.fetchGate = gate
	s.mu.Unlock()
	return gate
}

// HoldUpdates blocks subsequent updates until the returned channel is closed.
func (s *ProfileService) HoldUpdates() chan struct{} {
	gate := make(chan struct{})
	s.mu.Lock()
	s.updateGate = gate
	s.mu.Unlock()
	return gate
}

// FetchCalls returns how many fetches were made.
func (s *ProfileService) FetchCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchCalls
}

// UpdateCalls returns the patches passed to UpdateUserProfile.
func (s *ProfileService) UpdateCalls() []model.ProfilePatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ProfilePatch(nil), s.updateCalls...)
}

func (s *ProfileService) FetchUserProfile(ctx context.Context) (model.UserProfile, error) {
	s.mu.Lock()
	s.fetchCalls++
	gate := s.fetchGate
	s.mu.Unlock()

	if err := hold(ctx, gate); err != nil {
		return model.UserProfile{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.fetchErrs) > 0 {
		err := s.fetchErrs[0]
		s.fetchErrs = s.fetchErrs[1:]
		return model.UserProfile{}, err
	}
	return s.profile, nil
}

func (s *ProfileService) UpdateUserProfile(ctx context.Context, patch model.ProfilePatch) (model.ProfilePatch, error) {
	s.mu.Lock()
	s.updateCalls = append(s.updateCalls, patch)
	gate := s.updateGate
	s.mu.Unlock()

	if err := hold(ctx, gate); err != nil {
		return model.ProfilePatch{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.updateErrs) > 0 {
		err := s.updateErrs[0]
		s.updateErrs = s.updateErrs[1:]
		return model.ProfilePatch{}, err
	}
	s.profile = patch.Apply(s.profile)
	if s.echo != nil {
		return *s.echo, nil
	}
	return patch, nil
}

// UserDirectory is a scripted model.UserDirectory over a fixed user set.
type UserDirectory struct {
	mu    sync.Mutex
	users []model.User
	errs  []error
	gate  chan struct{}
	calls [][2]int
}

var _ model.UserDirectory = (*UserDirectory)(nil)

// NewUserDirectory returns a fake serving users.
func NewUserDirectory(users []model.User) *UserDirectory {
	return &UserDirectory{users: users}
}

// FailNext queues an error for the next fetch.
func (d *UserDirectory) FailNext(err error) {
	d.mu.Lock()
	d.errs = append(d.errs, err)
	d.mu.Unlock()
}

// Hold blocks subsequent fetches until the returned channel is closed.
func (d *UserDirectory) Hold() chan struct{} {
	gate := make(chan struct{})
	d.mu.Lock()
	d.gate = gate
	d.mu.Unlock()
	return gate
}

// Release stops holding new fetches. Already held fetches stay blocked on
// their own gate.
func (d *UserDirectory) Release() {
	d.mu.Lock()
	d.gate = nil
	d.mu.Unlock()
}

// Calls returns the (page, perPage) arguments of every fetch.
func (d *UserDirectory) Calls() [][2]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][2]int(nil), d.calls...)
}

func (d *UserDirectory) FetchUsers(ctx context.Context, page, perPage int) (model.UserPage, error) {
	d.mu.Lock()
	d.calls = append(d.calls, [2]int{page, perPage})
	gate := d.gate
	d.mu.Unlock()

	if err := hold(ctx, gate); err != nil {
		return model.UserPage{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.errs) > 0 {
		err := d.errs[0]
		d.errs = d.errs[1:]
		return model.UserPage{}, err
	}

	total := len(d.users)
	start := min(max(page-1, 0)*perPage, total)
	end := min(start+perPage, total)
	items := append([]model.User(nil), d.users[start:end]...)
	return model.UserPage{Items: items, TotalCount: total}, nil
}

func hold(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
