package mockapi

import (
	"context"
	"sync"

	apperrors "github.com/vango-dev/userpages/internal/errors"
	"github.com/vango-dev/userpages/pkg/model"
)

// DefaultProfile is the profile served by a fresh ProfileService.
var DefaultProfile = model.UserProfile{Name: "Juan Carlos", Email: "juan@example.com"}

// ProfileService is an in-memory model.ProfileService.
type ProfileService struct {
	fetch  *injector
	update *injector

	mu      sync.Mutex
	profile model.UserProfile
}

var _ model.ProfileService = (*ProfileService)(nil)

// NewProfileService creates a profile service holding initial. fetch and
// update configure the two operations independently.
func NewProfileService(initial model.UserProfile, fetch, update Options) *ProfileService {
	return &ProfileService{
		fetch:   newInjector(fetch),
		update:  newInjector(update),
		profile: initial,
	}
}

// NewDefaultProfileService uses the reference latency and failure rate.
func NewDefaultProfileService() *ProfileService {
	opts := Options{Latency: DefaultProfileLatency, FailureRate: DefaultProfileFailureRate}
	return NewProfileService(DefaultProfile, opts, opts)
}

// FetchUserProfile returns the held profile.
func (s *ProfileService) FetchUserProfile(ctx context.Context) (model.UserProfile, error) {
	if err := wait(ctx, s.fetch.latency); err != nil {
		return model.UserProfile{}, apperrors.New(apperrors.CodeFetchProfile).Wrap(err)
	}
	if s.fetch.shouldFail() {
		return model.UserProfile{}, apperrors.New(apperrors.CodeFetchProfile)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile, nil
}

// UpdateUserProfile applies patch to the held profile and echoes it back.
func (s *ProfileService) UpdateUserProfile(ctx context.Context, patch model.ProfilePatch) (model.ProfilePatch, error) {
	if err := wait(ctx, s.update.latency); err != nil {
		return model.ProfilePatch{}, apperrors.New(apperrors.CodeUpdateProfile).Wrap(err)
	}
	if s.update.shouldFail() {
		return model.ProfilePatch{}, apperrors.New(apperrors.CodeUpdateProfile)
	}

	s.mu.Lock()
	s.profile = patch.Apply(s.profile)
	s.mu.Unlock()
	return patch, nil
}

// Current returns the held profile without latency or failure injection.
func (s *ProfileService) Current() model.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}
