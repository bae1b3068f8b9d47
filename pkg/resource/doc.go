// Package resource provides async data loading for the userpages views.
//
// A Resource owns the load lifecycle of a single value:
//
//   - Idle, Loading, Error and Ready states, exactly one at a time
//   - Sequence-tagged loads: a response that settles after a newer load
//     was issued is dropped
//   - In-place mutation of a ready value
//   - Observers notified of every transition in order
//   - Pattern matching for rendering
//
// Basic Usage:
//
//	profile := resource.New(func(ctx context.Context) (model.UserProfile, error) {
//	    return svc.FetchUserProfile(ctx)
//	})
//
//	profile.Load(ctx)
//
//	html := resource.Match(profile.State(),
//	    resource.OnLoading[model.UserProfile](func() string { return "Loading profile..." }),
//	    resource.OnError[model.UserProfile](func(msg string) string { return "Error: " + msg }),
//	    resource.OnReady(func(p model.UserProfile) string { return p.Name }),
//	)
package resource
