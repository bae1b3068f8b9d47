// Package vtest provides testing helpers for the userpages controllers and
// HTTP surface.
//
// # Scripted Collaborators
//
// ProfileService and UserDirectory are fakes whose responses can be queued
// and whose calls can be held open until a test releases them:
//
//	svc := vtest.NewProfileService(model.UserProfile{Name: "A"})
//	svc.FailNextFetch(errors.New("Failed to fetch user profile"))
//
//	gate := svc.HoldFetches()
//	c := profile.New(ctx, svc)
//	// ... assert Loading ...
//	close(gate)
//
// # Assertions
//
//	vtest.WaitDone(t, c.Settled())
//	vtest.ExpectContains(t, rec.Body.String(), "Loading profile...")
package vtest
