// Package profile implements the controller behind the profile editor page.
//
// A Controller fetches the profile, exposes it as a local draft that can be
// edited field by field, and saves the draft through the profile service.
// Load state and save state are tracked independently:
//
//	c := profile.New(ctx, svc)
//	<-c.Settled()
//	c.EditField(model.FieldName, "X")
//	st, err := c.Submit(ctx)
package profile
