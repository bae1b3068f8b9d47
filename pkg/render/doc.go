// Package render renders the userpages HTML pages.
//
// Pages are html/template documents embedded in the binary. Each page
// template defines a "content" block that the shared layout wraps.
// Controller snapshots are turned into small view structs with
// resource.Match before execution, so templates branch on plain fields.
//
// # Usage
//
//	r, err := render.NewRenderer(render.RendererConfig{Title: "userpages"})
//	if err != nil {
//	    return err
//	}
//	err = r.RenderProfile(w, render.PageData{Live: "/ws/profile"}, ctrl.Snapshot())
//
// # Live Updates
//
// When PageData.Live is set the layout opens a WebSocket to that path and
// reloads the page when a pushed state key differs from the rendered one.
// ProfileKey and UsersKey compute those keys on the server side.
package render
