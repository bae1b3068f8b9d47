// Package server is the HTTP front end of userpages.
//
// Every browser gets a session, identified by the userpages_session
// cookie, that owns one profile controller and one user list controller.
// Controllers are created on first use and live until the session has been
// idle for the configured TTL. Their operations run on the session context,
// not the request context, so a POST can start a load and redirect
// immediately.
//
// # Routes
//
//	GET  /                 index page
//	GET  /profile          profile page
//	POST /profile          apply name/email and save
//	POST /profile/field    edit one field
//	POST /profile/retry    reload the profile
//	GET  /users?page=n     user list page, optionally jumping to page n
//	POST /users/prev       previous page
//	POST /users/next       next page
//	POST /users/retry      reload the current page
//	GET  /api/profile      profile snapshot as JSON
//	GET  /api/users        user list snapshot as JSON
//	GET  /ws/profile       push profile transitions
//	GET  /ws/users         push user list transitions
//	GET  /metrics          Prometheus metrics
//	GET  /healthz          liveness
//
// # Usage
//
//	srv := server.New(server.DefaultConfig(), profiles, users,
//	    server.WithLogger(logger),
//	    server.WithMetrics(metrics),
//	)
//	defer srv.Close()
//	err := srv.Run(ctx)
package server
