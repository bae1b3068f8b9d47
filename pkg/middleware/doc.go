// Package middleware provides HTTP middleware and collaborator
// instrumentation for userpages.
//
// This package includes:
//   - OpenTelemetry tracing middleware for the HTTP router
//   - Prometheus metrics middleware and recorders
//   - Decorators that trace and time ProfileService and UserDirectory calls
//
// # OpenTelemetry Middleware
//
// The OpenTelemetry middleware starts a server span for every request and
// extracts the incoming trace context from the request headers.
//
//	r := chi.NewRouter()
//	r.Use(middleware.OpenTelemetry(
//	    middleware.WithTracerName("userpages"),
//	    middleware.WithRequestFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/healthz"
//	    }),
//	))
//
// The tracer uses the global provider installed by internal/telemetry.
// Without a provider, spans are non-recording and cost almost nothing.
//
// # Prometheus Metrics
//
//	m := middleware.NewMetrics(middleware.WithNamespace("userpages"))
//	r.Use(m.HTTP)
//	r.Handle("/metrics", promhttp.Handler())
//
// Metrics collected:
//   - userpages_http_requests_total{route,method,code}
//   - userpages_http_request_duration_seconds{route}
//   - userpages_collaborator_calls_total{operation,status}
//   - userpages_collaborator_call_duration_seconds{operation}
//   - userpages_collaborator_errors_total{operation,error_type}
//   - userpages_active_sessions
//   - userpages_websocket_clients
//   - userpages_websocket_errors_total{type}
//   - userpages_state_transitions_total{controller,status}
//
// # Collaborator Instrumentation
//
//	inst := middleware.NewInstrumenter(m, "userpages")
//	svc := inst.ProfileService(mockapi.NewDefaultProfileService())
//	dir := inst.UserDirectory(mockapi.NewDefaultUserDirectory())
package middleware
