package server

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/userpages/pkg/middleware"
	"github.com/vango-dev/userpages/pkg/model"
	"github.com/vango-dev/userpages/pkg/profile"
	"github.com/vango-dev/userpages/pkg/render"
	"github.com/vango-dev/userpages/pkg/userlist"
)

// Server serves the userpages front end.
type Server struct {
	config   Config
	logger   *slog.Logger
	metrics  *middleware.Metrics
	gatherer prometheus.Gatherer
	renderer *render.Renderer
	otelOpts []middleware.OTelOption
	static   fs.FS

	profileOpts []profile.Option
	usersOpts   []userlist.Option

	sessions *Sessions
	upgrader websocket.Upgrader
	handler  http.Handler

	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics enables request and state metrics.
func WithMetrics(m *middleware.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithGatherer sets the registry served on /metrics.
// Default: prometheus.DefaultGatherer
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		if g != nil {
			s.gatherer = g
		}
	}
}

// WithRenderer sets the page renderer.
func WithRenderer(r *render.Renderer) Option {
	return func(s *Server) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithStatic replaces the assets served below StaticPrefix.
// Default: render.Static()
func WithStatic(fsys fs.FS) Option {
	return func(s *Server) {
		if fsys != nil {
			s.static = fsys
		}
	}
}

// WithTracing configures the request tracing middleware.
func WithTracing(opts ...middleware.OTelOption) Option {
	return func(s *Server) {
		s.otelOpts = append(s.otelOpts, opts...)
	}
}

// WithProfileOptions applies opts to every session's profile controller.
func WithProfileOptions(opts ...profile.Option) Option {
	return func(s *Server) {
		s.profileOpts = append(s.profileOpts, opts...)
	}
}

// WithUserListOptions applies opts to every session's user list controller.
func WithUserListOptions(opts ...userlist.Option) Option {
	return func(s *Server) {
		s.usersOpts = append(s.usersOpts, opts...)
	}
}

// New creates a Server over the shared collaborators. perPage is the page
// size of every user list; values below 1 use the default.
func New(config Config, profiles model.ProfileService, users model.UserDirectory, perPage int, opts ...Option) *Server {
	config = config.withDefaults()
	s := &Server{
		config:   config,
		logger:   slog.Default(),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.renderer == nil {
		s.renderer = render.MustNewRenderer(render.RendererConfig{})
	}
	if s.static == nil {
		s.static = render.Static()
	}
	if perPage < 1 {
		perPage = model.DefaultPerPage
	}

	s.sessions = newSessions(&deps{
		profiles: profiles,
		users:    users,
		perPage:  perPage,
		logger:   s.logger,
		metrics:  s.metrics,

		profileOpts: s.profileOpts,
		usersOpts:   s.usersOpts,
	}, config.SessionTTL, config.CleanupInterval)

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     config.CheckOrigin,
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.OpenTelemetry(append([]middleware.OTelOption{
		middleware.WithRequestFilter(func(r *http.Request) bool {
			return r.URL.Path != "/healthz" && r.URL.Path != "/metrics" &&
				!strings.HasPrefix(r.URL.Path, StaticPrefix)
		}),
	}, s.otelOpts...)...))
	r.Use(s.metrics.HTTP)
	r.Use(s.requestLogger)
	r.Use(chimw.Recoverer)

	r.Get("/", s.handleIndex)

	r.Route("/profile", func(r chi.Router) {
		r.Get("/", s.handleProfilePage)
		r.Post("/", s.handleProfileSubmit)
		r.Post("/field", s.handleProfileField)
		r.Post("/retry", s.handleProfileRetry)
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/", s.handleUsersPage)
		r.Post("/prev", s.handleUsersNav(navPrev))
		r.Post("/next", s.handleUsersNav(navNext))
		r.Post("/retry", s.handleUsersNav(navRetry))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/profile", s.handleProfileAPI)
		r.Get("/users", s.handleUsersAPI)
	})

	r.Get(StaticPrefix+"*", s.handleStatic)
	r.Get("/ws/{channel}", s.handleWebSocket)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", s.handleHealth)

	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Sessions returns the session registry.
func (s *Server) Sessions() *Sessions {
	return s.sessions
}

// Run listens on the configured address and serves until ctx is done, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is like Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown closes every session, then gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.sessions.Close()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Close releases the sessions without touching the HTTP server. It is
// meant for handlers mounted with httptest.
func (s *Server) Close() {
	s.sessions.Close()
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()))
	})
}
