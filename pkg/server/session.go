package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/vango-dev/userpages/pkg/action"
	"github.com/vango-dev/userpages/pkg/middleware"
	"github.com/vango-dev/userpages/pkg/model"
	"github.com/vango-dev/userpages/pkg/profile"
	"github.com/vango-dev/userpages/pkg/render"
	"github.com/vango-dev/userpages/pkg/toast"
	"github.com/vango-dev/userpages/pkg/userlist"
)

// Push channels.
const (
	ChannelProfile = "profile"
	ChannelUsers   = "users"
)

// maxPendingToasts caps the toasts queued for the next page render.
const maxPendingToasts = 8

// message is one WebSocket push.
type message struct {
	Event string `json:"event"`
	Key   string `json:"key,omitempty"`
	Data  any    `json:"data"`
}

// deps are the collaborators shared by every session.
type deps struct {
	profiles model.ProfileService
	users    model.UserDirectory
	perPage  int
	logger   *slog.Logger
	metrics  *middleware.Metrics

	profileOpts []profile.Option
	usersOpts   []userlist.Option
}

// Session is one browser's controllers and push clients.
type Session struct {
	ID string

	deps   *deps
	logger *slog.Logger

	// ctx bounds every operation the controllers run.
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	lastActive time.Time
	profile    *profile.Controller
	users      *userlist.Controller
	unsubs     []func()
	toasts     []toast.Toast
	clients    map[*client]struct{}
	lastSave   action.Status
	closed     bool
}

var _ toast.Emitter = (*Session)(nil)

func newSession(id string, d *deps) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ID:         id,
		deps:       d,
		logger:     d.logger.With("session_id", id),
		ctx:        ctx,
		cancel:     cancel,
		lastActive: time.Now(),
		clients:    make(map[*client]struct{}),
	}
}

// Context returns the session context.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Touch marks the session as active.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// idleSince reports whether the session has been idle since before t.
// Sessions with connected push clients are never idle.
func (s *Session) idleSince(t time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients) == 0 && s.lastActive.Before(t)
}

// Profile returns the profile controller, creating it and starting the
// first load on first use.
func (s *Session) Profile() *profile.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile != nil {
		return s.profile
	}

	opts := append([]profile.Option{profile.WithLogger(s.logger)}, s.deps.profileOpts...)
	c := profile.New(s.ctx, s.deps.profiles, opts...)
	s.profile = c
	s.unsubs = append(s.unsubs, c.Subscribe(s.onProfile))
	s.logger.Debug("profile controller created")
	return c
}

// Users returns the user list controller, creating it and starting the
// first load on first use.
func (s *Session) Users() *userlist.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users != nil {
		return s.users
	}

	opts := append([]userlist.Option{
		userlist.WithPerPage(s.deps.perPage),
		userlist.WithLogger(s.logger),
	}, s.deps.usersOpts...)
	c := userlist.New(s.ctx, s.deps.users, opts...)
	s.users = c
	s.unsubs = append(s.unsubs, c.Subscribe(s.onUsers))
	s.logger.Debug("user list controller created")
	return c
}

func (s *Session) onProfile(snap profile.Snapshot) {
	s.deps.metrics.RecordTransition(ChannelProfile, snap.Load.Status.String())

	s.mu.Lock()
	prev := s.lastSave
	s.lastSave = snap.Save.Status
	s.mu.Unlock()

	if prev != snap.Save.Status {
		s.deps.metrics.RecordTransition(ChannelProfile+":save", snap.Save.Status.String())
		if t, ok := toast.FromSave(snap.Save); ok {
			t.Show(s)
		}
	}
	s.broadcast(ChannelProfile, message{Event: "state", Key: render.ProfileKey(snap), Data: snap})
}

func (s *Session) onUsers(snap userlist.Snapshot) {
	s.deps.metrics.RecordTransition(ChannelUsers, snap.Load.Status.String())
	s.broadcast(ChannelUsers, message{Event: "state", Key: render.UsersKey(snap), Data: snap})
}

// stateMessage returns the current snapshot of channel as a state push.
func (s *Session) stateMessage(channel string) message {
	if channel == ChannelProfile {
		snap := s.Profile().Snapshot()
		return message{Event: "state", Key: render.ProfileKey(snap), Data: snap}
	}
	snap := s.Users().Snapshot()
	return message{Event: "state", Key: render.UsersKey(snap), Data: snap}
}

// Emit queues a toast for the next page render and pushes it to every
// connected client.
func (s *Session) Emit(event string, data any) {
	if event == toast.EventName {
		if t, ok := toastFromPayload(data); ok {
			s.mu.Lock()
			s.toasts = append(s.toasts, t)
			if n := len(s.toasts); n > maxPendingToasts {
				s.toasts = s.toasts[n-maxPendingToasts:]
			}
			s.mu.Unlock()
		}
	}
	s.broadcast("", message{Event: event, Data: data})
}

// TakeToasts returns and clears the pending toasts.
func (s *Session) TakeToasts() []toast.Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.toasts
	s.toasts = nil
	return out
}

func toastFromPayload(data any) (toast.Toast, bool) {
	m, ok := data.(map[string]any)
	if !ok {
		return toast.Toast{}, false
	}
	t := toast.Toast{}
	if v, ok := m["level"].(string); ok {
		t.Level = toast.Type(v)
	}
	t.Message, _ = m["message"].(string)
	t.Title, _ = m["title"].(string)
	return t, t.Message != ""
}

// broadcast sends msg to clients on channel, or to all clients when channel
// is empty.
func (s *Session) broadcast(channel string, msg message) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("push encode failed", "event", msg.Event, "error", err)
		return
	}

	s.mu.Lock()
	targets := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		if channel == "" || c.channel == channel {
			targets = append(targets, c)
		}
	}
	s.mu.Unlock()

	for _, c := range targets {
		if !c.enqueue(data) {
			s.logger.Warn("push client too slow, dropping", "channel", c.channel)
			s.deps.metrics.RecordWebSocketError("slow_client")
			c.close()
		}
	}
}

func (s *Session) addClient(c *client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.clients[c] = struct{}{}
	return true
}

func (s *Session) removeClient(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// ClientCount returns the number of connected push clients.
func (s *Session) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Close cancels in-flight operations and disconnects push clients. The
// controllers are unsubscribed first, so a cancelled load settling to Error
// afterwards is neither pushed nor turned into a toast.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsubs := s.unsubs
	s.unsubs = nil
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, fn := range unsubs {
		fn()
	}
	s.cancel()
	for _, c := range clients {
		c.close()
	}
}
