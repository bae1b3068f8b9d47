package server

import (
	"net/http"
	"time"
)

// SessionCookieName is the cookie that carries the session ID.
const SessionCookieName = "userpages_session"

// Config holds the HTTP server configuration.
type Config struct {
	// Address is the listen address (host:port).
	Address string

	// SessionTTL is how long an idle session keeps its controllers.
	// Default: 30 minutes.
	SessionTTL time.Duration

	// CleanupInterval is how often idle sessions are evicted.
	// Default: 1 minute.
	CleanupInterval time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 10 seconds.
	ShutdownTimeout time.Duration

	// ReadHeaderTimeout is passed to http.Server.
	ReadHeaderTimeout time.Duration

	// WriteWait bounds a single WebSocket write.
	WriteWait time.Duration

	// PingInterval is how often idle WebSocket clients are pinged.
	PingInterval time.Duration

	// SecureCookies marks the session cookie Secure on TLS requests.
	SecureCookies bool

	// StaticCache is the Cache-Control policy for /static/ assets.
	// Default: CacheProduction.
	StaticCache CacheControl

	// CheckOrigin validates WebSocket origins. Nil uses the gorilla default,
	// which requires the Origin host to match the request host.
	CheckOrigin func(r *http.Request) bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Address:           "localhost:8080",
		SessionTTL:        30 * time.Minute,
		CleanupInterval:   time.Minute,
		ShutdownTimeout:   10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteWait:         10 * time.Second,
		PingInterval:      30 * time.Second,
	}
}

// withDefaults fills zero durations.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Address == "" {
		c.Address = d.Address
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = d.SessionTTL
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = d.CleanupInterval
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	if c.ReadHeaderTimeout <= 0 {
		c.ReadHeaderTimeout = d.ReadHeaderTimeout
	}
	if c.WriteWait <= 0 {
		c.WriteWait = d.WriteWait
	}
	if c.PingInterval <= 0 {
		c.PingInterval = d.PingInterval
	}
	return c
}
