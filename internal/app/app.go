// Package app wires configuration into loggers and collaborators.
package app

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/vango-dev/userpages/internal/config"
	"github.com/vango-dev/userpages/internal/mockapi"
)

// ParseLevel maps a config level name onto a slog level. Unknown names are
// info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process logger: colored console output for the
// text format, JSON lines otherwise.
func NewLogger(cfg config.LogConfig, w io.Writer, color bool) *slog.Logger {
	level := ParseLevel(cfg.Level)
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    !color,
	}))
}

// Backends are the mock collaborators described by a config.
type Backends struct {
	Profiles *mockapi.ProfileService
	Users    *mockapi.UserDirectory
}

// NewBackends builds the mock collaborators. A non-zero cfg.Seed makes
// failure injection reproducible; each injector gets its own stream.
func NewBackends(cfg *config.Config) Backends {
	fetch := mockapi.Options{
		Latency:     cfg.Profile.Latency.Std(),
		FailureRate: cfg.ProfileFailureRate(),
	}
	update := fetch
	users := mockapi.Options{
		Latency:     cfg.Users.Latency.Std(),
		FailureRate: cfg.UsersFailureRate(),
	}
	if cfg.Seed != 0 {
		fetch.Rand = mockapi.NewRand(cfg.Seed)
		update.Rand = mockapi.NewRand(cfg.Seed + 1)
		users.Rand = mockapi.NewRand(cfg.Seed + 2)
	}

	return Backends{
		Profiles: mockapi.NewProfileService(cfg.SeedProfile(), fetch, update),
		Users:    mockapi.NewUserDirectory(mockapi.GenerateUsers(cfg.Users.Count), users),
	}
}
