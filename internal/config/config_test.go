package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/userpages/internal/errors"
)

func TestNewDefaults(t *testing.T) {
	cfg := New()

	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Profile.Latency.Std() != time.Second {
		t.Errorf("Profile.Latency = %v, want 1s", cfg.Profile.Latency)
	}
	if cfg.ProfileFailureRate() != 0.2 {
		t.Errorf("ProfileFailureRate() = %v, want 0.2", cfg.ProfileFailureRate())
	}
	if cfg.UsersFailureRate() != 0.1 {
		t.Errorf("UsersFailureRate() = %v, want 0.1", cfg.UsersFailureRate())
	}
	if cfg.Users.PerPage != 10 {
		t.Errorf("Users.PerPage = %d, want 10", cfg.Users.PerPage)
	}
	if cfg.SeedProfile().Name != "Juan Carlos" {
		t.Errorf("SeedProfile().Name = %q", cfg.SeedProfile().Name)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFileJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	content := `{
  "server": {"port": 9090},
  "profile": {"latency": "10ms", "failureRate": 0},
  "users": {"perPage": 25}
}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.Host != DefaultHost {
		t.Errorf("Server.Host = %q, want default", cfg.Server.Host)
	}
	if cfg.Profile.Latency.Std() != 10*time.Millisecond {
		t.Errorf("Profile.Latency = %v, want 10ms", cfg.Profile.Latency)
	}
	// An explicit zero must survive defaulting.
	if cfg.ProfileFailureRate() != 0 {
		t.Errorf("ProfileFailureRate() = %v, want 0", cfg.ProfileFailureRate())
	}
	if cfg.UsersFailureRate() != 0.1 {
		t.Errorf("UsersFailureRate() = %v, want 0.1", cfg.UsersFailureRate())
	}
	if cfg.Users.PerPage != 25 {
		t.Errorf("Users.PerPage = %d, want 25", cfg.Users.PerPage)
	}
	if cfg.Path() != path {
		t.Errorf("Path() = %q, want %q", cfg.Path(), path)
	}
}

func TestLoadFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, YAMLConfigFileName)
	content := `server:
  host: 0.0.0.0
  port: 3000
users:
  latency: 50ms
  count: 7
log:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Address() != "0.0.0.0:3000" {
		t.Errorf("Address() = %q", cfg.Address())
	}
	if cfg.Users.Latency.Std() != 50*time.Millisecond {
		t.Errorf("Users.Latency = %v", cfg.Users.Latency)
	}
	if cfg.Users.Count != 7 {
		t.Errorf("Users.Count = %d, want 7", cfg.Users.Count)
	}
	if cfg.Log.Format != "json" || cfg.Log.Level != "debug" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir())
	if err == nil {
		t.Fatal("Load() should fail without a config file")
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Code != errors.CodeConfigRead {
		t.Errorf("error = %v, want code %s", err, errors.CodeConfigRead)
	}
}

func TestLoadFileParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte(`{"server": `), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadFile(path)
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Code != errors.CodeConfigParse {
		t.Errorf("error = %v, want code %s", err, errors.CodeConfigParse)
	}
}

func TestLoadFileBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte(`{"profile": {"latency": "soon"}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile() should reject an invalid duration")
	}
}

func TestResolveEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(`{"server": {"port": 9090}}`), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("USERPAGES_SERVER_PORT", "7070")
	t.Setenv("USERPAGES_USERS_FAILURE_RATE", "0")
	t.Setenv("USERPAGES_PROFILE_LATENCY", "5ms")
	t.Setenv("USERPAGES_SEED", "42")
	t.Setenv("USERPAGES_USERS_AUTO_RETRIES", "2")
	t.Setenv("USERPAGES_USERS_RETRY_DELAY", "250ms")

	cfg, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.UsersFailureRate() != 0 {
		t.Errorf("UsersFailureRate() = %v, want 0", cfg.UsersFailureRate())
	}
	if cfg.Profile.Latency.Std() != 5*time.Millisecond {
		t.Errorf("Profile.Latency = %v, want 5ms", cfg.Profile.Latency)
	}
	if cfg.Seed != 42 {
		t.Errorf("Seed = %d, want 42", cfg.Seed)
	}
	if cfg.Users.AutoRetries != 2 || cfg.Users.RetryDelay.Std() != 250*time.Millisecond {
		t.Errorf("Users retry = %d after %v, want 2 after 250ms", cfg.Users.AutoRetries, cfg.Users.RetryDelay)
	}
	if cfg.Profile.AutoRetries != 0 {
		t.Errorf("Profile.AutoRetries = %d, want 0", cfg.Profile.AutoRetries)
	}
}

func TestResolveDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, EnvFileName), []byte("USERPAGES_USERS_PER_PAGE=5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	// godotenv.Load sets process variables; clean up after the test.
	t.Setenv("USERPAGES_USERS_PER_PAGE", "")
	os.Unsetenv("USERPAGES_USERS_PER_PAGE")

	cfg, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if cfg.Users.PerPage != 5 {
		t.Errorf("Users.PerPage = %d, want 5", cfg.Users.PerPage)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"rate", func(c *Config) { r := 1.5; c.Profile.FailureRate = &r }, "profile.failureRate"},
		{"perPage", func(c *Config) { c.Users.PerPage = -1 }, "users.perPage"},
		{"autoRetries", func(c *Config) { c.Profile.AutoRetries = -1 }, "autoRetries"},
		{"retryDelay", func(c *Config) { c.Users.RetryDelay = Duration(-time.Second) }, "retryDelay"},
		{"level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			var e *errors.Error
			if !stderrors.As(err, &e) || e.Code != errors.CodeConfigInvalid {
				t.Fatalf("error = %v, want code %s", err, errors.CodeConfigInvalid)
			}
			if !strings.Contains(e.Detail, tt.want) {
				t.Errorf("Detail = %q, want mention of %q", e.Detail, tt.want)
			}
		})
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{ConfigFileName, YAMLConfigFileName} {
		t.Run(name, func(t *testing.T) {
			cfg := New()
			cfg.Server.Port = 4321
			cfg.Users.Latency = Duration(75 * time.Millisecond)
			path := filepath.Join(dir, name)
			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("SaveTo() error = %v", err)
			}
			loaded, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile() error = %v", err)
			}
			if loaded.Server.Port != 4321 {
				t.Errorf("Server.Port = %d", loaded.Server.Port)
			}
			if loaded.Users.Latency.Std() != 75*time.Millisecond {
				t.Errorf("Users.Latency = %v", loaded.Users.Latency)
			}
		})
	}
}

func TestSaveWithoutPath(t *testing.T) {
	if err := New().Save(); err == nil {
		t.Error("Save() should fail without a path")
	}
}
