package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/vango-dev/userpages/internal/errors"
	"github.com/vango-dev/userpages/internal/mockapi"
	"github.com/vango-dev/userpages/pkg/model"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "userpages.json"

	// YAMLConfigFileName is the name of the YAML configuration file.
	YAMLConfigFileName = "userpages.yaml"

	// EnvFileName is the dotenv file read before environment overrides.
	EnvFileName = ".env"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "USERPAGES_"

	// DefaultPort is the default HTTP port.
	DefaultPort = 8080

	// DefaultHost is the default HTTP host.
	DefaultHost = "localhost"

	// DefaultSessionTTL is how long an idle browser session is kept.
	DefaultSessionTTL = 30 * time.Minute

	// DefaultServiceName names the service in traces and metrics.
	DefaultServiceName = "userpages"
)

// Config represents the complete userpages configuration.
type Config struct {
	// Server contains HTTP server configuration.
	Server ServerConfig `json:"server" yaml:"server" envPrefix:"SERVER_"`

	// Profile configures the mock profile service.
	Profile ProfileConfig `json:"profile" yaml:"profile" envPrefix:"PROFILE_"`

	// Users configures the mock user directory and the list page.
	Users UsersConfig `json:"users" yaml:"users" envPrefix:"USERS_"`

	// Log configures structured logging.
	Log LogConfig `json:"log" yaml:"log" envPrefix:"LOG_"`

	// Telemetry configures tracing export.
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry" envPrefix:"TELEMETRY_"`

	// Seed fixes the failure-injection random source. 0 seeds from the clock.
	Seed uint64 `json:"seed,omitempty" yaml:"seed,omitempty" env:"SEED"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty" yaml:"host,omitempty" env:"HOST"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty" yaml:"port,omitempty" env:"PORT"`

	// SessionTTL is how long an idle browser session keeps its controllers.
	SessionTTL Duration `json:"sessionTTL,omitempty" yaml:"sessionTTL,omitempty" env:"SESSION_TTL"`
}

// ProfileConfig configures the mock profile service.
type ProfileConfig struct {
	// Latency is the simulated delay of every profile call.
	Latency Duration `json:"latency,omitempty" yaml:"latency,omitempty" env:"LATENCY"`

	// FailureRate is the probability that a profile call fails.
	// Nil means the reference rate; 0 never fails.
	FailureRate *float64 `json:"failureRate,omitempty" yaml:"failureRate,omitempty" env:"FAILURE_RATE"`

	// Name and Email seed the served profile.
	Name  string `json:"name,omitempty" yaml:"name,omitempty" env:"NAME"`
	Email string `json:"email,omitempty" yaml:"email,omitempty" env:"EMAIL"`

	// AutoRetries is how many times a failed load is retried before it
	// settles to Error. 0 leaves recovery to a manual retry.
	AutoRetries int `json:"autoRetries,omitempty" yaml:"autoRetries,omitempty" env:"AUTO_RETRIES"`

	// RetryDelay is the pause between automatic retries.
	RetryDelay Duration `json:"retryDelay,omitempty" yaml:"retryDelay,omitempty" env:"RETRY_DELAY"`
}

// UsersConfig configures the mock user directory.
type UsersConfig struct {
	// Latency is the simulated delay of every page fetch.
	Latency Duration `json:"latency,omitempty" yaml:"latency,omitempty" env:"LATENCY"`

	// FailureRate is the probability that a page fetch fails.
	FailureRate *float64 `json:"failureRate,omitempty" yaml:"failureRate,omitempty" env:"FAILURE_RATE"`

	// Count is the size of the generated backing set.
	Count int `json:"count,omitempty" yaml:"count,omitempty" env:"COUNT"`

	// PerPage is the page size of the list view.
	PerPage int `json:"perPage,omitempty" yaml:"perPage,omitempty" env:"PER_PAGE"`

	// AutoRetries is how many times a failed load is retried before it
	// settles to Error. 0 leaves recovery to a manual retry.
	AutoRetries int `json:"autoRetries,omitempty" yaml:"autoRetries,omitempty" env:"AUTO_RETRIES"`

	// RetryDelay is the pause between automatic retries.
	RetryDelay Duration `json:"retryDelay,omitempty" yaml:"retryDelay,omitempty" env:"RETRY_DELAY"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty" env:"LEVEL"`

	// Format is text (colored console) or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty" env:"FORMAT"`
}

// TelemetryConfig configures tracing export.
type TelemetryConfig struct {
	// OTLPEndpoint is the OTLP/HTTP traces endpoint. Empty disables export.
	OTLPEndpoint string `json:"otlpEndpoint,omitempty" yaml:"otlpEndpoint,omitempty" env:"OTLP_ENDPOINT"`

	// ServiceName is reported as service.name.
	ServiceName string `json:"serviceName,omitempty" yaml:"serviceName,omitempty" env:"SERVICE_NAME"`
}

// New creates a new Config with default values.
func New() *Config {
	profileRate := mockapi.DefaultProfileFailureRate
	usersRate := mockapi.DefaultUsersFailureRate
	return &Config{
		Server: ServerConfig{
			Host:       DefaultHost,
			Port:       DefaultPort,
			SessionTTL: Duration(DefaultSessionTTL),
		},
		Profile: ProfileConfig{
			Latency:     Duration(mockapi.DefaultProfileLatency),
			FailureRate: &profileRate,
			Name:        mockapi.DefaultProfile.Name,
			Email:       mockapi.DefaultProfile.Email,
		},
		Users: UsersConfig{
			Latency:     Duration(mockapi.DefaultUsersLatency),
			FailureRate: &usersRate,
			Count:       mockapi.DefaultUserCount,
			PerPage:     model.DefaultPerPage,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			ServiceName: DefaultServiceName,
		},
	}
}

// Resolve builds the effective configuration for dir: defaults, then the
// config file if one exists, then .env, then environment overrides.
func Resolve(dir string) (*Config, error) {
	cfg := New()
	if path := findConfigFile(dir); path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.LoadEnv(filepath.Join(dir, EnvFileName)); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads configuration from the specified directory.
// It looks for userpages.json, then userpages.yaml.
func Load(dir string) (*Config, error) {
	path := findConfigFile(dir)
	if path == "" {
		return nil, errors.New(errors.CodeConfigRead).
			WithDetail("No " + ConfigFileName + " or " + YAMLConfigFileName + " found in " + dir).
			WithSuggestion("Run 'userpages config --write' to create one")
	}
	return LoadFile(path)
}

// LoadFile reads configuration from the specified file path. The format is
// chosen by extension: .yaml and .yml are YAML, anything else is JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigRead).
				WithDetail("No config file at " + path).
				Wrap(err)
		}
		return nil, errors.New(errors.CodeConfigRead).Wrap(err)
	}

	cfg := New()
	if isYAML(path) {
		err = yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New(errors.CodeConfigParse).
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			Wrap(err)
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// LoadEnv applies the dotenv file at envFile (if it exists) and then the
// USERPAGES_* environment variables. Variables already set in the process
// environment win over the dotenv file.
func (c *Config) LoadEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return errors.New(errors.CodeConfigRead).
				WithDetail("Failed to read " + envFile).
				Wrap(err)
		}
	}
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return errors.New(errors.CodeConfigParse).
			WithDetail("Failed to parse environment: " + err.Error()).
			Wrap(err)
	}
	c.applyDefaults()
	return nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.KindConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New(errors.CodeConfigRead).Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CodeConfigRead).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills zero values left by partial files.
func (c *Config) applyDefaults() {
	d := New()
	if c.Server.Host == "" {
		c.Server.Host = d.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.SessionTTL == 0 {
		c.Server.SessionTTL = d.Server.SessionTTL
	}
	if c.Profile.FailureRate == nil {
		c.Profile.FailureRate = d.Profile.FailureRate
	}
	if c.Users.FailureRate == nil {
		c.Users.FailureRate = d.Users.FailureRate
	}
	if c.Users.PerPage == 0 {
		c.Users.PerPage = d.Users.PerPage
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = d.Telemetry.ServiceName
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	if c.Server.SessionTTL < 0 {
		problems = append(problems, "server.sessionTTL must not be negative")
	}
	if c.Profile.Latency < 0 || c.Users.Latency < 0 {
		problems = append(problems, "latency must not be negative")
	}
	if r := c.ProfileFailureRate(); r < 0 || r > 1 {
		problems = append(problems, fmt.Sprintf("profile.failureRate %v is not in [0, 1]", r))
	}
	if r := c.UsersFailureRate(); r < 0 || r > 1 {
		problems = append(problems, fmt.Sprintf("users.failureRate %v is not in [0, 1]", r))
	}
	if c.Profile.AutoRetries < 0 || c.Users.AutoRetries < 0 {
		problems = append(problems, "autoRetries must not be negative")
	}
	if c.Profile.RetryDelay < 0 || c.Users.RetryDelay < 0 {
		problems = append(problems, "retryDelay must not be negative")
	}
	if c.Users.Count < 0 {
		problems = append(problems, "users.count must not be negative")
	}
	if c.Users.PerPage <= 0 {
		problems = append(problems, "users.perPage must be positive")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q is not text or json", c.Log.Format))
	}

	if len(problems) > 0 {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail(strings.Join(problems, "; "))
	}
	return nil
}

// Address returns host:port for the HTTP listener.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// URL returns the base URL of the HTTP listener.
func (c *Config) URL() string {
	return "http://" + c.Address()
}

// ProfileFailureRate returns the effective profile failure probability.
func (c *Config) ProfileFailureRate() float64 {
	if c.Profile.FailureRate == nil {
		return mockapi.DefaultProfileFailureRate
	}
	return *c.Profile.FailureRate
}

// UsersFailureRate returns the effective user directory failure probability.
func (c *Config) UsersFailureRate() float64 {
	if c.Users.FailureRate == nil {
		return mockapi.DefaultUsersFailureRate
	}
	return *c.Users.FailureRate
}

// SeedProfile returns the profile the mock service starts with.
func (c *Config) SeedProfile() model.UserProfile {
	return model.UserProfile{Name: c.Profile.Name, Email: c.Profile.Email}
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	return findConfigFile(dir) != ""
}

func findConfigFile(dir string) string {
	for _, name := range []string{ConfigFileName, YAMLConfigFileName, "userpages.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
