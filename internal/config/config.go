package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-sync/internal/payload"
	"github.com/rxtech-lab/argo-sync/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultPollInterval   = 15 * time.Second
	DefaultStaleAfter     = 10 * time.Second
	DefaultRequestTimeout = 5 * time.Second
	DefaultMinDelay       = 500 * time.Millisecond
	DefaultMaxDelay       = 30 * time.Second
	DefaultFactor         = 2.0
	DefaultMaxAttempts    = 10
	DefaultMinUptime      = 2 * time.Second
	DefaultLogLevel       = "info"
	DefaultPushPath       = "/socket"
)

// DefaultInstruments are the two market indices tracked by the dashboard.
var DefaultInstruments = []string{"NIFTY 50", "NIFTY BANK"}

// ReconnectConfig controls push channel reconnection.
type ReconnectConfig struct {
	MinDelay    time.Duration `json:"min_delay" yaml:"min_delay" jsonschema:"title=Min Delay,description=First backoff delay in nanoseconds,default=500000000" validate:"gt=0"`
	MaxDelay    time.Duration `json:"max_delay" yaml:"max_delay" jsonschema:"title=Max Delay,description=Backoff delay cap in nanoseconds,default=30000000000" validate:"gtefield=MinDelay"`
	Factor      float64       `json:"factor" yaml:"factor" jsonschema:"title=Factor,description=Backoff multiplier,default=2" validate:"gte=1"`
	Jitter      *bool         `json:"jitter" yaml:"jitter" jsonschema:"title=Jitter,description=Randomize backoff delays,default=true"`
	MaxAttempts int           `json:"max_attempts" yaml:"max_attempts" jsonschema:"title=Max Attempts,description=Consecutive failed attempts before the connection is considered lost,default=10" validate:"gte=1"`
	MinUptime   time.Duration `json:"min_uptime" yaml:"min_uptime" jsonschema:"title=Min Uptime,description=Connections closed by the server sooner than this count as failed attempts (nanoseconds),default=2000000000" validate:"gte=0"`
}

// JitterEnabled reports whether backoff delays are randomized. Unset means true.
func (r ReconnectConfig) JitterEnabled() bool {
	return r.Jitter == nil || *r.Jitter
}

// Config is the configuration of the sync client and the dashboard.
type Config struct {
	BaseURL        string          `json:"base_url" yaml:"base_url" jsonschema:"title=Base URL,description=Backend API base URL,required" validate:"required,url"`
	PushURL        string          `json:"push_url" yaml:"push_url" jsonschema:"title=Push URL,description=Push channel URL; derived from base_url when empty" validate:"omitempty,url"`
	AuthToken      string          `json:"auth_token" yaml:"auth_token" jsonschema:"title=Auth Token,description=Bearer token sent with every request" keychain:"true"`
	Instruments    []string        `json:"instruments" yaml:"instruments" jsonschema:"title=Instruments,description=The two market indices to track" validate:"len=2,unique,dive,required"`
	PollInterval   time.Duration   `json:"poll_interval" yaml:"poll_interval" jsonschema:"title=Poll Interval,description=Fallback poll interval in nanoseconds,default=15000000000" validate:"gt=0"`
	StaleAfter     time.Duration   `json:"stale_after" yaml:"stale_after" jsonschema:"title=Stale After,description=Staleness watchdog timeout in nanoseconds,default=10000000000" validate:"gt=0"`
	RequestTimeout time.Duration   `json:"request_timeout" yaml:"request_timeout" jsonschema:"title=Request Timeout,description=HTTP request timeout in nanoseconds,default=5000000000" validate:"gt=0"`
	Reconnect      ReconnectConfig `json:"reconnect" yaml:"reconnect" jsonschema:"title=Reconnect,description=Push channel reconnection policy"`
	LogLevel       string          `json:"log_level" yaml:"log_level" jsonschema:"title=Log Level,enum=debug,enum=info,enum=warn,enum=error,default=info" validate:"oneof=debug info warn error"`
}

// Default returns a configuration with every default applied for the given backend.
func Default(baseURL string) Config {
	//nolint:exhaustruct // remaining fields are filled by SetDefaults
	c := Config{BaseURL: baseURL}
	c.SetDefaults()

	return c
}

// SetDefaults fills zero-valued fields with their defaults.
func (c *Config) SetDefaults() {
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	if len(c.Instruments) == 0 {
		c.Instruments = append([]string(nil), DefaultInstruments...)
	}

	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}

	if c.StaleAfter == 0 {
		c.StaleAfter = DefaultStaleAfter
	}

	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}

	if c.Reconnect.MinDelay == 0 {
		c.Reconnect.MinDelay = DefaultMinDelay
	}

	if c.Reconnect.MaxDelay == 0 {
		c.Reconnect.MaxDelay = DefaultMaxDelay
	}

	if c.Reconnect.Factor == 0 {
		c.Reconnect.Factor = DefaultFactor
	}

	if c.Reconnect.MaxAttempts == 0 {
		c.Reconnect.MaxAttempts = DefaultMaxAttempts
	}

	if c.Reconnect.Jitter == nil {
		jitter := true
		c.Reconnect.Jitter = &jitter
	}

	if c.Reconnect.MinUptime == 0 {
		c.Reconnect.MinUptime = DefaultMinUptime
	}

	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	return nil
}

// LiveStaleAfter is how long a resource that already holds a value may go
// without updates before the watchdog marks it degraded. A feed served by the
// poll alone delivers at most every poll_interval plus one request timeout, so
// the watchdog never waits less than that.
func (c *Config) LiveStaleAfter() time.Duration {
	return max(c.StaleAfter, c.PollInterval+c.RequestTimeout)
}

// ResolvePushURL returns the push channel URL, deriving ws(s)://host/socket from
// the base URL when no explicit push URL is configured.
func (c *Config) ResolvePushURL() (string, error) {
	if c.PushURL != "" {
		return c.PushURL, nil
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid base_url", err)
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", errors.Newf(errors.ErrCodeInvalidConfiguration, "unsupported base_url scheme: %s", u.Scheme)
	}

	u.Path = strings.TrimRight(u.Path, "/") + DefaultPushPath

	return u.String(), nil
}

// Parse parses a YAML or JSON document, applies defaults and validates.
// YAML is a superset of JSON so both go through the YAML decoder; for JSON
// documents durations must be given in nanoseconds.
func Parse(data []byte) (*Config, error) {
	var c Config

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse JSON config", err)
		}
	} else if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse YAML config", err)
	}

	c.SetDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, fmt.Sprintf("failed to read config %s", path), err)
	}

	return Parse(data)
}

// Schema returns the JSON schema of the configuration.
func Schema() (string, error) {
	return payload.ToJSONSchema(&Config{}) //nolint:exhaustruct // empty config for schema generation
}
