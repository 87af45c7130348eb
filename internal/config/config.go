package config

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// XMLRPCSuffix is the path of the Bugzilla XML-RPC endpoint below the base URL.
const XMLRPCSuffix = "/xmlrpc.cgi"

// Default values for unset fields
const (
	DefaultBugzillaURL   = "https://bugzilla.redhat.com"
	DefaultTimeout       = 60 * time.Second
	DefaultSummaryPrefix = "abrt"
)

// Legacy plugin settings keys
const (
	KeyBugzillaURL = "BugzillaURL"
	KeyLogin       = "Login"
	KeyPassword    = "Password"
	KeyNoSSLVerify = "NoSSLVerify"
)

// Config represents the full crashreporter configuration
type Config struct {
	Bugzilla  Settings        `mapstructure:"bugzilla"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// Settings holds everything needed to talk to one Bugzilla instance.
type Settings struct {
	BugzillaURL    string        `mapstructure:"url" yaml:"url"`
	Login          string        `mapstructure:"login" yaml:"login"`
	Password       string        `mapstructure:"password" yaml:"password,omitempty"`
	PasswordSecret string        `mapstructure:"password_secret" yaml:"password_secret,omitempty"` // GCP Secret Manager path
	NoSSLVerify    bool          `mapstructure:"no_ssl_verify" yaml:"no_ssl_verify"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
	SummaryPrefix  string        `mapstructure:"summary_prefix" yaml:"summary_prefix"`
	LegacyFile     string        `mapstructure:"legacy_file" yaml:"legacy_file,omitempty"` // Bugzilla.conf
}

// LoggingConfig controls where progress notifications are sent
type LoggingConfig struct {
	Format     string `mapstructure:"format"`      // "text" or "json"
	GCPProject string `mapstructure:"gcp_project"` // enables Cloud Logging
	LogID      string `mapstructure:"log_id"`
}

// TelemetryConfig toggles OpenTelemetry export
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Stdout  bool `mapstructure:"stdout"`
}

// Load loads configuration from the global viper instance
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom loads configuration from the given viper instance
func LoadFrom(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	if err := v.Unmarshal(cfg, viper.DecodeHook(decodeHook)); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Bugzilla.LegacyFile != "" {
		legacy, err := ReadLegacyFile(cfg.Bugzilla.LegacyFile)
		if err != nil {
			return nil, err
		}
		cfg.Bugzilla.Apply(legacy)
	}

	applyDefaults(cfg)

	return cfg, nil
}

// decodeHook keeps viper's default hooks and adds yes/no booleans.
var decodeHook = mapstructure.ComposeDecodeHookFunc(
	mapstructure.StringToTimeDurationHookFunc(),
	mapstructure.StringToSliceHookFunc(","),
	yesNoHook,
)

// yesNoHook decodes "yes" and "no" into bool fields, so
// CRASHREPORTER_BUGZILLA_NO_SSL_VERIFY=yes works like the legacy
// NoSSLVerify key. Other strings fall through to strconv.ParseBool.
func yesNoHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Bool {
		return data, nil
	}
	switch strings.ToLower(strings.TrimSpace(data.(string))) {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	}
	return data, nil
}

// applyDefaults sets default values for unset fields
func applyDefaults(cfg *Config) {
	if cfg.Bugzilla.BugzillaURL == "" {
		cfg.Bugzilla.BugzillaURL = DefaultBugzillaURL
	} else {
		cfg.Bugzilla.BugzillaURL = NormalizeURL(cfg.Bugzilla.BugzillaURL)
	}

	if cfg.Bugzilla.Timeout == 0 {
		cfg.Bugzilla.Timeout = DefaultTimeout
	}

	if cfg.Bugzilla.SummaryPrefix == "" {
		cfg.Bugzilla.SummaryPrefix = DefaultSummaryPrefix
	}

	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	if cfg.Logging.LogID == "" {
		cfg.Logging.LogID = "crashreporter"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Bugzilla.Validate(); err != nil {
		return err
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid logging format: %s (must be text or json)", c.Logging.Format)
	}

	return nil
}

// Validate checks the endpoint. Credentials are checked by the reporter
// itself so that a missing login is reported as a configuration error
// of the submission.
func (s Settings) Validate() error {
	if s.BugzillaURL == "" {
		return fmt.Errorf("bugzilla url is required")
	}

	u, err := url.Parse(s.BugzillaURL)
	if err != nil {
		return fmt.Errorf("invalid bugzilla url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid bugzilla url scheme: %q (must be http or https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("bugzilla url has no host")
	}

	if s.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}

	return nil
}

// XMLRPCURL returns the RPC endpoint derived from the base URL.
func (s Settings) XMLRPCURL() string {
	return NormalizeURL(s.BugzillaURL) + XMLRPCSuffix
}

// BugURL returns the browse URL of an issue. A non-positive id yields the
// bare query prefix.
func (s Settings) BugURL(id int) string {
	base := NormalizeURL(s.BugzillaURL) + "/show_bug.cgi?id="
	if id <= 0 {
		return base
	}
	return fmt.Sprintf("%s%d", base, id)
}

// NormalizeURL strips the XML-RPC suffix (and anything after it) and all
// trailing slashes.
func NormalizeURL(raw string) string {
	if i := strings.Index(raw, XMLRPCSuffix); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimRight(raw, "/")
}

// Map returns the settings under their legacy plugin keys.
func (s Settings) Map() map[string]string {
	noVerify := "no"
	if s.NoSSLVerify {
		noVerify = "yes"
	}
	return map[string]string{
		KeyBugzillaURL: s.BugzillaURL,
		KeyLogin:       s.Login,
		KeyPassword:    s.Password,
		KeyNoSSLVerify: noVerify,
	}
}

// Apply overrides settings from legacy plugin keys. Keys that are absent
// leave the current value untouched.
func (s *Settings) Apply(m map[string]string) {
	if v, ok := m[KeyBugzillaURL]; ok {
		s.BugzillaURL = NormalizeURL(v)
	}
	if v, ok := m[KeyLogin]; ok {
		s.Login = v
	}
	if v, ok := m[KeyPassword]; ok {
		s.Password = v
	}
	if v, ok := m[KeyNoSSLVerify]; ok {
		s.NoSSLVerify = v == "yes"
	}
}

// ReadLegacyFile reads a "Key = Value" plugin settings file.
func ReadLegacyFile(path string) (map[string]string, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("properties")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read legacy settings %s: %w", path, err)
	}

	// viper lowercases keys; map them back to the plugin spelling.
	out := make(map[string]string)
	for _, key := range []string{KeyBugzillaURL, KeyLogin, KeyPassword, KeyNoSSLVerify} {
		if v.IsSet(key) {
			out[key] = v.GetString(key)
		}
	}
	return out, nil
}
