package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport names accepted by the serve command.
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// Environment variables overriding settings file values.
const (
	EnvAPIBaseURL = "TWITTER_API_BASE_URL"
	EnvUserAgent  = "TWITTER_USER_AGENT"
	EnvTimeout    = "TWITTER_TIMEOUT"
	EnvTransport  = "MCP_TRANSPORT"
	EnvHTTPAddr   = "MCP_HTTP_ADDR"
	EnvLogLevel   = "LOG_LEVEL"
	EnvLogFormat  = "LOG_FORMAT"
	EnvEnvFiles   = "TWEETBRIDGE_ENV_FILES"
)

// Settings holds the non-secret runtime configuration.
type Settings struct {
	Twitter  TwitterSettings `yaml:"twitter"`
	Server   ServerSettings  `yaml:"server"`
	Logging  LoggingSettings `yaml:"logging"`
	EnvFiles []string        `yaml:"env_files"`
}

// TwitterSettings configures the outbound API client.
type TwitterSettings struct {
	APIBaseURL string        `yaml:"api_base_url"`
	UserAgent  string        `yaml:"user_agent"`
	Timeout    time.Duration `yaml:"timeout"`
}

// ServerSettings configures the MCP transport.
type ServerSettings struct {
	Transport string `yaml:"transport"`
	HTTPAddr  string `yaml:"http_addr"`
}

// LoggingSettings configures the slog handler.
type LoggingSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultSettings returns the settings used when nothing else is configured.
func DefaultSettings() *Settings {
	return &Settings{
		Twitter: TwitterSettings{
			APIBaseURL: "https://api.twitter.com",
			UserAgent:  "mcp-bot",
			Timeout:    30 * time.Second,
		},
		Server: ServerSettings{
			Transport: TransportStdio,
			HTTPAddr:  ":8080",
		},
		Logging: LoggingSettings{
			Level:  "info",
			Format: "text",
		},
		EnvFiles: append([]string(nil), DefaultEnvFiles...),
	}
}

// LoadSettings is ReadSettings followed by Validate.
func LoadSettings(path string) (*Settings, error) {
	s, err := ReadSettings(path)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ReadSettings builds Settings from defaults, the YAML file at path (if any)
// and environment overrides, in that order, without validating the result so
// callers can layer flags on top first. An empty path skips the file. A
// missing file is an error only when path was given explicitly.
func ReadSettings(path string) (*Settings, error) {
	s := DefaultSettings()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config error: settings file %s not found", path)
			}
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
		}
	}

	if err := s.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return s, nil
}

// ApplyEnv overlays environment overrides found through lookup.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str(EnvAPIBaseURL, &s.Twitter.APIBaseURL)
	str(EnvUserAgent, &s.Twitter.UserAgent)
	str(EnvTransport, &s.Server.Transport)
	str(EnvHTTPAddr, &s.Server.HTTPAddr)
	str(EnvLogLevel, &s.Logging.Level)
	str(EnvLogFormat, &s.Logging.Format)

	if v, ok := lookup(EnvTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config error: invalid %s %q: %w", EnvTimeout, v, err)
		}
		s.Twitter.Timeout = d
	}

	if v, ok := lookup(EnvEnvFiles); ok && v != "" {
		s.EnvFiles = splitList(v)
	}

	return nil
}

// Validate checks the settings for values the server cannot run with.
func (s *Settings) Validate() error {
	u, err := url.Parse(s.Twitter.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config error: twitter.api_base_url must be an absolute URL, got %q", s.Twitter.APIBaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("config error: twitter.api_base_url must use http or https, got %q", u.Scheme)
	}
	if s.Twitter.Timeout <= 0 {
		return fmt.Errorf("config error: twitter.timeout must be positive")
	}

	switch s.Server.Transport {
	case TransportStdio, TransportStreamableHTTP:
	default:
		return fmt.Errorf("config error: unsupported server.transport %q (use %s or %s)",
			s.Server.Transport, TransportStdio, TransportStreamableHTTP)
	}
	if s.Server.Transport == TransportStreamableHTTP && s.Server.HTTPAddr == "" {
		return fmt.Errorf("config error: server.http_addr is required for %s", TransportStreamableHTTP)
	}

	switch strings.ToLower(s.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config error: unsupported logging.level %q", s.Logging.Level)
	}
	switch strings.ToLower(s.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config error: unsupported logging.format %q", s.Logging.Format)
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
