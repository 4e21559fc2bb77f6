package cmd

import (
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/tweetbridge/internal/config"
	"github.com/teemow/tweetbridge/internal/instrumentation"
	"github.com/teemow/tweetbridge/internal/logging"
	"github.com/teemow/tweetbridge/internal/twitter"
)

// commonOptions are the flags shared by every command that talks to Twitter.
type commonOptions struct {
	configPath string
	envFiles   []string
	debug      bool
	logFormat  string
}

func (o *commonOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.configPath, "config", "", "Path to a YAML settings file")
	cmd.Flags().StringSliceVar(&o.envFiles, "env-file", config.DefaultEnvFiles, "Environment file to load (repeatable). Can also use TWEETBRIDGE_ENV_FILES env var.")
	cmd.Flags().BoolVar(&o.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&o.logFormat, "log-format", "text", "Log format: text or json. Can also use LOG_FORMAT env var.")
}

// runtimeEnv is the resolved configuration of one command run.
type runtimeEnv struct {
	settings *config.Settings
	logger   *slog.Logger
	envFiles *config.EnvFiles
	loaded   []string
}

// flagOverrides copies explicitly set flags into settings.
type flagOverrides func(cmd *cobra.Command, s *config.Settings)

// loadRuntime resolves settings with precedence flags > environment >
// settings file > defaults. Environment files are applied before the final
// environment pass so they can carry settings as well as secrets.
func loadRuntime(cmd *cobra.Command, opts *commonOptions, overrides flagOverrides) (*runtimeEnv, error) {
	settings, err := config.ReadSettings(opts.configPath)
	if err != nil {
		return nil, err
	}

	apply := func() {
		if cmd.Flags().Changed("log-format") {
			settings.Logging.Format = opts.logFormat
		}
		if opts.debug {
			settings.Logging.Level = "debug"
		}
		if overrides != nil {
			overrides(cmd, settings)
		}
	}
	apply()

	logger := newLogger(cmd.ErrOrStderr(), settings)

	paths := settings.EnvFiles
	if cmd.Flags().Changed("env-file") {
		paths = opts.envFiles
	}
	files := config.NewEnvFiles(paths, logging.NewSlogAdapter(logger))
	loaded, err := files.Load()
	if err != nil {
		return nil, err
	}

	before := settings.Logging
	if err := settings.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	apply()
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if settings.Logging != before {
		logger = newLogger(cmd.ErrOrStderr(), settings)
	}
	slog.SetDefault(logger)

	if len(loaded) > 0 {
		logger.Debug("loaded environment files", "files", loaded)
	}

	return &runtimeEnv{
		settings: settings,
		logger:   logger,
		envFiles: files,
		loaded:   loaded,
	}, nil
}

func newLogger(w io.Writer, s *config.Settings) *slog.Logger {
	return logging.New(w, s.Logging.Level, s.Logging.Format)
}

// newTwitterClient builds the client from resolved settings. metrics may be nil.
func (rt *runtimeEnv) newTwitterClient(metrics *instrumentation.Metrics) *twitter.Client {
	return twitter.NewClient(
		twitter.WithBaseURL(rt.settings.Twitter.APIBaseURL),
		twitter.WithUserAgent(rt.settings.Twitter.UserAgent),
		twitter.WithHTTPClient(&http.Client{Timeout: rt.settings.Twitter.Timeout}),
		twitter.WithLogger(logging.NewSlogAdapter(logging.WithService(rt.logger, instrumentation.ServiceTwitter))),
		twitter.WithMetrics(metrics),
	)
}

// describe summarizes the runtime for the startup log line. Secrets are
// reported by presence only.
func (rt *runtimeEnv) describe() []any {
	creds := config.CredentialsFromEnv()
	return []any{
		"api_base_url", rt.settings.Twitter.APIBaseURL,
		"timeout", rt.settings.Twitter.Timeout.String(),
		"env_files", rt.loaded,
		"consumer_key", logging.Presence(creds.ConsumerKey),
		"access_token", logging.Presence(creds.AccessToken),
	}
}
