package commands

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/comptes-dev/comptes/internal/activity"
	"github.com/comptes-dev/comptes/internal/api"
	"github.com/comptes-dev/comptes/internal/app"
	"github.com/comptes-dev/comptes/internal/buildinfo"
	"github.com/comptes-dev/comptes/internal/config"
	"github.com/comptes-dev/comptes/internal/logging"
	"github.com/comptes-dev/comptes/internal/prompt"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	apiURL     string
	timeout    time.Duration
	logLevel   string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:     "comptes",
		Short:   "Manage bank accounts on a comptes backend",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&g.configPath, "config", config.DefaultPath, "config file")
	flags.StringVar(&g.apiURL, "api-url", "", "backend base URL (overrides api.base_url)")
	flags.DurationVar(&g.timeout, "timeout", 0, "per-request timeout (overrides api.timeout)")
	flags.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(
		newListCommand(g),
		newCreateCommand(g),
		newEditCommand(g),
		newDeleteCommand(g),
		newImportCommand(g),
		newUICommand(g),
		newHistoryCommand(g),
		newInitCommand(g),
		newServeCommand(g),
	)

	return rootCmd
}

// loadConfig layers defaults, the config file, .env, the environment and
// finally the flags the user set.
func (g *globalFlags) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(g.configPath)
	if err != nil {
		return nil, err
	}
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.API.BaseURL = g.apiURL
	}
	if flags.Changed("timeout") {
		cfg.API.Timeout = g.timeout
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = g.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// session is the wiring every client command works with.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	coord  *app.Coordinator
}

func (g *globalFlags) newSession(cmd *cobra.Command, p prompt.Prompter) (*session, error) {
	cfg, err := g.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Log.Level, cmd.ErrOrStderr())

	client, err := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout,
		api.WithLogger(logger),
		api.WithUserAgent(buildinfo.UserAgent()),
	)
	if err != nil {
		return nil, err
	}

	opts := app.Options{Logger: logger}
	if cfg.Activity.Enabled && cfg.Activity.Path != "" {
		opts.Activity = activity.NewRecorder(cfg.Activity.Path, cfg.API.BaseURL, logger)
	}

	return &session{cfg: cfg, logger: logger, coord: app.New(client, p, opts)}, nil
}

func (s *session) close() {
	s.coord.Close()
}

func terminal(cmd *cobra.Command) *prompt.Terminal {
	return prompt.NewTerminal(cmd.InOrStdin(), cmd.OutOrStdout())
}
