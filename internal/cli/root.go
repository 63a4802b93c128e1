// Package cli provides the command-line interface for devintest.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joacominatel/devintest/internal/app"
	"github.com/joacominatel/devintest/internal/config"
	"github.com/joacominatel/devintest/internal/database"
	"github.com/joacominatel/devintest/internal/database/postgres"
	"github.com/joacominatel/devintest/internal/logger"
	"github.com/joacominatel/devintest/internal/tui/theme"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// annotationNoSetup marks commands that need no settings, logger or
// descriptor.
const annotationNoSetup = "devintest/no-setup"

// env is everything a command needs, stored in the command context.
type env struct {
	settings *config.Settings
	log      zerolog.Logger
	desc     config.Descriptor
	svc      *app.Service
}

type envKey struct{}

// Option customizes the root command.
type Option func(*rootOptions)

type rootOptions struct {
	provider database.Provider
}

// WithProvider replaces the PostgreSQL driver used to open sessions.
func WithProvider(p database.Provider) Option {
	return func(o *rootOptions) {
		o.provider = p
	}
}

// NewRootCmd creates and returns the root command.
func NewRootCmd(opts ...Option) *cobra.Command {
	var (
		o            rootOptions
		settingsPath string
	)
	for _, opt := range opts {
		opt(&o)
	}

	rootCmd := &cobra.Command{
		Use:   "devintest",
		Short: "devin_test PostgreSQL demo runner",
		Long: `devintest connects to the PostgreSQL database described in setting.ini and
runs the devin_test demo: create the table, seed four rows, update row 2 and
delete row 3. Each table operation can also be run on its own.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if skipSetup(cmd) {
				return nil
			}

			e, err := setup(cmd, settingsPath, o.provider)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), envKey{}, e))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&settingsPath, "settings", "", "settings file (default: ~/.devintest/settings.yaml)")
	pf.String("descriptor", "", "INI file with the [Database] section (default: setting.ini)")
	pf.Int("port", config.DefaultPort, "port used when the endpoint has none")
	pf.String("sslmode", config.DefaultSSLMode, "PostgreSQL sslmode")
	pf.Duration("connect-timeout", config.DefaultConnectTimeout, "connection timeout")
	pf.Bool("strict", false, "fail updates and deletes that match no row")
	pf.String("log-level", config.DefaultLogLevel, "log level (trace|debug|info|warn|error)")
	pf.String("log-format", config.DefaultLogFormat, "log format (console|json)")
	pf.Bool("keyring", false, "read the password from the OS keyring")

	_ = rootCmd.RegisterFlagCompletionFunc("log-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{logger.FormatConsole, logger.FormatJSON}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(
		newVersionCmd(Version),
		newRunCmd(),
		newPingCmd(),
		newCreateCmd(),
		newSeedCmd(),
		newInsertCmd(),
		newUpdateCmd(),
		newDeleteCmd(),
		newGetCmd(),
		newListCmd(),
		newExecCmd(),
		newConfigCmd(),
		newSettingsCmd(),
		newPasswordCmd(),
		newPrimeCmd(),
	)

	return rootCmd
}

// Execute runs the root command and prints a failure line on error.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, theme.Failed("Error: "+err.Error()))
		return err
	}
	return nil
}

func skipSetup(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "help", "completion", "__complete":
		return true
	}
	return cmd.Annotations[annotationNoSetup] != ""
}

func setup(cmd *cobra.Command, settingsPath string, provider database.Provider) (*env, error) {
	flags := cmd.Root().PersistentFlags()

	settings, err := config.LoadSettings(settingsPath, flags)
	if err != nil {
		return nil, &app.ErrConfig{Cause: err}
	}

	log, err := logger.New(cmd.ErrOrStderr(), settings.LogLevel, settings.LogFormat)
	if err != nil {
		return nil, &app.ErrConfig{Cause: err}
	}
	log = log.With().Str("run_id", uuid.NewString()).Logger()

	desc, err := config.LoadDescriptor(settings.DescriptorPath)
	if err != nil {
		return nil, &app.ErrConfig{Cause: err}
	}
	desc, err = config.ResolvePassword(desc, settings.Keyring)
	if err != nil {
		return nil, &app.ErrConfig{Cause: err}
	}
	log.Debug().Object("descriptor", desc).Bool("strict", settings.Strict).Msg("descriptor loaded")

	if provider == nil {
		provider = postgres.New(postgres.Options{
			Port:           settings.Port,
			SSLMode:        settings.SSLMode,
			ConnectTimeout: settings.ConnectTimeout,
			Logger:         log,
		})
	}

	return &env{
		settings: settings,
		log:      log,
		desc:     desc,
		svc:      app.NewService(provider, desc, app.Options{Strict: settings.Strict, Logger: log}),
	}, nil
}

var errNoEnv = errors.New("command context not initialized")

func envFrom(cmd *cobra.Command) (*env, error) {
	if e, ok := cmd.Context().Value(envKey{}).(*env); ok {
		return e, nil
	}
	return nil, errNoEnv
}

func serviceFrom(cmd *cobra.Command) (*app.Service, error) {
	e, err := envFrom(cmd)
	if err != nil {
		return nil, err
	}
	if e.svc == nil {
		return nil, errNoEnv
	}
	return e.svc, nil
}
