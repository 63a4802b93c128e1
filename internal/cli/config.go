package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joacominatel/devintest/internal/app"
	"github.com/joacominatel/devintest/internal/config"
	"github.com/joacominatel/devintest/internal/tui/theme"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the connection descriptor",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the descriptor and settings with the password masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := envFrom(cmd)
			if err != nil {
				return err
			}

			path := e.settings.DescriptorPath
			if path == "" {
				path = config.DefaultDescriptorPath()
			}

			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"key", "value"})
			t.AppendRows([]table.Row{
				{"descriptor", path},
				{"endpoint", e.desc.Endpoint},
				{"database", e.desc.Database},
				{"user", e.desc.User},
				{"password", e.desc.MaskedPassword()},
			})
			t.AppendSeparator()
			t.AppendRows([]table.Row{
				{"port", e.settings.Port},
				{"sslmode", e.settings.SSLMode},
				{"connect_timeout", e.settings.ConnectTimeout},
				{"strict", e.settings.Strict},
				{"keyring", e.settings.Keyring},
				{"log_level", e.settings.LogLevel},
			})
			t.Render()
			return nil
		},
	})
	return cmd
}

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage the settings file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a settings file from the defaults and the given flags",
		Args:  cobra.NoArgs,
		Annotations: map[string]string{
			annotationNoSetup: "true",
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Root().PersistentFlags()
			path, err := flags.GetString("settings")
			if err != nil {
				return err
			}

			if path == "" {
				if path, err = config.DefaultSettingsPath(); err != nil {
					return &app.ErrConfig{Cause: err}
				}
			}

			if !force {
				if _, err := os.Stat(path); err == nil {
					return &app.ErrConfig{Cause: fmt.Errorf("%s exists, use --force to overwrite", path)}
				} else if !errors.Is(err, fs.ErrNotExist) {
					return &app.ErrConfig{Cause: err}
				}
			}

			s, err := config.SettingsFromFlags(flags)
			if err != nil {
				return &app.ErrConfig{Cause: err}
			}
			written, err := config.SaveSettings(path, s)
			if err != nil {
				return &app.ErrConfig{Cause: err}
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), theme.OK("wrote "+written))
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cmd.AddCommand(initCmd)
	return cmd
}

func newPasswordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Manage the password stored in the OS keyring",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set",
		Short: "Store the database password in the OS keyring",
		Long: `Prompt for the password of the configured user and endpoint and store it in
the OS keyring. Enable --keyring (or keyring: true in the settings file) to
use it instead of the INI password.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := envFrom(cmd)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Password for %s: ", e.desc.KeyringAccount())
			pw, err := readPassword(cmd.InOrStdin())
			_, _ = fmt.Fprintln(cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			if pw == "" {
				return &app.ErrConfig{Cause: errors.New("empty password")}
			}

			if err := config.StorePassword(e.desc, pw); err != nil {
				return &app.ErrConfig{Cause: err}
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), theme.OK("password stored for "+e.desc.KeyringAccount()))
			return nil
		},
	})
	return cmd
}

// readPassword reads without echo from a terminal, or one line otherwise.
func readPassword(in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		return string(b), err
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
