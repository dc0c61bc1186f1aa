package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/fieldmap/internal/config"
	"github.com/roach88/fieldmap/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Store overrides; empty means "use the config file".
	Backend    string
	SQLitePath string
	RedisAddr  string

	// Set by the root command before any subcommand runs.
	Config *config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the fieldmap CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "fieldmap",
		Short: "fieldmap - mark objects on a shared map",
		Long: `Mark power line pylons, street lights, trees, mailboxes and fire hydrants
on a map shared through a point store, and send the list by e-mail.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a CUE config file")
	cmd.PersistentFlags().StringVar(&opts.Backend, "store", "", "store backend (memory|sqlite|redis), overrides config")
	cmd.PersistentFlags().StringVar(&opts.SQLitePath, "db", "", "sqlite database path, overrides config")
	cmd.PersistentFlags().StringVar(&opts.RedisAddr, "redis", "", "redis address, overrides config")

	// Add subcommands
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewShareCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// setup validates global flags, loads the config and installs the logger.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	if !slices.Contains(ValidFormats, o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	if o.Backend != "" {
		if !slices.Contains(Backends, o.Backend) {
			return NewExitError(ExitCommandError, fmt.Sprintf("invalid store %q: must be one of %v", o.Backend, Backends))
		}
		cfg.Store.Backend = o.Backend
	}
	if o.SQLitePath != "" {
		cfg.Store.SQLite.Path = o.SQLitePath
	}
	if o.RedisAddr != "" {
		cfg.Store.Redis.Addr = o.RedisAddr
	}
	o.Config = cfg

	level := cfg.Log.SlogLevel()
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.Logger = logging.New(cmd.ErrOrStderr(), level, logging.Format(cfg.Log.Format))
	slog.SetDefault(o.Logger)

	return nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}
