package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/portbump/portbump/internal/config"
	"github.com/portbump/portbump/internal/journal"
	"github.com/portbump/portbump/internal/logging"
	"github.com/portbump/portbump/internal/registry"
	"github.com/portbump/portbump/internal/usecase"
)

// rootOptions carries the persistent flags and the loaded settings to every
// subcommand.
type rootOptions struct {
	registry    string
	portsDir    string
	versionsDir string
	logLevel    string
	debug       bool
	noJournal   bool

	settings *config.Settings
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "portbump",
		Short:         "portbump - version bookkeeping for a vcpkg port registry",
		Long:          "portbump bumps port versions, records them in the registry's version database and baseline, and clears vcpkg caches.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := opts.logLevel
			if opts.debug {
				level = logging.LevelDebug
			}
			if err := logging.Configure(level); err != nil {
				return err
			}

			settings, err := config.Load()
			if err != nil {
				return err
			}
			opts.settings = settings
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.registry, "registry", "", "Registry root (default: $PORTBUMP_REGISTRY, config, or the current directory)")
	flags.StringVar(&opts.portsDir, "ports-dir", "", "Ports directory relative to the registry root (default: ports)")
	flags.StringVar(&opts.versionsDir, "versions-dir", "", "Versions directory relative to the registry root (default: versions)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.BoolVar(&opts.debug, "debug", false, "Shorthand for --log-level debug")
	flags.BoolVar(&opts.noJournal, "no-journal", false, "Do not record update runs")

	cmd.AddCommand(newUpdatePortCmd(opts))
	cmd.AddCommand(newVersionsCmd(opts))
	cmd.AddCommand(newBaselineCmd(opts))
	cmd.AddCommand(newCompareCmd())
	cmd.AddCommand(newJournalCmd(opts))
	cmd.AddCommand(newClearCacheCmd(opts))
	cmd.AddCommand(newInfoCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newMCPCmd(opts))

	return cmd
}

func (o *rootOptions) layout() (registry.Layout, error) {
	return usecase.ResolveRegistry(usecase.RegistryOptions{
		Root:        o.registry,
		PortsDir:    o.portsDir,
		VersionsDir: o.versionsDir,
	}, o.settings)
}

// openJournal opens the run journal. It returns nil when the journal is
// disabled or cannot be opened; updates then run without one.
func (o *rootOptions) openJournal() *journal.Context {
	if o.noJournal || (o.settings != nil && !o.settings.JournalEnabled()) {
		return nil
	}
	dbCtx, err := journal.Open("")
	if err != nil {
		slog.Warn("journal unavailable; continuing without it", "error", err)
		return nil
	}
	return dbCtx
}
