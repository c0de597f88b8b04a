package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/portbump/portbump/internal/config"
	"github.com/portbump/portbump/internal/ui"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the settings file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := opts.settings
			journal := ""
			if s.Journal != nil {
				journal = fmt.Sprintf("%t", *s.Journal)
			}
			values := map[string]string{
				"registry":         s.Registry,
				"default-baseline": s.DefaultBaseline,
				"ports-dir":        s.PortsDir,
				"versions-dir":     s.VersionsDir,
				"vcpkg-root":       s.VcpkgRoot,
				"journal":          journal,
			}

			pairs := make([]ui.Pair, 0, len(config.Keys)+1)
			pairs = append(pairs, ui.KV("file", config.GetConfigPath()))
			for _, key := range config.Keys {
				v := values[key]
				if v == "" {
					v = ui.Muted("(unset)")
				}
				pairs = append(pairs, ui.KV(key, v))
			}
			fmt.Fprint(cmd.OutOrStdout(), ui.KeyValues("", pairs...))
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a key in the settings file; an empty value clears it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.settings.Set(args[0], args[1]); err != nil {
				return err
			}
			path := config.GetConfigPath()
			if err := opts.settings.Save(path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.SuccessMsg("%s saved to %s", args[0], path))
			return nil
		},
	})

	return cmd
}
