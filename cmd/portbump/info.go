package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/portbump/portbump/internal/config"
	"github.com/portbump/portbump/internal/git"
	"github.com/portbump/portbump/internal/ui"
	"github.com/portbump/portbump/internal/usecase"
)

type infoOutput struct {
	Registry    string   `json:"registry"`
	PortsDir    string   `json:"ports-dir"`
	VersionsDir string   `json:"versions-dir"`
	Ports       int      `json:"ports"`
	Baselines   []string `json:"baselines,omitempty"`
	GitRepo     bool     `json:"git-repo"`
	GitTopLevel string   `json:"git-top-level,omitempty"`
	GitBranch   string   `json:"git-branch,omitempty"`
	GitHead     string   `json:"git-head,omitempty"`
	ConfigPath  string   `json:"config-path"`
	JournalPath string   `json:"journal-path"`
}

func newInfoCmd(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the resolved registry and where portbump keeps its state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}

			layout, err := opts.layout()
			if err != nil {
				return err
			}

			out := infoOutput{
				Registry:    layout.Root,
				PortsDir:    layout.PortsDir,
				VersionsDir: layout.VersionsDir,
				ConfigPath:  config.GetConfigPath(),
				JournalPath: config.GetJournalPath(),
			}
			if ports, err := layout.Ports(); err == nil {
				out.Ports = len(ports)
			}
			if names, err := usecase.NewQuery(layout).BaselineNames(); err == nil {
				out.Baselines = names
			}

			gi := git.GetInfo(cmd.Context(), layout.Root)
			out.GitRepo = gi.IsGitRepo
			out.GitTopLevel = gi.TopLevel
			out.GitBranch = gi.CurrentBranch
			out.GitHead = gi.Head

			if format == formatJSON {
				return outputJSON(cmd, out)
			}

			baselines := strings.Join(out.Baselines, ", ")
			if baselines == "" {
				baselines = ui.Muted("(none)")
			}
			gitLine := ui.Muted("not a git repository")
			if out.GitRepo {
				gitLine = fmt.Sprintf("%s @ %s", out.GitBranch, shortID(out.GitHead))
			}
			fmt.Fprint(cmd.OutOrStdout(), ui.KeyValues("",
				ui.KV("registry", out.Registry),
				ui.KV("ports", strconv.Itoa(out.Ports)+" in "+out.PortsDir),
				ui.KV("baselines", baselines),
				ui.KV("git", gitLine),
				ui.KV("config", out.ConfigPath),
				ui.KV("journal", out.JournalPath),
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", formatTable, "Output format: table or json")

	return cmd
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
