package main

import (
	"github.com/spf13/cobra"

	"github.com/portbump/portbump/internal/journal"
	"github.com/portbump/portbump/internal/mcp"
)

func newMCPCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server",
		Long:  "Start the Model Context Protocol server exposing the registry tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbCtx := opts.openJournal()
			defer func() {
				_ = journal.Close(dbCtx)
			}()

			return mcp.NewServer(version, opts.registry, opts.settings, dbCtx).Run(cmd.Context())
		},
	}

	return cmd
}
