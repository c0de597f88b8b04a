package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/portbump/portbump/internal/registry"
	"github.com/portbump/portbump/internal/ui"
	"github.com/portbump/portbump/internal/usecase"
)

func newVersionsCmd(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "versions <port>",
		Short: "Show the version history of a port",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}

			layout, err := opts.layout()
			if err != nil {
				return err
			}

			q := usecase.NewQuery(layout)
			h, err := q.Versions(args[0])
			if err != nil {
				return err
			}

			if format == formatJSON {
				return outputJSON(cmd, h)
			}
			if info, err := q.Port(args[0]); err == nil {
				outputDeclared(cmd, info)
			}
			outputVersionsTable(cmd, args[0], h)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", formatTable, "Output format: table or json")

	return cmd
}

func outputDeclared(cmd *cobra.Command, info usecase.PortInfo) {
	ref := info.Ref
	if ref == "" {
		ref = ui.Muted("(no REF)")
	}
	fmt.Fprint(cmd.OutOrStdout(), ui.KeyValues("",
		ui.KV("declared", fmt.Sprintf("%s#%d", info.Version, info.PortVersion)),
		ui.KV("scheme", info.VersionKey),
		ui.KV("ref", ref),
	))
	fmt.Fprintln(cmd.OutOrStdout())
}

func outputVersionsTable(cmd *cobra.Command, port string, h registry.VersionHistory) {
	if len(h.Versions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), ui.InfoMsg("%s has no recorded versions", port))
		return
	}

	seen := make(map[string]bool, len(h.Versions))
	rows := make([][]string, 0, len(h.Versions))
	for _, rec := range h.Versions {
		current := ""
		if !seen[rec.Version] {
			current = "*"
			seen[rec.Version] = true
		}
		rows = append(rows, []string{rec.Version, strconv.Itoa(rec.PortVersion), rec.Scheme(), rec.GitTree, current})
	}

	tbl := &ui.Table{
		Headers: []string{"Version", "Port Version", "Scheme", "Git Tree", "Current"},
		Rows:    rows,
		Flex:    3,
	}
	tbl.Render(cmd.OutOrStdout())
}
