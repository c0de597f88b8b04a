package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/portbump/portbump/internal/ui"
	"github.com/portbump/portbump/internal/usecase"
)

func newBaselineCmd(opts *rootOptions) *cobra.Command {
	var (
		name   string
		format string
	)

	cmd := &cobra.Command{
		Use:   "baseline [port]",
		Short: "Show a baseline or one port's baseline entry",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}

			layout, err := opts.layout()
			if err != nil {
				return err
			}

			q := usecase.NewQuery(layout)
			baseline := opts.settings.Baseline(name)

			var rows []usecase.BaselinePort
			if len(args) == 1 {
				entry, err := q.BaselineEntry(baseline, args[0])
				if err != nil {
					return err
				}
				rows = []usecase.BaselinePort{{Port: args[0], BaselineEntry: entry}}
			} else {
				rows, err = q.Baseline(baseline)
				if err != nil {
					return err
				}
			}

			if format == formatJSON {
				return outputJSON(cmd, rows)
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), ui.InfoMsg("baseline %s is empty", baseline))
				return nil
			}

			table := make([][]string, 0, len(rows))
			for _, row := range rows {
				table = append(table, []string{row.Port, row.Baseline, strconv.Itoa(row.PortVersion)})
			}
			tbl := &ui.Table{
				Headers: []string{"Port", "Version", "Port Version"},
				Rows:    table,
				Flex:    1,
			}
			tbl.Render(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Baseline name (default: config default-baseline, or default)")
	cmd.Flags().StringVar(&format, "format", formatTable, "Output format: table or json")

	return cmd
}
