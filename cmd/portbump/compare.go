package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/portbump/portbump/internal/usecase"
)

func newCompareCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "compare <a> <b>",
		Short: "Compare two versions the way the baseline does",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}

			c := usecase.Compare(args[0], args[1])
			if format == formatJSON {
				return outputJSON(cmd, c)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", c.A, c.Symbol, c.B)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", formatTable, "Output format: table or json")

	return cmd
}
