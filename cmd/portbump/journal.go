package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/portbump/portbump/internal/journal"
	"github.com/portbump/portbump/internal/ui"
)

func newJournalCmd(opts *rootOptions) *cobra.Command {
	var (
		limit     int
		format    string
		olderThan time.Duration
	)

	cmd := &cobra.Command{
		Use:   "journal [id]",
		Short: "Show recent update runs for the registry, or one run in detail",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}

			layout, err := opts.layout()
			if err != nil {
				return err
			}

			dbCtx, err := journal.Open("")
			if err != nil {
				return err
			}
			defer func() {
				_ = journal.Close(dbCtx)
			}()

			ctx := cmd.Context()
			repo := journal.NewRunRepository(dbCtx)

			if len(args) == 1 {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid run id %q", args[0])
				}
				run, err := repo.FindByID(ctx, id)
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("run %d: %w", id, journal.ErrRunNotFound)
				}
				if format == formatJSON {
					return outputJSON(cmd, run)
				}
				outputRun(cmd, run)
				return nil
			}

			if cmd.Flags().Changed("prune") {
				removed, err := repo.Prune(ctx, time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), ui.SuccessMsg("Pruned %d finished run(s)", removed))
			}

			runs, err := repo.List(ctx, layout.Root, limit)
			if err != nil {
				return err
			}

			if format == formatJSON {
				return outputJSON(cmd, runs)
			}
			outputRunsTable(cmd, runs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	cmd.Flags().StringVar(&format, "format", formatTable, "Output format: table or json")
	cmd.Flags().DurationVar(&olderThan, "prune", 30*24*time.Hour, "Delete completed and failed runs older than this before listing")

	return cmd
}

func outputRunsTable(cmd *cobra.Command, runs []journal.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), ui.InfoMsg("No update runs recorded"))
		return
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		portVersion := ""
		if run.PortVersion != nil {
			portVersion = strconv.Itoa(*run.PortVersion)
		}
		detail := run.Message
		if run.Error != "" {
			detail = run.Error
		}
		rows = append(rows, []string{
			strconv.FormatInt(run.ID, 10),
			run.Port,
			run.Version,
			portVersion,
			string(run.Status),
			run.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
			detail,
		})
	}

	tbl := &ui.Table{
		Headers: []string{"ID", "Port", "Version", "Port Version", "Status", "Updated", "Detail"},
		Rows:    rows,
		Flex:    6,
	}
	tbl.Render(cmd.OutOrStdout())
}

func outputRun(cmd *cobra.Command, run *journal.Run) {
	portVersion := ui.Muted("(none)")
	if run.PortVersion != nil {
		portVersion = strconv.Itoa(*run.PortVersion)
	}
	pairs := []ui.Pair{
		ui.KV("id", strconv.FormatInt(run.ID, 10)),
		ui.KV("registry", run.Registry),
		ui.KV("port", run.Port),
		ui.KV("version", run.Version),
		ui.KV("commit", run.CommitRef),
		ui.KV("baseline", run.Baseline),
		ui.KV("status", string(run.Status)),
		ui.KV("port-version", portVersion),
		ui.KV("git-tree", run.GitTree),
		ui.KV("message", run.Message),
		ui.KV("created", run.CreatedAt.Local().Format("2006-01-02 15:04:05")),
		ui.KV("updated", run.UpdatedAt.Local().Format("2006-01-02 15:04:05")),
	}
	if run.Error != "" {
		pairs = append(pairs, ui.KV("error", ui.ErrorStyle.Render(run.Error)))
	}
	fmt.Fprint(cmd.OutOrStdout(), ui.KeyValues("", pairs...))
}
