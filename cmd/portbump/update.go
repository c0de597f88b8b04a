package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/portbump/portbump/internal/git"
	"github.com/portbump/portbump/internal/journal"
	"github.com/portbump/portbump/internal/registry"
	"github.com/portbump/portbump/internal/ui"
	"github.com/portbump/portbump/internal/usecase"
)

func newUpdatePortCmd(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "update-port <port> <version> <commit> [baseline]",
		Short: "Update a port and record the new version",
		Long: "Point the port's manifest and portfile at a new upstream version and commit, commit the port, " +
			"record the committed tree in the port's version history, advance the baseline and amend the commit.",
		Args: cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}

			layout, err := opts.layout()
			if err != nil {
				return err
			}

			baseline := ""
			if len(args) == 4 {
				baseline = args[3]
			}

			dbCtx := opts.openJournal()
			defer func() {
				_ = journal.Close(dbCtx)
			}()

			var runs usecase.Journal
			if dbCtx != nil {
				runs = journal.NewRunRepository(dbCtx)
			}

			res, err := usecase.NewUpdate(layout, git.Open(layout.Root), runs).Run(cmd.Context(), usecase.UpdateInput{
				Port:     args[0],
				Version:  args[1],
				CommitID: args[2],
				Baseline: opts.settings.Baseline(baseline),
			})
			if err != nil {
				return err
			}

			if format == formatJSON {
				return outputJSON(cmd, updateOutput(res))
			}
			printUpdate(cmd, res)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", formatTable, "Output format: table or json")

	return cmd
}

type updateJSON struct {
	Port            string `json:"port"`
	Version         string `json:"version"`
	PortVersion     int    `json:"port-version"`
	GitTree         string `json:"git-tree"`
	Baseline        string `json:"baseline"`
	BaselineAction  string `json:"baseline-action"`
	BaselineVersion string `json:"baseline-version"`
	BaselinePortVer int    `json:"baseline-port-version"`
	RefUpdated      bool   `json:"ref-updated"`
	Resumed         bool   `json:"resumed"`
}

func updateOutput(res *usecase.UpdateResult) updateJSON {
	return updateJSON{
		Port:            res.Port,
		Version:         res.Version,
		PortVersion:     res.PortVersion,
		GitTree:         res.GitTree,
		Baseline:        res.Baseline.Baseline,
		BaselineAction:  string(res.Baseline.Action),
		BaselineVersion: res.Baseline.Current.Baseline,
		BaselinePortVer: res.Baseline.Current.PortVersion,
		RefUpdated:      res.RefUpdated,
		Resumed:         res.Resumed,
	}
}

func printUpdate(cmd *cobra.Command, res *usecase.UpdateResult) {
	out := cmd.OutOrStdout()

	if res.Resumed {
		fmt.Fprintln(out, ui.InfoMsg("Resumed the interrupted update of %s", ui.Bold(res.Port)))
	}
	if !res.RefUpdated {
		fmt.Fprintln(out, ui.WarnMsg("portfile of %s has no REF directive; it was left unchanged", res.Port))
	}
	fmt.Fprintln(out, ui.SuccessMsg("Updated %s to %s", ui.Bold(res.Port), ui.Accent(res.Version+"#"+strconv.Itoa(res.PortVersion))))

	adv := res.Baseline
	baseline := fmt.Sprintf("%s#%d (%s)", adv.Current.Baseline, adv.Current.PortVersion, adv.Action)
	fmt.Fprint(out, ui.KeyValues("  ",
		ui.KV("git-tree", res.GitTree),
		ui.KV("baseline "+adv.Baseline, baseline),
	))

	if adv.Action == registry.AdvanceKept {
		fmt.Fprintln(out, ui.WarnMsg("baseline %s already holds %s#%d; not advanced",
			adv.Baseline, adv.Current.Baseline, adv.Current.PortVersion))
	}
}
