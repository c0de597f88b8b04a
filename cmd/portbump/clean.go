package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/portbump/portbump/internal/cache"
	"github.com/portbump/portbump/internal/filesystem"
	"github.com/portbump/portbump/internal/ui"
)

func newClearCacheCmd(opts *rootOptions) *cobra.Command {
	var (
		cacheOpts cache.Options
		dryRun    bool
		jobs      int
	)

	cmd := &cobra.Command{
		Use:   "clear-cache",
		Short: "Remove cached vcpkg build, download, package and binary artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cacheOpts.VcpkgRoot = opts.settings.ResolveVcpkgRoot(cacheOpts.VcpkgRoot)

			targets, err := cache.Plan(cacheOpts, cache.Env)
			if err != nil {
				return err
			}
			if len(targets) == 0 {
				return errors.New("nothing to clear: pass --all or one of --binary-cache, --build-folder, --download-folder, --package-folder")
			}

			out := cmd.OutOrStdout()
			if dryRun {
				for _, t := range targets {
					if !filesystem.Exists(t.Path) {
						fmt.Fprintln(out, ui.InfoMsg("%s %s %s", t.Kind, t.Path, ui.Muted("(not existing)")))
						continue
					}
					fmt.Fprintln(out, ui.InfoMsg("would remove %s %s", t.Kind, t.Path))
				}
				return nil
			}

			var failed int
			for _, res := range cache.Clean(cmd.Context(), targets, jobs) {
				switch {
				case res.Err != nil:
					failed++
					fmt.Fprintln(out, ui.ErrorMsg("%s %s: %v", res.Kind, res.Path, res.Err))
				case !res.Existed:
					fmt.Fprintln(out, ui.InfoMsg("%s %s %s", res.Kind, res.Path, ui.Muted("(not existing)")))
				default:
					fmt.Fprintln(out, ui.SuccessMsg("%s %s %s", res.Kind, res.Path,
						ui.Muted(fmt.Sprintf("(%d files, %s)", res.Usage.Files, humanBytes(res.Usage.Bytes)))))
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d cache directories could not be removed", failed, len(targets))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&cacheOpts.All, "all", false, "Clean everything")
	cmd.Flags().BoolVar(&cacheOpts.BinaryCache, "binary-cache", false, "Clean the binary cache and the NuGet package cache")
	cmd.Flags().BoolVar(&cacheOpts.BuildFolder, "build-folder", false, "Clean the buildtrees folder of the vcpkg root")
	cmd.Flags().BoolVar(&cacheOpts.DownloadFolder, "download-folder", false, "Clean the downloads folder of the vcpkg root")
	cmd.Flags().BoolVar(&cacheOpts.PackageFolder, "package-folder", false, "Clean the packages folder of the vcpkg root")
	cmd.Flags().StringVar(&cacheOpts.VcpkgRoot, "vcpkg-root", "", "The vcpkg root directory (default: $VCPKG_ROOT or config vcpkg-root)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the directories that would be removed")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 4, "Directories removed in parallel")

	return cmd
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
