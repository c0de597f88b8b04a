// Package cache locates and clears the local caches vcpkg builds into.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"golang.org/x/sync/errgroup"

	"github.com/portbump/portbump/internal/filesystem"
)

// Target kinds.
const (
	KindBuild    = "build"
	KindDownload = "download"
	KindPackage  = "package"
	KindBinary   = "binary"
	KindNuGet    = "nuget"
)

// ErrVcpkgRootRequired is returned when a folder inside the vcpkg root was
// requested without a root.
var ErrVcpkgRootRequired = errors.New("the build, download and package folders live in the vcpkg root; " +
	"set it with --vcpkg-root, the VCPKG_ROOT environment variable or vcpkg-root in the config file")

// Options selects what to clear.
type Options struct {
	All            bool
	BinaryCache    bool
	BuildFolder    bool
	DownloadFolder bool
	PackageFolder  bool
	VcpkgRoot      string
}

// Target is a directory to remove.
type Target struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// LookupEnv reads an environment variable. os.LookupEnv satisfies it.
type LookupEnv func(key string) (string, bool)

// binaryCacheRule is one candidate location of the binary cache: the value
// of Env joined with Sub.
type binaryCacheRule struct {
	Env string
	Sub string
}

// binaryCacheRules are tried in order; the first variable that is set wins.
var binaryCacheRules = []binaryCacheRule{
	{Env: "VCPKG_DEFAULT_BINARY_CACHE"},
	{Env: "LOCALAPPDATA", Sub: "vcpkg"},
	{Env: "APPDATA", Sub: "vcpkg"},
	{Env: "XDG_CACHE_HOME", Sub: "vcpkg"},
	{Env: "HOME", Sub: filepath.Join(".cache", "vcpkg")},
}

// BinaryCacheDir returns the binary cache directory. Without any of the rule
// variables it falls back to the XDG cache home.
func BinaryCacheDir(lookup LookupEnv) string {
	for _, rule := range binaryCacheRules {
		if value, ok := lookup(rule.Env); ok {
			return filepath.Join(value, rule.Sub)
		}
	}
	return filepath.Join(xdg.CacheHome, "vcpkg")
}

// NuGetPackagesDir returns the NuGet package cache that binary caching with
// VCPKG_USE_NUGET_CACHE fills.
func NuGetPackagesDir(lookup LookupEnv) string {
	home, ok := lookup("USERPROFILE")
	if !ok {
		home, ok = lookup("HOME")
	}
	if !ok {
		home = xdg.Home
	}
	return filepath.Join(home, ".nuget", "packages")
}

// Plan lists the directories opts asks to clear, in a fixed order.
func Plan(opts Options, lookup LookupEnv) ([]Target, error) {
	if opts.All {
		opts.BinaryCache = true
		opts.BuildFolder = true
		opts.DownloadFolder = true
		opts.PackageFolder = true
	}

	var targets []Target
	if opts.BuildFolder || opts.DownloadFolder || opts.PackageFolder {
		if opts.VcpkgRoot == "" {
			return nil, ErrVcpkgRootRequired
		}
		if opts.BuildFolder {
			targets = append(targets, Target{Kind: KindBuild, Path: filepath.Join(opts.VcpkgRoot, "buildtrees")})
		}
		if opts.DownloadFolder {
			targets = append(targets, Target{Kind: KindDownload, Path: filepath.Join(opts.VcpkgRoot, "downloads")})
		}
		if opts.PackageFolder {
			targets = append(targets, Target{Kind: KindPackage, Path: filepath.Join(opts.VcpkgRoot, "packages")})
		}
	}
	if opts.BinaryCache {
		targets = append(targets,
			Target{Kind: KindNuGet, Path: NuGetPackagesDir(lookup)},
			Target{Kind: KindBinary, Path: BinaryCacheDir(lookup)},
		)
	}
	return targets, nil
}

// Result is the outcome of clearing one target.
type Result struct {
	Target
	Existed bool             `json:"existed"`
	Usage   filesystem.Usage `json:"usage"`
	Err     error            `json:"-"`
}

// Clean removes targets concurrently, at most limit at a time (unlimited
// when limit <= 0). Results are in target order; a failed target does not
// stop the others.
func Clean(ctx context.Context, targets []Target, limit int) []Result {
	results := make([]Result, len(targets))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, target := range targets {
		g.Go(func() error {
			results[i] = clean(ctx, target)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func clean(ctx context.Context, target Target) Result {
	res := Result{Target: target}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	usage, err := filesystem.DirUsage(target.Path)
	if err != nil {
		slog.Debug("could not measure cache directory", "path", target.Path, "error", err)
	}
	res.Usage = usage

	slog.Debug("removing cache directory", "kind", target.Kind, "path", target.Path)
	existed, err := filesystem.RemoveTree(target.Path)
	res.Existed = existed
	res.Err = err
	return res
}

// Env is a LookupEnv over the process environment.
func Env(key string) (string, bool) {
	return os.LookupEnv(key)
}
