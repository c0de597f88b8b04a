package usecase

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/portbump/portbump/internal/config"
	"github.com/portbump/portbump/internal/registry"
)

// RegistryOptions are the CLI/MCP-level registry selectors. Empty fields
// fall back to the environment and the settings file.
type RegistryOptions struct {
	Root        string
	PortsDir    string
	VersionsDir string
}

// ResolveRegistry converts registry options into a validated layout with an
// absolute root. The current directory is the last fallback for the root.
func ResolveRegistry(opts RegistryOptions, settings *config.Settings) (registry.Layout, error) {
	if settings == nil {
		settings = &config.Settings{}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return registry.Layout{}, fmt.Errorf("get working directory: %w", err)
	}
	root, err := filepath.Abs(settings.ResolveRegistry(opts.Root, cwd))
	if err != nil {
		return registry.Layout{}, fmt.Errorf("resolve registry root: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return registry.Layout{}, fmt.Errorf("registry root %s: %w", root, err)
	}
	if !info.IsDir() {
		return registry.Layout{}, fmt.Errorf("registry root %s is not a directory", root)
	}

	layout := registry.NewLayout(root)
	if dir := firstNonEmpty(opts.PortsDir, settings.PortsDir); dir != "" {
		layout.PortsDir = dir
	}
	if dir := firstNonEmpty(opts.VersionsDir, settings.VersionsDir); dir != "" {
		layout.VersionsDir = dir
	}
	return layout, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
