// Package registry owns the bookkeeping files of a port registry: one version
// history per port and the shared baseline document.
package registry

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	DefaultPortsDir    = "ports"
	DefaultVersionsDir = "versions"
	DefaultBaseline    = "default"

	ManifestFile = "vcpkg.json"
	PortfileFile = "portfile.cmake"
	BaselineFile = "baseline.json"
)

// Layout locates registry files relative to the repository root.
type Layout struct {
	Root        string
	PortsDir    string
	VersionsDir string
}

// NewLayout returns the standard layout rooted at root.
func NewLayout(root string) Layout {
	return Layout{Root: root, PortsDir: DefaultPortsDir, VersionsDir: DefaultVersionsDir}
}

func (l Layout) portsDir() string {
	if l.PortsDir == "" {
		return DefaultPortsDir
	}
	return l.PortsDir
}

func (l Layout) versionsDir() string {
	if l.VersionsDir == "" {
		return DefaultVersionsDir
	}
	return l.VersionsDir
}

// PortDir is the absolute recipe directory of port.
func (l Layout) PortDir(port string) string {
	return filepath.Join(l.Root, l.portsDir(), port)
}

// PortTreePath is the repository-relative, slash separated recipe directory,
// as git expects it in "HEAD:<path>/".
func (l Layout) PortTreePath(port string) string {
	return path.Join(filepath.ToSlash(l.portsDir()), port)
}

// ManifestPath is the port's vcpkg.json.
func (l Layout) ManifestPath(port string) string {
	return filepath.Join(l.PortDir(port), ManifestFile)
}

// PortfilePath is the port's build recipe.
func (l Layout) PortfilePath(port string) string {
	return filepath.Join(l.PortDir(port), PortfileFile)
}

// HistoryPath is versions/<first letter>-/<port>.json.
func (l Layout) HistoryPath(port string) string {
	return filepath.Join(l.Root, l.versionsDir(), historyBucket(port), port+".json")
}

// BaselinePath is versions/baseline.json.
func (l Layout) BaselinePath() string {
	return filepath.Join(l.Root, l.versionsDir(), BaselineFile)
}

// Ports lists the port directories present in the registry, sorted by name.
func (l Layout) Ports() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(l.Root, l.portsDir()))
	if err != nil {
		return nil, err
	}
	var ports []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			ports = append(ports, e.Name())
		}
	}
	return ports, nil
}

// CheckPort fails with ErrPortNotFound unless port names an existing recipe
// directory.
func (l Layout) CheckPort(port string) error {
	if !ValidPortName(port) {
		return &Error{Kind: ErrPortNotFound, Port: port}
	}
	info, err := os.Stat(l.PortDir(port))
	if err != nil || !info.IsDir() {
		return &Error{Kind: ErrPortNotFound, Port: port, Path: l.PortDir(port)}
	}
	return nil
}

// ValidPortName rejects names that could escape the ports directory.
func ValidPortName(port string) bool {
	if port == "" || port == "." || port == ".." {
		return false
	}
	return !strings.ContainsAny(port, `/\`)
}

func historyBucket(port string) string {
	if port == "" {
		return "-"
	}
	return port[:1] + "-"
}
