// Package config resolves where portbump keeps its own state and reads the
// optional user settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const appName = "portbump"

// Environment variables consulted before the settings file.
const (
	EnvDataDir   = "PORTBUMP_DATA_DIR"
	EnvConfig    = "PORTBUMP_CONFIG"
	EnvRegistry  = "PORTBUMP_REGISTRY"
	EnvVcpkgRoot = "VCPKG_ROOT"
)

// GetDataDir resolves the directory holding the update journal. It checks
// PORTBUMP_DATA_DIR first, then XDG paths, and finally falls back to the
// user's home directory.
func GetDataDir() string {
	if explicit := os.Getenv(EnvDataDir); explicit != "" {
		return explicit
	}

	xdg.Reload()

	dataHome := xdg.DataHome
	if dataHome == "" {
		home := xdg.Home
		if home == "" {
			var err error
			home, err = os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), appName)
			}
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(dataHome, appName)
}

// GetJournalPath returns the absolute path to the SQLite journal.
func GetJournalPath() string {
	return filepath.Join(GetDataDir(), "journal.db")
}

// GetConfigPath returns the settings file location:
// $PORTBUMP_CONFIG, else $XDG_CONFIG_HOME/portbump/config.yaml.
func GetConfigPath() string {
	if explicit := os.Getenv(EnvConfig); explicit != "" {
		return explicit
	}
	xdg.Reload()
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// Settings are the user defaults read from config.yaml.
type Settings struct {
	Registry        string `yaml:"registry,omitempty"`
	DefaultBaseline string `yaml:"default-baseline,omitempty"`
	PortsDir        string `yaml:"ports-dir,omitempty"`
	VersionsDir     string `yaml:"versions-dir,omitempty"`
	VcpkgRoot       string `yaml:"vcpkg-root,omitempty"`
	Journal         *bool  `yaml:"journal,omitempty"`
}

// JournalEnabled reports whether update runs are recorded. Defaults to true.
func (s *Settings) JournalEnabled() bool {
	return s.Journal == nil || *s.Journal
}

// Load reads the settings file. A missing file yields empty settings.
func Load() (*Settings, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom reads settings from path. A missing file yields empty settings.
func LoadFrom(path string) (*Settings, error) {
	//nolint:gosec // G304: path comes from the environment or XDG
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Settings{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &s, nil
}

// Save writes the settings to path, creating directories as needed.
func (s *Settings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Keys lists the settings that Set accepts, in file order.
var Keys = []string{"registry", "default-baseline", "ports-dir", "versions-dir", "vcpkg-root", "journal"}

// ErrUnknownKey is returned by Set for a key outside Keys.
var ErrUnknownKey = errors.New("unknown config key")

// Set assigns value to key. An empty value clears the key.
func (s *Settings) Set(key, value string) error {
	switch key {
	case "registry":
		s.Registry = value
	case "default-baseline":
		s.DefaultBaseline = value
	case "ports-dir":
		s.PortsDir = value
	case "versions-dir":
		s.VersionsDir = value
	case "vcpkg-root":
		s.VcpkgRoot = value
	case "journal":
		if value == "" {
			s.Journal = nil
			return nil
		}
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("journal: %w", err)
		}
		s.Journal = &enabled
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return nil
}

// ResolveRegistry picks the registry root: the flag value, then
// PORTBUMP_REGISTRY, then the settings file, then fallback.
func (s *Settings) ResolveRegistry(flag, fallback string) string {
	return firstNonEmpty(flag, os.Getenv(EnvRegistry), s.Registry, fallback)
}

// ResolveVcpkgRoot picks the vcpkg installation root: the flag value, then
// VCPKG_ROOT, then the settings file.
func (s *Settings) ResolveVcpkgRoot(flag string) string {
	return firstNonEmpty(flag, os.Getenv(EnvVcpkgRoot), s.VcpkgRoot)
}

// Baseline returns name, or the configured default baseline, or "default".
func (s *Settings) Baseline(name string) string {
	return firstNonEmpty(name, s.DefaultBaseline, "default")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
