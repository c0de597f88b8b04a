package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestGetDataDirWithExplicitEnv(t *testing.T) {
	tmpDir := t.TempDir()
	customDir := filepath.Join(tmpDir, "custom")

	t.Setenv(EnvDataDir, customDir)
	t.Setenv("XDG_DATA_HOME", "")

	got := GetDataDir()
	if got != customDir {
		t.Fatalf("expected %q, got %q", customDir, got)
	}
}

func TestGetDataDirFallsBackToXDG(t *testing.T) {
	tmpDir := t.TempDir()
	xdgDir := filepath.Join(tmpDir, "xdg")

	t.Setenv(EnvDataDir, "")
	t.Setenv("XDG_DATA_HOME", xdgDir)

	got := GetDataDir()
	want := filepath.Join(xdgDir, "portbump")
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestGetJournalPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv(EnvDataDir, tmpDir)

	if got, want := GetJournalPath(), filepath.Join(tmpDir, "journal.db"); got != want {
		t.Fatalf("GetJournalPath expected %q, got %q", want, got)
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	t.Setenv(EnvConfig, filepath.Join(t.TempDir(), "nope.yaml"))

	s, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if s.Registry != "" || !s.JournalEnabled() {
		t.Fatalf("expected zero settings, got %+v", s)
	}
	if s.Baseline("") != "default" {
		t.Fatalf("expected default baseline, got %q", s.Baseline(""))
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	off := false
	want := &Settings{
		Registry:        "/src/registry",
		DefaultBaseline: "stable",
		VcpkgRoot:       "/opt/vcpkg",
		Journal:         &off,
	}
	if err := want.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.Registry != want.Registry || got.DefaultBaseline != "stable" || got.VcpkgRoot != "/opt/vcpkg" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.JournalEnabled() {
		t.Fatalf("expected journal to be disabled")
	}
	if got.Baseline("") != "stable" || got.Baseline("nightly") != "nightly" {
		t.Fatalf("unexpected baseline resolution")
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("registry: [unterminated"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestResolvePrecedence(t *testing.T) {
	s := &Settings{Registry: "/from/config", VcpkgRoot: "/vcpkg/config"}

	t.Setenv(EnvRegistry, "")
	t.Setenv(EnvVcpkgRoot, "")
	if got := s.ResolveRegistry("", "/cwd"); got != "/from/config" {
		t.Fatalf("expected config registry, got %q", got)
	}

	t.Setenv(EnvRegistry, "/from/env")
	t.Setenv(EnvVcpkgRoot, "/vcpkg/env")
	if got := s.ResolveRegistry("", "/cwd"); got != "/from/env" {
		t.Fatalf("expected env registry, got %q", got)
	}
	if got := s.ResolveRegistry("/from/flag", "/cwd"); got != "/from/flag" {
		t.Fatalf("expected flag registry, got %q", got)
	}
	if got := s.ResolveVcpkgRoot(""); got != "/vcpkg/env" {
		t.Fatalf("expected env vcpkg root, got %q", got)
	}

	empty := &Settings{}
	t.Setenv(EnvRegistry, "")
	if got := empty.ResolveRegistry("", "/cwd"); got != "/cwd" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestSettingsSet(t *testing.T) {
	s := &Settings{}
	for _, kv := range [][2]string{
		{"registry", "/srv/registry"},
		{"default-baseline", "stable"},
		{"ports-dir", "recipes"},
		{"versions-dir", "db"},
		{"vcpkg-root", "/opt/vcpkg"},
		{"journal", "false"},
	} {
		if err := s.Set(kv[0], kv[1]); err != nil {
			t.Fatalf("Set(%s): %v", kv[0], err)
		}
	}
	if s.Registry != "/srv/registry" || s.DefaultBaseline != "stable" || s.PortsDir != "recipes" ||
		s.VersionsDir != "db" || s.VcpkgRoot != "/opt/vcpkg" || s.JournalEnabled() {
		t.Fatalf("unexpected settings %+v", s)
	}

	if err := s.Set("journal", ""); err != nil || s.Journal != nil {
		t.Fatalf("expected journal to be cleared, got %v, %v", s.Journal, err)
	}
	if err := s.Set("journal", "maybe"); err == nil {
		t.Fatalf("expected error for invalid bool")
	}
	if err := s.Set("colour", "red"); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("expected ErrUnknownKey, got %v", err)
	}
}
