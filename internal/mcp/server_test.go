package mcp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/portbump/portbump/internal/config"
	"github.com/portbump/portbump/internal/registry"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func newTestServer(t *testing.T) (*Server, registry.Layout) {
	t.Helper()
	t.Setenv(config.EnvRegistry, "")
	layout := registry.NewLayout(t.TempDir())
	writeFile(t, layout.ManifestPath("foo"), `{"name": "foo", "version": "1.0"}`)
	writeFile(t, layout.HistoryPath("foo"), `{"versions": [
  {"version": "1.0", "port-version": 1, "git-tree": "b"},
  {"version": "1.0", "port-version": 0, "git-tree": "a"}
]}`)
	writeFile(t, layout.BaselinePath(), `{"default": {"foo": {"baseline": "1.0", "port-version": 1}}, "stable": {}}`)

	return NewServer("test", "", &config.Settings{Registry: layout.Root}, nil), layout
}

func TestHandleVersions(t *testing.T) {
	s, _ := newTestServer(t)

	_, out, err := s.handleVersions(context.Background(), nil, VersionsInput{Port: "foo"})
	if err != nil {
		t.Fatalf("handleVersions error: %v", err)
	}
	if len(out.Versions) != 2 || out.Versions[0].PortVersion != 1 || out.Versions[0].Scheme != "version" {
		t.Fatalf("unexpected versions %+v", out.Versions)
	}
	if out.Declared == nil || out.Declared.Version != "1.0" || out.Declared.Ref != "" {
		t.Fatalf("unexpected declared info %+v", out.Declared)
	}

	_, _, err = s.handleVersions(context.Background(), nil, VersionsInput{Port: "bar"})
	if !errors.Is(err, registry.ErrPortNotFound) {
		t.Fatalf("expected ErrPortNotFound, got %v", err)
	}
}

func TestHandleBaseline(t *testing.T) {
	s, layout := newTestServer(t)
	ctx := context.Background()

	_, out, err := s.handleBaseline(ctx, nil, BaselineInput{Registry: layout.Root})
	if err != nil {
		t.Fatalf("handleBaseline error: %v", err)
	}
	if out.Baseline != "default" || len(out.Entries) != 1 || out.Entries[0].PortVersion != 1 {
		t.Fatalf("unexpected baseline output %+v", out)
	}

	_, _, err = s.handleBaseline(ctx, nil, BaselineInput{Baseline: "stable", Port: "foo"})
	if !errors.Is(err, registry.ErrPortNotFoundInBaseline) {
		t.Fatalf("expected ErrPortNotFoundInBaseline, got %v", err)
	}

	_, _, err = s.handleBaseline(ctx, nil, BaselineInput{Baseline: "nightly"})
	if !errors.Is(err, registry.ErrBaselineNotFound) {
		t.Fatalf("expected ErrBaselineNotFound, got %v", err)
	}
}

func TestHandleCompare(t *testing.T) {
	s, _ := newTestServer(t)

	_, out, err := s.handleCompare(context.Background(), nil, CompareInput{A: "1.2", B: "1.2.0"})
	if err != nil {
		t.Fatalf("handleCompare error: %v", err)
	}
	if out.Result != -1 || out.Symbol != "<" {
		t.Fatalf("unexpected comparison %+v", out)
	}
}

func TestHandleUpdatePortValidatesInput(t *testing.T) {
	s, _ := newTestServer(t)

	if _, _, err := s.handleUpdatePort(context.Background(), nil, UpdatePortInput{Port: "foo"}); err == nil {
		t.Fatalf("expected error for missing version and commit")
	}
	_, _, err := s.handleUpdatePort(context.Background(), nil, UpdatePortInput{Port: "nope", Version: "1", Commit: "c"})
	if !errors.Is(err, registry.ErrPortNotFound) {
		t.Fatalf("expected ErrPortNotFound, got %v", err)
	}
}
