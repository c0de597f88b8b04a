package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestUpdateManifestKeepsFieldOrder(t *testing.T) {
	in := []byte(`{
  "name": "old",
  "version": "0.9",
  "description": "Tom & Jerry <cartoon>",
  "dependencies": ["zlib"]
}`)

	out, err := UpdateManifest(in, "foo", "1.0.0", 2)
	if err != nil {
		t.Fatalf("UpdateManifest: %v", err)
	}

	want := `{
  "name": "foo",
  "version": "1.0.0",
  "description": "Tom & Jerry <cartoon>",
  "dependencies": [
    "zlib"
  ],
  "port-version": 2
}
`
	if string(out) != want {
		t.Fatalf("unexpected manifest:\n%s", out)
	}
}

func TestManifestUsesExistingVersionScheme(t *testing.T) {
	m, err := ParseManifest([]byte(`{"name": "foo", "version-date": "2023-01-01", "port-version": 3}`))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if m.VersionKey() != "version-date" || m.Version() != "2023-01-01" || m.PortVersion() != 3 {
		t.Fatalf("unexpected manifest view: %s %s %d", m.VersionKey(), m.Version(), m.PortVersion())
	}

	if err := m.Set("foo", "2024-02-02", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if m.Version() != "2024-02-02" || m.obj.Has("version") {
		t.Fatalf("version written under the wrong key: %v", m.obj.Keys())
	}
}

func TestUpdateManifestRejectsInvalidJSON(t *testing.T) {
	if _, err := UpdateManifest([]byte(`{"name": `), "foo", "1", 0); err == nil {
		t.Fatalf("expected error for truncated manifest")
	}
}

func TestReplaceRef(t *testing.T) {
	in := "vcpkg_from_github(\n    OUT_SOURCE_PATH SOURCE_PATH\n    REPO acme/foo\n    REF v0.9\n    SHA512 0\n    HEAD_REF main\n)\n"

	out, ok := ReplaceRef(in, "deadbeef")
	if !ok {
		t.Fatalf("expected REF directive to be found")
	}
	want := "vcpkg_from_github(\n    OUT_SOURCE_PATH SOURCE_PATH\n    REPO acme/foo\n    REF deadbeef\n    SHA512 0\n    HEAD_REF main\n)\n"
	if out != want {
		t.Fatalf("unexpected portfile:\n%s", out)
	}

	if ref, ok := CurrentRef(out); !ok || ref != "deadbeef" {
		t.Fatalf("CurrentRef = %q, %v", ref, ok)
	}
}

func TestReplaceRefOnlyFirstAndNotHeadRef(t *testing.T) {
	in := "HEAD_REF main\nREF a\nREF b\n"
	out, ok := ReplaceRef(in, "c")
	if !ok || out != "HEAD_REF main\nREF c\nREF b\n" {
		t.Fatalf("unexpected result %q, %v", out, ok)
	}

	if _, ok := ReplaceRef("URLS https://example.com/x.tar.gz\n", "c"); ok {
		t.Fatalf("expected no REF directive")
	}
}

func TestCheckPort(t *testing.T) {
	root := t.TempDir()
	layout := NewLayout(root)
	if err := os.MkdirAll(filepath.Join(root, "ports", "foo"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := layout.CheckPort("foo"); err != nil {
		t.Fatalf("CheckPort(foo): %v", err)
	}
	for _, port := range []string{"bar", "", "..", "foo/../foo"} {
		err := layout.CheckPort(port)
		if !errors.Is(err, ErrPortNotFound) {
			t.Fatalf("CheckPort(%q) = %v, want ErrPortNotFound", port, err)
		}
	}

	ports, err := layout.Ports()
	if err != nil || len(ports) != 1 || ports[0] != "foo" {
		t.Fatalf("Ports = %v, %v", ports, err)
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&Error{Kind: ErrPortNotFound, Port: "foo"}, "port 'foo' not found"},
		{&Error{Kind: ErrPortNotFoundInBaseline, Port: "foo", Baseline: "default"}, "port 'foo' not found in baseline 'default'"},
		{&Error{Kind: ErrBaselineFileMissing, Path: "versions/baseline.json"}, "baseline file not found: versions/baseline.json"},
		{External(errors.New("git commit: exit status 1")), "git commit: exit status 1"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Fatalf("Error() = %q, want %q", got, tt.want)
		}
	}

	if KindOf(External(errors.New("x"))) != ErrExternalCommand {
		t.Fatalf("KindOf did not report ErrExternalCommand")
	}
	if External(nil) != nil {
		t.Fatalf("External(nil) should be nil")
	}
}
