package git

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// initRepo creates a repository with one committed file under ports/foo.
func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skipf("Skipping test: git not available: %v", err)
	}

	tmpDir := t.TempDir()
	for _, args := range [][]string{
		{"init"},
		{"config", "user.email", "test@example.com"},
		{"config", "user.name", "Test User"},
		{"config", "commit.gpgsign", "false"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = tmpDir
		if err := cmd.Run(); err != nil {
			t.Skipf("Skipping test: git %s failed: %v", args[0], err)
		}
	}

	portDir := filepath.Join(tmpDir, "ports", "foo")
	if err := os.MkdirAll(portDir, 0o755); err != nil {
		t.Fatalf("Failed to create port dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(portDir, "vcpkg.json"), []byte(`{"name":"foo"}`), 0o644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	repo := Open(tmpDir)
	ctx := context.Background()
	if err := repo.Add(ctx, "ports/foo"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := repo.Commit(ctx, "Initial commit"); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	return tmpDir
}

func TestTreeIDMatchesLsTree(t *testing.T) {
	dir := initRepo(t)
	repo := Open(dir)
	ctx := context.Background()

	id, err := repo.TreeID(ctx, "ports/foo")
	if err != nil {
		t.Fatalf("TreeID returned error: %v", err)
	}

	out, err := repo.Run(ctx, "ls-tree", "HEAD", "ports")
	if err != nil {
		t.Fatalf("ls-tree failed: %v", err)
	}
	if !strings.Contains(out, id) {
		t.Fatalf("expected ls-tree output %q to contain tree id %q", out, id)
	}
}

func TestCommitAndAmendKeepsSubject(t *testing.T) {
	dir := initRepo(t)
	repo := Open(dir)
	ctx := context.Background()

	if err := os.WriteFile(filepath.Join(dir, "ports", "foo", "portfile.cmake"), []byte("REF a\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := repo.Add(ctx, "ports/foo"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := repo.Commit(ctx, "Update foo to 1.0/a"); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	before, err := repo.HeadCommit(ctx)
	if err != nil {
		t.Fatalf("HeadCommit: %v", err)
	}

	if err := os.MkdirAll(filepath.Join(dir, "versions"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "versions", "baseline.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := repo.Add(ctx, "versions/baseline.json"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := repo.Amend(ctx); err != nil {
		t.Fatalf("Amend: %v", err)
	}

	subject, err := repo.HeadSubject(ctx)
	if err != nil {
		t.Fatalf("HeadSubject: %v", err)
	}
	if subject != "Update foo to 1.0/a" {
		t.Fatalf("expected amended commit to keep its subject, got %q", subject)
	}
	after, _ := repo.HeadCommit(ctx)
	if after == before {
		t.Fatalf("expected amend to rewrite HEAD")
	}
	count, err := repo.Run(ctx, "rev-list", "--count", "HEAD")
	if err != nil || count != "2" {
		t.Fatalf("expected 2 commits after amend, got %q (%v)", count, err)
	}
}

func TestCommandErrorCarriesExitCode(t *testing.T) {
	dir := initRepo(t)
	repo := Open(dir)

	_, err := repo.TreeID(context.Background(), "ports/missing")
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected *CommandError, got %v", err)
	}
	if cmdErr.ExitCode == 0 {
		t.Fatalf("expected nonzero exit code")
	}
	if !strings.Contains(cmdErr.Error(), "rev-parse") {
		t.Fatalf("expected message to name the command, got %q", cmdErr.Error())
	}
}

func TestGetInfo(t *testing.T) {
	info := GetInfo(context.Background(), t.TempDir())
	if info.IsGitRepo {
		t.Error("Expected IsGitRepo to be false for non-git directory")
	}

	dir := initRepo(t)
	info = GetInfo(context.Background(), filepath.Join(dir, "ports", "foo"))
	if !info.IsGitRepo {
		t.Fatal("Expected IsGitRepo to be true for git repository")
	}
	if info.Head == "" || info.CurrentBranch == "" {
		t.Errorf("expected head and branch to be set, got %+v", info)
	}
	wantTop, _ := filepath.EvalSymlinks(dir)
	gotTop, _ := filepath.EvalSymlinks(info.TopLevel)
	if gotTop != wantTop {
		t.Errorf("TopLevel = %q, want %q", gotTop, wantTop)
	}
}
