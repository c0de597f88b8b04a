// Package git drives the git executable for the registry working tree.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// CommandError is returned when git exits unsuccessfully.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

// Runner executes git in dir and returns its trimmed standard output.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// ExecRunner runs the git binary found on PATH.
type ExecRunner struct {
	// Binary overrides the executable name, "git" when empty.
	Binary string
}

// Run implements Runner.
func (r ExecRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	bin := r.Binary
	if bin == "" {
		bin = "git"
	}

	//nolint:gosec // G204: arguments are built by this package
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("running git", "dir", dir, "args", args)
	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return "", &CommandError{
			Args:     args,
			ExitCode: exitCode,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
	}

	return strings.TrimSpace(stdout.String()), nil
}

// Repo is a git working tree.
type Repo struct {
	Dir    string
	runner Runner
}

// Open returns a Repo for dir that shells out to git. An empty dir means the
// current working directory.
func Open(dir string) *Repo {
	return NewRepo(dir, ExecRunner{})
}

// NewRepo returns a Repo for dir that uses runner.
func NewRepo(dir string, runner Runner) *Repo {
	if dir == "" {
		if wd, err := os.Getwd(); err == nil {
			dir = wd
		}
	}
	return &Repo{Dir: dir, runner: runner}
}

// Run executes an arbitrary git command in the working tree.
func (r *Repo) Run(ctx context.Context, args ...string) (string, error) {
	return r.runner.Run(ctx, r.Dir, args...)
}

// TopLevel returns the root of the working tree containing Dir.
func (r *Repo) TopLevel(ctx context.Context) (string, error) {
	return r.Run(ctx, "rev-parse", "--show-toplevel")
}

// Add stages paths.
func (r *Repo) Add(ctx context.Context, paths ...string) error {
	args := append([]string{"add", "--"}, paths...)
	_, err := r.Run(ctx, args...)
	return err
}

// Commit records the staged changes with message.
func (r *Repo) Commit(ctx context.Context, message string) error {
	_, err := r.Run(ctx, "commit", "-m", message)
	return err
}

// Amend folds the staged changes into HEAD, keeping its message.
func (r *Repo) Amend(ctx context.Context) error {
	_, err := r.Run(ctx, "commit", "--amend", "--no-edit")
	return err
}

// TreeID returns the object id of the tree at path in HEAD. path is relative
// to Dir and slash separated.
func (r *Repo) TreeID(ctx context.Context, path string) (string, error) {
	out, err := r.Run(ctx, "rev-parse", "HEAD:./"+strings.TrimSuffix(path, "/")+"/")
	if err != nil {
		return "", err
	}
	id, _, _ := strings.Cut(out, "\n")
	if id == "" {
		return "", fmt.Errorf("git rev-parse returned no tree id for %s", path)
	}
	return id, nil
}

// HeadSubject returns the first line of HEAD's commit message.
func (r *Repo) HeadSubject(ctx context.Context) (string, error) {
	return r.Run(ctx, "log", "-1", "--format=%s")
}

// HeadCommit returns the commit id of HEAD.
func (r *Repo) HeadCommit(ctx context.Context) (string, error) {
	return r.Run(ctx, "rev-parse", "HEAD")
}

// Info describes the working tree a command runs in.
type Info struct {
	IsGitRepo     bool
	TopLevel      string
	CurrentBranch string
	Head          string
}

// GetInfo inspects dir. A directory outside any repository, or one without
// commits yet, yields partial information rather than an error.
func GetInfo(ctx context.Context, dir string) *Info {
	repo := Open(dir)

	top, err := repo.TopLevel(ctx)
	if err != nil || top == "" {
		return &Info{IsGitRepo: false}
	}

	info := &Info{IsGitRepo: true, TopLevel: top}
	if branch, err := repo.Run(ctx, "rev-parse", "--abbrev-ref", "HEAD"); err == nil {
		info.CurrentBranch = branch
	}
	if head, err := repo.HeadCommit(ctx); err == nil {
		info.Head = head
	}
	return info
}
