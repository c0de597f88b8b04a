// Package usecase drives the port update workflow across the registry files,
// git and the run journal.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/portbump/portbump/internal/journal"
	"github.com/portbump/portbump/internal/jsonfile"
	"github.com/portbump/portbump/internal/registry"
)

// Git is the subset of git the update workflow needs.
type Git interface {
	TreeResolver
	Add(ctx context.Context, paths ...string) error
	Commit(ctx context.Context, message string) error
	Amend(ctx context.Context) error
	HeadSubject(ctx context.Context) (string, error)
}

// Journal records update runs so an interrupted update can be resumed.
type Journal interface {
	Start(ctx context.Context, run journal.Run) (int64, error)
	MarkCommitted(ctx context.Context, id int64) error
	MarkCompleted(ctx context.Context, id int64, portVersion int, gitTree string) error
	MarkFailed(ctx context.Context, id int64, cause error) error
	FindPending(ctx context.Context, registry, port string) (*journal.Run, error)
}

// Steps after the port commit, named in IncompleteUpdate errors.
const (
	StepTreeID   = "resolve tree id"
	StepHistory  = "record version history"
	StepBaseline = "advance baseline"
	StepAmend    = "amend commit"
)

// UpdateInput names the port, the upstream version and source commit, and the
// baseline to advance. An empty Baseline selects "default".
type UpdateInput struct {
	Port     string
	Version  string
	CommitID string
	Baseline string
}

// UpdateResult describes a finished update.
type UpdateResult struct {
	Port        string
	Version     string
	PortVersion int
	GitTree     string
	Baseline    registry.AdvanceResult
	// RefUpdated is false when the portfile had no REF directive.
	RefUpdated bool
	// Resumed is set when the port commit came from an earlier run.
	Resumed bool
}

// Update runs the port update workflow against one registry.
type Update struct {
	layout    registry.Layout
	git       Git
	journal   Journal
	resolver  *PortVersionResolver
	baselines *registry.BaselineStore
}

// NewUpdate returns the workflow for layout. j may be nil to disable the run
// journal.
func NewUpdate(layout registry.Layout, git Git, j Journal) *Update {
	return &Update{
		layout:    layout,
		git:       git,
		journal:   j,
		resolver:  NewPortVersionResolver(layout, git),
		baselines: registry.NewBaselineStore(layout),
	}
}

// CommitMessage is the subject of the port commit.
func CommitMessage(port, version, commitID string) string {
	return fmt.Sprintf("Update %s to %s/%s", port, version, commitID)
}

// Run updates the port's manifest and portfile, commits the port directory,
// records the new version in the history and the baseline, and amends the
// commit with both files.
//
// Nothing is written when the port is missing or its files cannot be
// prepared. A failure after the port commit returns an ErrIncompleteUpdate
// error; running again with the same input resumes from the commit when a
// journal is configured.
func (u *Update) Run(ctx context.Context, in UpdateInput) (*UpdateResult, error) {
	if in.Baseline == "" {
		in.Baseline = registry.DefaultBaseline
	}
	if err := u.layout.CheckPort(in.Port); err != nil {
		return nil, err
	}

	message := CommitMessage(in.Port, in.Version, in.CommitID)
	result := &UpdateResult{Port: in.Port, Version: in.Version, RefUpdated: true}

	runID, resumed := u.resume(ctx, in, message)
	if resumed {
		slog.Info("resuming update after port commit", "port", in.Port, "version", in.Version, "run", runID)
		result.Resumed = true
	} else {
		runID = u.start(ctx, in, message)

		refUpdated, err := u.commitPort(ctx, in, message)
		if err != nil {
			u.markFailed(ctx, runID, err)
			return nil, err
		}
		result.RefUpdated = refUpdated
		u.markCommitted(ctx, runID)
	}

	if err := u.finalize(ctx, in, result); err != nil {
		u.markFailed(ctx, runID, err)
		return nil, err
	}

	if u.journal != nil && runID != 0 {
		if err := u.journal.MarkCompleted(ctx, runID, result.PortVersion, result.GitTree); err != nil {
			slog.Warn("journal: could not complete run", "run", runID, "error", err)
		}
	}
	return result, nil
}

// commitPort rewrites the manifest and portfile and commits the port
// directory. Both files are prepared in memory first.
func (u *Update) commitPort(ctx context.Context, in UpdateInput, message string) (bool, error) {
	portVersion, err := u.resolver.NextPortVersion(in.Port, in.Version)
	if err != nil {
		return false, err
	}

	manifestPath := u.layout.ManifestPath(in.Port)
	//nolint:gosec // G304: path is inside the registry
	manifestData, err := os.ReadFile(manifestPath)
	if err != nil {
		return false, fmt.Errorf("read manifest: %w", err)
	}
	newManifest, err := registry.UpdateManifest(manifestData, in.Port, in.Version, portVersion)
	if err != nil {
		return false, &registry.Error{Kind: registry.ErrMalformedStore, Port: in.Port, Path: manifestPath, Err: err}
	}

	portfilePath := u.layout.PortfilePath(in.Port)
	//nolint:gosec // G304: path is inside the registry
	portfileData, err := os.ReadFile(portfilePath)
	if err != nil {
		return false, fmt.Errorf("read portfile: %w", err)
	}
	newPortfile, refUpdated := registry.ReplaceRef(string(portfileData), in.CommitID)
	if !refUpdated {
		slog.Warn("portfile has no REF directive; left unchanged", "port", in.Port, "path", portfilePath)
	}

	if err := jsonfile.WriteBytes(manifestPath, newManifest); err != nil {
		return false, fmt.Errorf("write manifest: %w", err)
	}
	if refUpdated {
		if err := jsonfile.WriteBytes(portfilePath, []byte(newPortfile)); err != nil {
			if restoreErr := jsonfile.WriteBytes(manifestPath, manifestData); restoreErr != nil {
				slog.Error("could not restore manifest", "path", manifestPath, "error", restoreErr)
			}
			return false, fmt.Errorf("write portfile: %w", err)
		}
	}

	if err := u.git.Add(ctx, u.layout.PortTreePath(in.Port)); err != nil {
		return false, registry.External(err)
	}
	if err := u.git.Commit(ctx, message); err != nil {
		return false, registry.External(err)
	}
	return refUpdated, nil
}

// finalize records the committed tree in the history and the baseline and
// folds both files into the port commit.
func (u *Update) finalize(ctx context.Context, in UpdateInput, result *UpdateResult) error {
	incomplete := func(step string, err error) error {
		return &registry.Error{
			Kind:     registry.ErrIncompleteUpdate,
			Port:     in.Port,
			Version:  in.Version,
			Baseline: in.Baseline,
			Step:     step,
			Err:      err,
		}
	}

	record := u.resolver.Record
	if result.Resumed {
		record = u.resolver.Resume
	}
	rec, err := record(ctx, in.Port, in.Version)
	if err != nil {
		step := StepHistory
		if registry.KindOf(err) == registry.ErrExternalCommand {
			step = StepTreeID
		}
		return incomplete(step, err)
	}
	result.PortVersion = rec.PortVersion
	result.GitTree = rec.GitTree

	adv, err := u.baselines.Advance(in.Baseline, in.Port, in.Version, rec.PortVersion)
	if err != nil {
		return incomplete(StepBaseline, err)
	}
	result.Baseline = adv
	if !adv.Changed() {
		slog.Warn("baseline not advanced: it already holds a newer or equal version",
			"baseline", in.Baseline,
			"port", in.Port,
			"current", adv.Current.Baseline,
			"current-port-version", adv.Current.PortVersion,
			"candidate", in.Version,
			"candidate-port-version", rec.PortVersion,
		)
	}

	if err := u.git.Add(ctx, u.relative(rec.Path), u.relative(u.baselines.Path())); err != nil {
		return incomplete(StepAmend, registry.External(err))
	}
	if err := u.git.Amend(ctx); err != nil {
		return incomplete(StepAmend, registry.External(err))
	}
	return nil
}

// relative returns path relative to the registry root, where git runs.
func (u *Update) relative(path string) string {
	rel, err := filepath.Rel(u.layout.Root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// resume reports the journal run to continue, if the latest run for the port
// stopped after its commit with the same input and that commit is HEAD.
func (u *Update) resume(ctx context.Context, in UpdateInput, message string) (int64, bool) {
	if u.journal == nil {
		return 0, false
	}
	run, err := u.journal.FindPending(ctx, u.layout.Root, in.Port)
	if err != nil {
		slog.Warn("journal: could not look up pending run", "port", in.Port, "error", err)
		return 0, false
	}
	if run == nil || run.Message != message || run.Baseline != in.Baseline {
		return 0, false
	}
	subject, err := u.git.HeadSubject(ctx)
	if err != nil {
		slog.Debug("could not read HEAD subject", "error", err)
		return 0, false
	}
	if subject != message {
		return 0, false
	}
	return run.ID, true
}

func (u *Update) start(ctx context.Context, in UpdateInput, message string) int64 {
	if u.journal == nil {
		return 0
	}
	id, err := u.journal.Start(ctx, journal.Run{
		Registry:  u.layout.Root,
		Port:      in.Port,
		Version:   in.Version,
		CommitRef: in.CommitID,
		Baseline:  in.Baseline,
		Message:   message,
	})
	if err != nil {
		slog.Warn("journal: could not record run", "port", in.Port, "error", err)
		return 0
	}
	return id
}

func (u *Update) markCommitted(ctx context.Context, id int64) {
	if u.journal == nil || id == 0 {
		return
	}
	if err := u.journal.MarkCommitted(ctx, id); err != nil {
		slog.Warn("journal: could not mark run committed", "run", id, "error", err)
	}
}

func (u *Update) markFailed(ctx context.Context, id int64, cause error) {
	if u.journal == nil || id == 0 {
		return
	}
	if err := u.journal.MarkFailed(ctx, id, cause); err != nil && !errors.Is(err, journal.ErrRunNotFound) {
		slog.Warn("journal: could not mark run failed", "run", id, "error", err)
	}
}
