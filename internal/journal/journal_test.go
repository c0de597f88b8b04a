package journal

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/portbump/portbump/internal/config"
)

func setupTestJournal(t *testing.T) *Context {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv(config.EnvDataDir, tmp)

	ctx, err := Open("")
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	t.Cleanup(func() {
		if err := Close(ctx); err != nil {
			t.Fatalf("Close error: %v", err)
		}
	})

	return ctx
}

func sampleRun() Run {
	return Run{
		Registry:  "/src/registry",
		Port:      "foo",
		Version:   "1.2.0",
		CommitRef: "abc123",
		Baseline:  "default",
		Message:   "[foo] update to 1.2.0",
	}
}

func TestOpenCreatesFileAndSchema(t *testing.T) {
	ctx := setupTestJournal(t)

	if _, err := os.Stat(filepath.Join(config.GetDataDir(), "journal.db")); err != nil {
		t.Fatalf("expected journal file: %v", err)
	}
	if !tableExists(t, ctx.DB, "update_runs") {
		t.Fatalf("expected update_runs table")
	}
}

func TestOpenMemory(t *testing.T) {
	ctx, err := Open(MemoryPath)
	if err != nil {
		t.Fatalf("Open(memory) error: %v", err)
	}
	defer func() { _ = Close(ctx) }()

	if !tableExists(t, ctx.DB, "update_runs") {
		t.Fatalf("expected update_runs table in memory journal")
	}
}

func TestRunLifecycle(t *testing.T) {
	bg := context.Background()
	repo := NewRunRepository(setupTestJournal(t))

	id, err := repo.Start(bg, sampleRun())
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}

	pending, err := repo.FindPending(bg, "/src/registry", "foo")
	if err != nil {
		t.Fatalf("FindPending error: %v", err)
	}
	if pending != nil {
		t.Fatalf("started run must not be pending: %#v", pending)
	}

	if err := repo.MarkCommitted(bg, id); err != nil {
		t.Fatalf("MarkCommitted error: %v", err)
	}
	pending, err = repo.FindPending(bg, "/src/registry", "foo")
	if err != nil {
		t.Fatalf("FindPending error: %v", err)
	}
	if pending == nil || pending.ID != id || pending.Message != "[foo] update to 1.2.0" {
		t.Fatalf("expected committed run to be pending, got %#v", pending)
	}

	if err := repo.MarkCompleted(bg, id, 3, "deadbeef"); err != nil {
		t.Fatalf("MarkCompleted error: %v", err)
	}
	run, err := repo.FindByID(bg, id)
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if run.Status != StatusCompleted || run.PortVersion == nil || *run.PortVersion != 3 || run.GitTree != "deadbeef" {
		t.Fatalf("unexpected completed run: %#v", run)
	}
	if run.CreatedAt.IsZero() || run.UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps, got %#v", run)
	}

	pending, err = repo.FindPending(bg, "/src/registry", "foo")
	if err != nil {
		t.Fatalf("FindPending error: %v", err)
	}
	if pending != nil {
		t.Fatalf("completed run must not be pending")
	}
}

func TestMarkFailedKeepsCommittedRunsResumable(t *testing.T) {
	bg := context.Background()
	repo := NewRunRepository(setupTestJournal(t))

	early, err := repo.Start(bg, sampleRun())
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if err := repo.MarkFailed(bg, early, errors.New("git add failed")); err != nil {
		t.Fatalf("MarkFailed error: %v", err)
	}
	run, err := repo.FindByID(bg, early)
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if run.Status != StatusFailed || run.Error != "git add failed" {
		t.Fatalf("unexpected failed run: %#v", run)
	}

	late, err := repo.Start(bg, sampleRun())
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if err := repo.MarkCommitted(bg, late); err != nil {
		t.Fatalf("MarkCommitted error: %v", err)
	}
	if err := repo.MarkFailed(bg, late, errors.New("amend failed")); err != nil {
		t.Fatalf("MarkFailed error: %v", err)
	}

	pending, err := repo.FindPending(bg, "/src/registry", "foo")
	if err != nil {
		t.Fatalf("FindPending error: %v", err)
	}
	if pending == nil || pending.ID != late || pending.Error != "amend failed" {
		t.Fatalf("expected committed run to stay pending, got %#v", pending)
	}
}

func TestMissingRun(t *testing.T) {
	bg := context.Background()
	repo := NewRunRepository(setupTestJournal(t))

	if err := repo.MarkCommitted(bg, 42); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	run, err := repo.FindByID(bg, 42)
	if err != nil || run != nil {
		t.Fatalf("expected nil run, got %#v, %v", run, err)
	}
}

func TestListAndPrune(t *testing.T) {
	bg := context.Background()
	repo := NewRunRepository(setupTestJournal(t))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := base
	repo.now = func() time.Time {
		tick = tick.Add(time.Hour)
		return tick
	}

	var ids []int64
	for _, port := range []string{"a", "b", "c"} {
		run := sampleRun()
		run.Port = port
		id, err := repo.Start(bg, run)
		if err != nil {
			t.Fatalf("Start error: %v", err)
		}
		ids = append(ids, id)
	}
	other := sampleRun()
	other.Registry = "/elsewhere"
	if _, err := repo.Start(bg, other); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	if err := repo.MarkCompleted(bg, ids[0], 0, "t0"); err != nil {
		t.Fatalf("MarkCompleted error: %v", err)
	}

	runs, err := repo.List(bg, "/src/registry", 2)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(runs) != 2 || runs[0].Port != "c" || runs[1].Port != "b" {
		t.Fatalf("expected newest two runs, got %#v", runs)
	}

	removed, err := repo.Prune(bg, base.Add(100*time.Hour))
	if err != nil {
		t.Fatalf("Prune error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected one finished run pruned, got %d", removed)
	}
	runs, err = repo.List(bg, "/src/registry", 0)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected unfinished runs to survive, got %d", len(runs))
	}
}

func tableExists(t *testing.T, db *sql.DB, table string) bool {
	t.Helper()
	var name string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false
	}
	if err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	return name == table
}
