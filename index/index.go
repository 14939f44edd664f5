// Package index maintains the prefix-level registry of checkpoint set
// directories and their completeness.
package index

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/llnl/scrindex/hashtree"
	"github.com/llnl/scrindex/model"
	"github.com/llnl/scrindex/progress"
	"github.com/llnl/scrindex/storage"
	"github.com/llnl/scrindex/summary"
	"github.com/llnl/scrindex/utils"
)

// Filename is the prefix-level index file's name.
const Filename = "index.scr.json"

// Entry records one indexed checkpoint set directory.
type Entry struct {
	CheckpointID model.CheckpointID `json:"checkpoint_id"`
	Complete     bool               `json:"complete"`
}

// Tree is the on-disk shape of the prefix-level index: directory name
// to its indexed entry.
type Tree struct {
	Dirs map[string]*Entry `json:"dirs"`
}

var _ storage.Initer = (*Tree)(nil)

// Init ensures Dirs is non-nil after deserialization of an absent or
// empty index file.
func (t *Tree) Init() {
	if t.Dirs == nil {
		t.Dirs = make(map[string]*Entry)
	}
}

// Deps bundles the collaborators AddDir needs to build a summary when
// one is missing.
type Deps struct {
	RebuildBinary     string
	RepairConcurrency int
	Progress          progress.Tracker
}

// AddDir registers dir (a checkpoint set directory under prefix) in
// the prefix-level index. If dir is already indexed this is a no-op
// that never reads the set directory or mutates the index file.
func AddDir(ctx context.Context, prefix, dir string, deps Deps) error {
	lockPath, path := indexPaths(prefix)
	store := hashtree.New[Tree](lockPath, path)

	// entryCopy is detached from the tree read under flock below, so it
	// stays valid after With returns and the lock is released.
	var entryCopy *Entry
	if err := store.With(ctx, func(t *Tree) error {
		if found, lookupErr := utils.LookupCopy(t.Dirs, dir); lookupErr == nil {
			entryCopy = &found
		}
		return nil
	}); err != nil {
		return fmt.Errorf("read index %s: %w", path, err)
	}
	if entryCopy != nil {
		return nil
	}

	setDir := filepath.Join(prefix, dir)
	if err := summary.Build(ctx, setDir, summary.Deps{
		RebuildBinary:     deps.RebuildBinary,
		RepairConcurrency: deps.RepairConcurrency,
		Progress:          deps.Progress,
	}); err != nil {
		return fmt.Errorf("build summary for %s: %w", setDir, err)
	}

	summaryPath := filepath.Join(setDir, summary.Filename)
	cs, err := hashtree.Read[model.CheckpointSet](summaryPath+".lock", summaryPath)
	if err != nil {
		return fmt.Errorf("read summary %s: %w", summaryPath, err)
	}
	if cs.CkptID == 0 {
		return fmt.Errorf("no checkpoint id found in summary %s", summaryPath)
	}

	err = store.Update(ctx, func(t *Tree) error {
		t.Dirs[dir] = &Entry{CheckpointID: cs.CkptID, Complete: cs.Complete}
		return nil
	})
	if deps.Progress != nil {
		deps.Progress.OnEvent(summary.Event{Phase: "index", Dir: dir, Err: err})
	}
	return err
}

func indexPaths(prefix string) (lockPath, path string) {
	path = filepath.Join(prefix, Filename)
	return path + ".lock", path
}
