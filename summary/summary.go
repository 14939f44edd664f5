// Package summary builds and persists the per-set summary file: the
// attested, post-scan view of one checkpoint set's completeness.
package summary

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/projecteru2/core/log"

	"github.com/llnl/scrindex/hashtree"
	"github.com/llnl/scrindex/inspect"
	"github.com/llnl/scrindex/model"
	"github.com/llnl/scrindex/progress"
	"github.com/llnl/scrindex/repair"
	"github.com/llnl/scrindex/scan"
)

// Filename is the attested summary file's name within a checkpoint
// set directory.
const Filename = "summary.scr"

// ErrAmbiguousCheckpointSet is returned when a scan of the directory
// produces zero or more than one checkpoint id: there is no single
// set to persist as the summary.
var ErrAmbiguousCheckpointSet = errors.New("directory does not contain exactly one checkpoint set")

// Event is the progress event Build reports through Deps.Progress.
type Event struct {
	Phase string // "scan", "repair", "persist"; index.AddDir also sends "index"
	Dir   string
	Err   error
}

func emit(p progress.Tracker, phase, dir string, err error) {
	if p == nil {
		p = progress.Nop
	}
	p.OnEvent(Event{Phase: phase, Dir: dir, Err: err})
}

// Deps bundles the repair collaborators SummaryBuilder needs to
// attempt a single rebuild pass.
type Deps struct {
	RebuildBinary     string
	RepairConcurrency int
	Progress          progress.Tracker
}

// Build returns success if a summary file already exists at dir, or
// otherwise scans, inspects, optionally repairs once, and persists
// the trimmed result. Success here means only that the summary file
// now exists — not that the checkpoint it describes is complete; the
// persisted set's Complete field carries that fact.
func Build(ctx context.Context, dir string, deps Deps) error {
	lockPath, path := summaryPaths(dir)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	emit(deps.Progress, "scan", dir, nil)
	m, err := scan.Scan(ctx, dir)
	if err != nil {
		emit(deps.Progress, "scan", dir, err)
		return fmt.Errorf("scan %s: %w", dir, err)
	}

	if inspectErr := inspect.Inspect(ctx, m); inspectErr != nil {
		attemptRepair(ctx, dir, m, deps)
	}

	cs, ok := m.SoleCheckpoint()
	if !ok {
		log.WithFunc("summary.Build").Warnf(ctx, "%s: scan produced %d checkpoint ids, want 1", dir, len(m.Checkpoints))
		return ErrAmbiguousCheckpointSet
	}

	cs.Trim()
	err = hashtree.Write(lockPath, path, *cs)
	emit(deps.Progress, "persist", dir, err)
	return err
}

// attemptRepair runs the planner and, if any checkpoint set produced
// commands and none is unrecoverable, the executor — then, if every
// rebuild child succeeded, rescans and reinspects once. There is no
// second repair attempt regardless of the outcome.
func attemptRepair(ctx context.Context, dir string, m *model.ScanModel, deps Deps) {
	logger := log.WithFunc("summary.attemptRepair")

	var cmds []model.RepairCommand
	unrecoverable := false
	for _, cs := range m.Checkpoints {
		if cs.Invalid {
			unrecoverable = true
			continue
		}
		cmds = append(cmds, repair.Plan(cs)...)
		if len(cs.UnrecoverableXor) > 0 {
			unrecoverable = true
		}
	}

	if len(cmds) == 0 || unrecoverable {
		return
	}

	emit(deps.Progress, "repair", dir, nil)
	if err := repair.Execute(ctx, dir, cmds, deps.RebuildBinary, deps.RepairConcurrency); err != nil {
		logger.Warnf(ctx, "%s: rebuild failed: %v", dir, err)
		emit(deps.Progress, "repair", dir, err)
		return
	}
	emit(deps.Progress, "repair", dir, nil)

	rescanned, err := scan.Scan(ctx, dir)
	if err != nil {
		logger.Warnf(ctx, "%s: rescan after rebuild: %v", dir, err)
		return
	}
	*m = *rescanned
	_ = inspect.Inspect(ctx, m)
}

func summaryPaths(dir string) (lockPath, path string) {
	path = filepath.Join(dir, Filename)
	return path + ".lock", path
}
