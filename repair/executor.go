package repair

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/projecteru2/core/log"

	"github.com/llnl/scrindex/model"
)

// Execute forks and execs binary once per command, each with dir as
// its working directory, and waits for every child to finish. Unlike
// a typical errgroup pipeline, one child's failure never cancels its
// siblings: the executor aggregates every outcome regardless of order,
// so it runs each command against the caller's ctx as given rather
// than errgroup.WithContext's auto-cancelling one.
func Execute(ctx context.Context, dir string, cmds []model.RepairCommand, binary string, limit int) error {
	if len(cmds) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, cmd := range cmds {
		cmdIdx := i
		argv := cmd.Argv
		g.Go(func() error {
			return runOne(ctx, dir, binary, cmdIdx, argv)
		})
	}
	return g.Wait()
}

// runOne launches one rebuild child and waits for it synchronously.
// It never leaves a process running past this call, so there is no
// pid bookkeeping to do beyond the single Run call.
func runOne(ctx context.Context, dir, binary string, idx int, argv []string) error {
	logger := log.WithFunc("repair.runOne")
	args := argv[1:] // Argv[0] is the planner's binary placeholder
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = dir
	logger.Infof(ctx, "rebuild command %d: %s %v (dir=%s)", idx, binary, args, dir)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("rebuild command %d (%s %v): %w", idx, binary, args, err)
	}
	return nil
}
