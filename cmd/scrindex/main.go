// Command scrindex validates a checkpoint set directory, rebuilds
// missing data via XOR parity where possible, and registers it in a
// prefix-level index.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	units "github.com/docker/go-units"
	"github.com/projecteru2/core/log"

	"github.com/llnl/scrindex/config"
	"github.com/llnl/scrindex/index"
	"github.com/llnl/scrindex/progress"
	"github.com/llnl/scrindex/summary"
)

func main() {
	if len(os.Args) != 3 {
		usage()
	}
	prefix := os.Args[1]
	dir := os.Args[2]

	conf := config.DefaultConfig()
	if path := os.Getenv("SCRINDEX_CONFIG"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			fatalf("load config %s: %v", path, err)
		}
		conf = loaded
	}

	ctx := context.Background()
	if err := log.SetupLog(ctx, conf.Log, ""); err != nil {
		fatalf("setup logging: %v", err)
	}

	logger := log.WithFunc("main")
	tracker := progress.NewTracker(func(e summary.Event) {
		if e.Err != nil {
			logger.Warnf(ctx, "%s: %s failed: %v", e.Dir, e.Phase, e.Err)
			return
		}
		logger.Infof(ctx, "%s: %s", e.Dir, e.Phase)
	})

	if err := index.AddDir(ctx, prefix, dir, index.Deps{
		RebuildBinary:     conf.RebuildBinary,
		RepairConcurrency: conf.RepairConcurrency,
		Progress:          tracker,
	}); err != nil {
		fatalf("index %s: %v", dir, err)
	}

	summaryPath := filepath.Join(prefix, dir, summary.Filename)
	size := int64(0)
	if info, statErr := os.Stat(summaryPath); statErr == nil {
		size = info.Size()
	}
	fmt.Printf("Indexed: %s (summary: %s)\n", dir, formatSize(size))
}

func formatSize(bytes int64) string {
	return units.HumanSize(float64(bytes))
}

func usage() {
	fmt.Fprintf(os.Stderr, `scrindex - checkpoint set indexing and recovery

Usage: scrindex <prefix> <dir>

Environment:
  SCRINDEX_CONFIG    Path to a JSON config file (rebuild_binary, repair_concurrency, log)
`)
	os.Exit(1)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
