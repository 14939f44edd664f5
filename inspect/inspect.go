// Package inspect implements the validation pass that turns a freshly
// scanned model into a set of diagnostic flags: which checkpoint sets
// are invalid, which ranks are missing files, and which sets are
// complete.
package inspect

import (
	"context"
	"errors"
	"sort"

	"github.com/projecteru2/core/log"

	"github.com/llnl/scrindex/model"
)

// ErrMissingOrInvalid is returned when at least one checkpoint set in
// the model ended up non-complete.
var ErrMissingOrInvalid = errors.New("checkpoint set missing files or invalid")

// Inspect walks every checkpoint set in m, annotating Invalid,
// MissingRanks, and Complete in place. It never fails fatally: every
// anomaly is recorded on the model, and the only return value is
// whether every set ended up complete.
func Inspect(ctx context.Context, m *model.ScanModel) error {
	anyIncomplete := false
	for ckptID, cs := range m.Checkpoints {
		inspectSet(ctx, ckptID, cs)
		if !cs.Complete {
			anyIncomplete = true
		}
	}
	if anyIncomplete {
		return ErrMissingOrInvalid
	}
	return nil
}

func inspectSet(ctx context.Context, ckptID model.CheckpointID, cs *model.CheckpointSet) {
	logger := log.WithFunc("inspect.inspectSet")
	// A set whose rank count isn't declared consistently everywhere is invalid.
	ranksDeclared, ok := cs.DeclaredRanks()
	if !ok {
		cs.Invalid = true
		logger.Warnf(ctx, "checkpoint %d has %d distinct RANKS declarations", ckptID, len(cs.RanksDeclared))
		cs.Complete = false
		return
	}

	ids := make([]model.RankID, 0, len(cs.RanksObserved))
	for id := range cs.RanksObserved {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	// Walk observed ranks in ascending order; any rank in
	// [0, ranksDeclared) not observed along the way is missing.
	expected := model.RankID(0)
	for _, rankID := range ids {
		// Every observed rank must fall within the declared range.
		if rankID < 0 || int(rankID) >= ranksDeclared {
			cs.Invalid = true
			logger.Warnf(ctx, "checkpoint %d: rank %d out of range [0,%d)", ckptID, rankID, ranksDeclared)
		}

		for expected < rankID {
			cs.MissingRanks[expected] = struct{}{}
			expected++
		}

		entry := cs.RanksObserved[rankID]

		// The expected file count must be declared consistently, and
		// the observed count must not exceed it.
		filesExpected, ok := singleInt(entry.FilesExpected)
		if !ok {
			cs.Invalid = true
			logger.Warnf(ctx, "checkpoint %d rank %d has %d distinct FILES declarations", ckptID, rankID, len(entry.FilesExpected))
			expected++
			continue
		}

		observed := len(entry.Files)
		explicitlyIncomplete := false
		for _, f := range entry.Files {
			if f.Complete != nil && !*f.Complete {
				explicitlyIncomplete = true
			}
		}

		if observed > filesExpected {
			cs.Invalid = true
			logger.Warnf(ctx, "checkpoint %d rank %d has %d files, expected at most %d", ckptID, rankID, observed, filesExpected)
		}

		// Short of the expected count, or any file explicitly flagged
		// incomplete, puts the rank in MissingRanks.
		if observed < filesExpected || explicitlyIncomplete {
			cs.MissingRanks[rankID] = struct{}{}
		}

		expected++
	}
	for expected < model.RankID(ranksDeclared) {
		cs.MissingRanks[expected] = struct{}{}
		expected++
	}

	cs.Complete = !cs.Invalid && len(cs.MissingRanks) == 0
}

func singleInt(m map[int]struct{}) (int, bool) {
	if len(m) != 1 {
		return 0, false
	}
	for n := range m {
		return n, true
	}
	return 0, false
}
