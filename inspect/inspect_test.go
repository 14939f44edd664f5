package inspect

import (
	"context"
	"errors"
	"testing"

	"github.com/llnl/scrindex/model"
)

func complete(v bool) *bool { return &v }

func newSet(ranksDeclared, filesPerRank int) *model.CheckpointSet {
	cs := model.NewCheckpointSet(1)
	cs.RanksDeclared[ranksDeclared] = struct{}{}
	for r := 0; r < ranksDeclared; r++ {
		rank := cs.Rank(model.RankID(r))
		rank.FilesExpected[filesPerRank] = struct{}{}
		for f := 0; f < filesPerRank; f++ {
			name := "file"
			rank.Files[name+string(rune('0'+f))] = &model.FileRecord{
				Filename: name,
				Complete: complete(true),
			}
		}
	}
	return cs
}

func TestInspectCompleteSet(t *testing.T) {
	m := model.NewScanModel()
	cs := newSet(3, 2)
	m.Checkpoints[1] = cs

	if err := Inspect(context.Background(), m); err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if !cs.Complete {
		t.Error("expected Complete = true")
	}
	if cs.Invalid {
		t.Error("expected Invalid = false")
	}
}

func TestInspectMissingRank(t *testing.T) {
	m := model.NewScanModel()
	cs := newSet(3, 2)
	delete(cs.RanksObserved, 1) // rank 1 never observed
	m.Checkpoints[1] = cs

	err := Inspect(context.Background(), m)
	if !errors.Is(err, ErrMissingOrInvalid) {
		t.Fatalf("Inspect err = %v, want ErrMissingOrInvalid", err)
	}
	if cs.Complete {
		t.Error("expected Complete = false")
	}
	if _, ok := cs.MissingRanks[1]; !ok {
		t.Error("expected rank 1 in MissingRanks")
	}
}

func TestInspectAmbiguousRanksDeclared(t *testing.T) {
	m := model.NewScanModel()
	cs := newSet(3, 2)
	cs.RanksDeclared[4] = struct{}{}
	m.Checkpoints[1] = cs

	_ = Inspect(context.Background(), m)
	if !cs.Invalid {
		t.Error("expected Invalid = true when RanksDeclared is multiply-valued")
	}
	if cs.Complete {
		t.Error("expected Complete = false")
	}
}

func TestInspectRankOutOfRange(t *testing.T) {
	m := model.NewScanModel()
	cs := newSet(2, 1)
	cs.Rank(5) // out of [0,2)
	// give rank 5 a consistent single FilesExpected so it doesn't also
	// trip the files-expected check
	cs.Rank(5).FilesExpected[0] = struct{}{}
	m.Checkpoints[1] = cs

	_ = Inspect(context.Background(), m)
	if !cs.Invalid {
		t.Error("expected Invalid = true for an out-of-range rank")
	}
}

func TestInspectTooManyFiles(t *testing.T) {
	m := model.NewScanModel()
	cs := newSet(1, 1)
	cs.Rank(0).Files["extra"] = &model.FileRecord{Filename: "extra", Complete: complete(true)}
	m.Checkpoints[1] = cs

	_ = Inspect(context.Background(), m)
	if !cs.Invalid {
		t.Error("expected Invalid = true when observed files exceed expected")
	}
}

func TestInspectExplicitlyIncompleteFile(t *testing.T) {
	m := model.NewScanModel()
	cs := newSet(1, 1)
	for _, f := range cs.Rank(0).Files {
		f.Complete = complete(false)
	}
	m.Checkpoints[1] = cs

	_ = Inspect(context.Background(), m)
	if _, ok := cs.MissingRanks[0]; !ok {
		t.Error("expected rank 0 in MissingRanks when a file is explicitly incomplete")
	}
}

func TestInspectAmbiguousFilesExpected(t *testing.T) {
	m := model.NewScanModel()
	cs := newSet(1, 1)
	cs.Rank(0).FilesExpected[9] = struct{}{}
	m.Checkpoints[1] = cs

	_ = Inspect(context.Background(), m)
	if !cs.Invalid {
		t.Error("expected Invalid = true when FilesExpected is multiply-valued")
	}
}
