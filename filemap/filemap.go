// Package filemap implements the concrete on-disk realization of the
// per-rank expected-file-count collaborator the scanner's pass A reads.
package filemap

import (
	"sort"
	"strconv"

	"github.com/llnl/scrindex/hashtree"
)

// tree is the on-disk shape: checkpoint id -> rank id -> expected count.
type tree struct {
	Checkpoints map[string]map[string]int `json:"checkpoints"`
}

// Filemap attributes (ckpt_id, rank_id) pairs to their declared
// expected file count.
type Filemap struct {
	t tree
}

// Read loads the filemap at path. A missing file yields an empty,
// valid Filemap (zero checkpoints), matching a zero-value tree rather
// than an error, since pass A only calls Read on files that already
// matched the .scrfilemap suffix.
func Read(path string) (*Filemap, error) {
	t, err := hashtree.Read[tree](path+".lock", path)
	if err != nil {
		return nil, err
	}
	if t.Checkpoints == nil {
		t.Checkpoints = make(map[string]map[string]int)
	}
	return &Filemap{t: t}, nil
}

// IterCheckpoints returns the checkpoint ids this filemap declares,
// ascending.
func (f *Filemap) IterCheckpoints() []int {
	ids := make([]int, 0, len(f.t.Checkpoints))
	for k := range f.t.Checkpoints {
		n, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		ids = append(ids, n)
	}
	sort.Ints(ids)
	return ids
}

// IterRanksOf returns the rank ids declared for ckptID, ascending.
func (f *Filemap) IterRanksOf(ckptID int) []int {
	ranks, ok := f.t.Checkpoints[strconv.Itoa(ckptID)]
	if !ok {
		return nil
	}
	out := make([]int, 0, len(ranks))
	for k := range ranks {
		n, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// NumExpectedFiles returns the declared expected file count for
// (ckptID, rankID), or 0 if undeclared.
func (f *Filemap) NumExpectedFiles(ckptID, rankID int) int {
	ranks, ok := f.t.Checkpoints[strconv.Itoa(ckptID)]
	if !ok {
		return 0
	}
	return ranks[strconv.Itoa(rankID)]
}
