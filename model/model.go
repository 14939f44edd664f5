// Package model holds the in-memory fingerprint of one or more
// checkpoint sets as built by the scanner, annotated by the inspector,
// and consulted by the repair planner and summary builder.
package model

import "github.com/llnl/scrindex/crcvalue"

// CheckpointID identifies a checkpoint across the job.
type CheckpointID int

// RankID identifies one participant, in [0, RanksDeclared).
type RankID int

// XorSetID names a redundancy group.
type XorSetID int

// MemberIndex is the 1-based position of a rank within its XOR set.
type MemberIndex int

// FileRecord describes one observed rank file.
type FileRecord struct {
	Filename string
	Filesize int64
	CRC32    *crcvalue.Value // nil = absent
	Complete *bool           // nil = absent (tri-state)
}

// XorMember is one slot of an XOR set.
type XorMember struct {
	MemberIndex MemberIndex
	XorFilename string
	RankID      RankID
}

// RankEntry is the per-rank fact base: what was declared as expected
// and what was actually observed.
type RankEntry struct {
	// FilesExpected is a multiset of declared counts; the rank only
	// stays valid if exactly one distinct count was ever declared.
	FilesExpected map[int]struct{}
	Files         map[string]*FileRecord
}

func newRankEntry() *RankEntry {
	return &RankEntry{
		FilesExpected: make(map[int]struct{}),
		Files:         make(map[string]*FileRecord),
	}
}

// XorSetEntry is the per-set fact base for one XOR redundancy group.
type XorSetEntry struct {
	// MembersDeclared is a multiset of declared member counts, parsed
	// redundantly off of every member's filename.
	MembersDeclared map[int]struct{}
	Members         map[MemberIndex]*XorMember
}

func newXorSetEntry() *XorSetEntry {
	return &XorSetEntry{
		MembersDeclared: make(map[int]struct{}),
		Members:         make(map[MemberIndex]*XorMember),
	}
}

// RepairCommand is one rebuild invocation's argv, in dispatch order.
type RepairCommand struct {
	Argv []string
}

// CheckpointSet is the root of the scan/inspect/repair cycle for one
// checkpoint id.
type CheckpointSet struct {
	CkptID CheckpointID

	// RanksDeclared is a multiset of declared rank counts; the set
	// only stays valid if exactly one distinct count was ever declared.
	RanksDeclared map[int]struct{}
	RanksObserved map[RankID]*RankEntry
	XorSets       map[XorSetID]*XorSetEntry

	Invalid          bool
	MissingRanks     map[RankID]struct{}
	UnrecoverableXor map[XorSetID]struct{}
	BuildCommands    []RepairCommand
	Complete         bool
}

// NewCheckpointSet returns an empty set ready for the scanner to populate.
func NewCheckpointSet(id CheckpointID) *CheckpointSet {
	return &CheckpointSet{
		CkptID:           id,
		RanksDeclared:    make(map[int]struct{}),
		RanksObserved:    make(map[RankID]*RankEntry),
		XorSets:          make(map[XorSetID]*XorSetEntry),
		MissingRanks:     make(map[RankID]struct{}),
		UnrecoverableXor: make(map[XorSetID]struct{}),
	}
}

// rank returns (creating if absent) the RankEntry for id.
func (cs *CheckpointSet) rank(id RankID) *RankEntry {
	r, ok := cs.RanksObserved[id]
	if !ok {
		r = newRankEntry()
		cs.RanksObserved[id] = r
	}
	return r
}

// Rank returns (creating if absent) the RankEntry for id.
func (cs *CheckpointSet) Rank(id RankID) *RankEntry { return cs.rank(id) }

// XorSet returns (creating if absent) the XorSetEntry for id.
func (cs *CheckpointSet) XorSet(id XorSetID) *XorSetEntry {
	x, ok := cs.XorSets[id]
	if !ok {
		x = newXorSetEntry()
		cs.XorSets[id] = x
	}
	return x
}

// DeclaredRanks returns the single declared rank count, and false if
// RanksDeclared isn't exactly singly-valued.
func (cs *CheckpointSet) DeclaredRanks() (int, bool) {
	if len(cs.RanksDeclared) != 1 {
		return 0, false
	}
	for n := range cs.RanksDeclared {
		return n, true
	}
	return 0, false
}

// Reset clears everything the scanner populates, in preparation for a
// rescan after a repair pass. Diagnostic flags are cleared too, since
// the inspector will recompute them against the rescanned data.
func (cs *CheckpointSet) Reset() {
	cs.RanksDeclared = make(map[int]struct{})
	cs.RanksObserved = make(map[RankID]*RankEntry)
	cs.XorSets = make(map[XorSetID]*XorSetEntry)
	cs.Invalid = false
	cs.MissingRanks = make(map[RankID]struct{})
	cs.UnrecoverableXor = make(map[XorSetID]struct{})
	cs.BuildCommands = nil
	cs.Complete = false
}

// Trim removes the diagnostic keys (BUILD/MISSING/UNRECOVERABLE/
// INVALID/XOR in the original's hash-tree vocabulary) before the set
// is persisted as a summary. Complete is the one diagnostic flag that
// survives trimming: it is the attested fact the summary exists to
// record.
func (cs *CheckpointSet) Trim() {
	cs.Invalid = false
	cs.MissingRanks = nil
	cs.UnrecoverableXor = nil
	cs.BuildCommands = nil
	cs.XorSets = nil
}

// ScanModel is the in-memory tree describing every checkpoint set
// found by one scan of a checkpoint-set directory.
type ScanModel struct {
	Checkpoints map[CheckpointID]*CheckpointSet
}

// NewScanModel returns an empty model ready for the scanner to populate.
func NewScanModel() *ScanModel {
	return &ScanModel{Checkpoints: make(map[CheckpointID]*CheckpointSet)}
}

// Set returns (creating if absent) the CheckpointSet for id.
func (m *ScanModel) Set(id CheckpointID) *CheckpointSet {
	cs, ok := m.Checkpoints[id]
	if !ok {
		cs = NewCheckpointSet(id)
		m.Checkpoints[id] = cs
	}
	return cs
}

// SoleCheckpoint returns the model's single checkpoint set, and false
// if the model holds zero or more than one.
func (m *ScanModel) SoleCheckpoint() (*CheckpointSet, bool) {
	if len(m.Checkpoints) != 1 {
		return nil, false
	}
	for _, cs := range m.Checkpoints {
		return cs, true
	}
	return nil, false
}
