// Package repair decides which XOR sets are reconstructable (planner)
// and forks the external rebuild binary to reconstruct them
// (executor).
package repair

import (
	"fmt"
	"sort"

	"github.com/llnl/scrindex/model"
)

// Plan inspects every XOR set of a checkpoint set with missing ranks
// and returns the repair commands needed to reconstruct them. Sets
// with two or more missing members are recorded in UnrecoverableXor
// and produce no command.
func Plan(set *model.CheckpointSet) []model.RepairCommand {
	if len(set.MissingRanks) == 0 || set.Invalid {
		return nil
	}

	var cmds []model.RepairCommand
	setIDs := make([]model.XorSetID, 0, len(set.XorSets))
	for id := range set.XorSets {
		setIDs = append(setIDs, id)
	}
	sort.Slice(setIDs, func(i, j int) bool { return setIDs[i] < setIDs[j] })

	for _, xorSetID := range setIDs {
		xs := set.XorSets[xorSetID]
		members, ok := singleInt(xs.MembersDeclared)
		if !ok {
			continue
		}

		have := len(xs.Members)
		// Guard: too few surviving XOR files to even attempt a
		// reconstruction. The set's ranks remain in MissingRanks.
		if have < members-1 {
			continue
		}

		var missingIndex model.MemberIndex
		missingCount := 0
		for i := 1; i <= members; i++ {
			idx := model.MemberIndex(i)
			member, present := xs.Members[idx]
			if !present {
				missingIndex = idx
				missingCount++
				continue
			}
			if _, missing := set.MissingRanks[member.RankID]; missing {
				missingIndex = idx
				missingCount++
			}
		}

		switch {
		case missingCount == 0:
			// nothing to do for this set
		case missingCount >= 2:
			set.UnrecoverableXor[xorSetID] = struct{}{}
		default:
			cmds = append(cmds, buildCommand(xorSetID, members, missingIndex, xs))
		}
	}

	set.BuildCommands = cmds
	return cmds
}

// buildCommand assembles the argv for reconstructing the one missing
// member of an XOR set: a slot-0 placeholder for the rebuild binary
// (filled in by the executor, which supplies the real binary path
// separately and always skips Argv[0]), the set size, the zero-based
// slot of the missing file, its name, and every surviving member's
// filename in ascending member order.
func buildCommand(xorSetID model.XorSetID, members int, missingIndex model.MemberIndex, xs *model.XorSetEntry) model.RepairCommand {
	argv := []string{
		"", // Argv[0]: binary placeholder, see repair.Execute
		fmt.Sprintf("%d", members),
		fmt.Sprintf("%d", int(missingIndex)-1),
		fmt.Sprintf("%d_of_%d_in_%d.xor", missingIndex, members, xorSetID),
	}
	for i := 1; i <= members; i++ {
		idx := model.MemberIndex(i)
		if idx == missingIndex {
			continue
		}
		if member, ok := xs.Members[idx]; ok {
			argv = append(argv, member.XorFilename)
		}
	}
	return model.RepairCommand{Argv: argv}
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
