package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/llnl/scrindex/model"
)

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeSidecar(t *testing.T, dir, stem string, filesize int, ranks, rank, ckptID int, filetype string) {
	t.Helper()
	json := fmt.Sprintf(`{
		"filename": %q,
		"filesize": %d,
		"complete": true,
		"filetype": %q,
		"checkpoint_id": %d,
		"ranks": %d,
		"rank": %d,
		"crc32_computed": false
	}`, stem, filesize, filetype, ckptID, ranks, rank)
	writeFile(t, filepath.Join(dir, stem+".scr"), []byte(json))
	writeFile(t, filepath.Join(dir, stem), make([]byte, filesize))
}

func TestScanCompleteSet(t *testing.T) {
	dir := t.TempDir()

	filemapJSON := `{"checkpoints":{"3":{"0":1,"1":1}}}`
	writeFile(t, filepath.Join(dir, "0.scrfilemap"), []byte(filemapJSON))

	writeSidecar(t, dir, "3.0.0", 10, 2, 0, 3, "DATA")
	writeSidecar(t, dir, "3.1.0", 10, 2, 1, 3, "DATA")

	m, err := Scan(context.Background(), dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	cs, ok := m.Checkpoints[model.CheckpointID(3)]
	if !ok {
		t.Fatal("expected checkpoint 3 in the scan model")
	}
	if n, ok := cs.DeclaredRanks(); !ok || n != 2 {
		t.Fatalf("DeclaredRanks() = %d, %v, want 2, true", n, ok)
	}
	if len(cs.RanksObserved) != 2 {
		t.Fatalf("RanksObserved has %d entries, want 2", len(cs.RanksObserved))
	}
	for _, rankID := range []model.RankID{0, 1} {
		rank, ok := cs.RanksObserved[rankID]
		if !ok {
			t.Fatalf("rank %d not observed", rankID)
		}
		if len(rank.Files) != 1 {
			t.Fatalf("rank %d has %d files, want 1", rankID, len(rank.Files))
		}
	}
}

func TestScanXorMemberAttribution(t *testing.T) {
	dir := t.TempDir()
	writeSidecar(t, dir, "1_of_3_in_5.xor", 10, 1, 0, 7, "XOR")

	m, err := Scan(context.Background(), dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	cs, ok := m.Checkpoints[model.CheckpointID(7)]
	if !ok {
		t.Fatal("expected checkpoint 7")
	}
	xs, ok := cs.XorSets[model.XorSetID(5)]
	if !ok {
		t.Fatal("expected xor set 5")
	}
	member, ok := xs.Members[model.MemberIndex(1)]
	if !ok {
		t.Fatal("expected xor member 1")
	}
	if member.XorFilename != "1_of_3_in_5.xor" {
		t.Errorf("XorFilename = %s, want 1_of_3_in_5.xor", member.XorFilename)
	}
	if _, ok := xs.MembersDeclared[3]; !ok {
		t.Error("expected MembersDeclared to contain 3")
	}
}

func TestScanSkipsMismatchedSidecar(t *testing.T) {
	dir := t.TempDir()
	// filesize in sidecar disagrees with the actual data file on disk.
	writeFile(t, filepath.Join(dir, "2.0.0.scr"), []byte(`{
		"filename": "2.0.0",
		"filesize": 999,
		"complete": true,
		"filetype": "DATA",
		"checkpoint_id": 2,
		"ranks": 1,
		"rank": 0,
		"crc32_computed": false
	}`))
	writeFile(t, filepath.Join(dir, "2.0.0"), make([]byte, 10))

	m, err := Scan(context.Background(), dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if cs, ok := m.Checkpoints[model.CheckpointID(2)]; ok {
		if len(cs.RanksObserved[0].Files) != 0 {
			t.Error("mismatched sidecar should not have been recorded as a file observation")
		}
	}
}

func TestScanMissingDirectory(t *testing.T) {
	_, err := Scan(context.Background(), filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("expected error scanning a missing directory")
	}
}
