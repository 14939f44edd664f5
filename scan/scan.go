// Package scan implements the two-pass directory walk that populates a
// ScanModel from on-disk filemaps and metadata sidecars.
package scan

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/projecteru2/core/log"

	"github.com/llnl/scrindex/crcvalue"
	"github.com/llnl/scrindex/dirscan"
	"github.com/llnl/scrindex/filemap"
	"github.com/llnl/scrindex/model"
	"github.com/llnl/scrindex/sidecar"
)

// SummaryFilename is excluded from pass B: it is the summary builder's
// output, not an observed rank file.
const SummaryFilename = "summary.scr"

var xorStemPattern = regexp.MustCompile(`^(\d+)_of_(\d+)_in_(\d+)\.xor$`)

// Scan walks dir and returns the ScanModel it populates. It only
// returns an error if the directory itself cannot be enumerated;
// every other anomaly is logged and the offending file is skipped.
func Scan(ctx context.Context, dir string) (*model.ScanModel, error) {
	listing, err := dirscan.Read(dir)
	if err != nil {
		return nil, err
	}

	m := model.NewScanModel()
	scanFilemaps(ctx, dir, listing.Files, m)
	scanSidecars(ctx, dir, listing.Files, m)
	return m, nil
}

// scanFilemaps is pass A: load every .scrfilemap file and record each
// (ckpt_id, rank_id)'s declared expected file count.
func scanFilemaps(ctx context.Context, dir string, files []string, m *model.ScanModel) {
	logger := log.WithFunc("scan.scanFilemaps")
	for _, name := range files {
		if !strings.HasSuffix(name, ".scrfilemap") {
			continue
		}
		fm, err := filemap.Read(filepath.Join(dir, name))
		if err != nil {
			logger.Warnf(ctx, "read filemap %s: %v", name, err)
			continue
		}
		for _, ckptID := range fm.IterCheckpoints() {
			cs := m.Set(model.CheckpointID(ckptID))
			for _, rankID := range fm.IterRanksOf(ckptID) {
				n := fm.NumExpectedFiles(ckptID, rankID)
				cs.Rank(model.RankID(rankID)).FilesExpected[n] = struct{}{}
			}
		}
	}
}

// scanSidecars is pass B: load every .scr metadata sidecar (other than
// the summary), verify it against the data file it describes, and
// record the observation.
func scanSidecars(ctx context.Context, dir string, files []string, m *model.ScanModel) {
	logger := log.WithFunc("scan.scanSidecars")

	var ckptID *model.CheckpointID
	var ranksDeclared *int

	for _, name := range files {
		if !strings.HasSuffix(name, ".scr") || name == SummaryFilename {
			continue
		}
		stem := strings.TrimSuffix(name, ".scr")
		stemPath := filepath.Join(dir, stem)

		sc, err := sidecar.Read(stemPath)
		if err != nil {
			logger.Warnf(ctx, "read sidecar %s: %v", name, err)
			continue
		}

		if ckptID == nil {
			id := model.CheckpointID(sc.CheckpointID)
			ckptID = &id
		}
		if ranksDeclared == nil {
			n := sc.Ranks
			ranksDeclared = &n
		}
		if sc.CheckpointID != int(*ckptID) {
			logger.Warnf(ctx, "sidecar %s: checkpoint id %d disagrees with %d, skipping", name, sc.CheckpointID, *ckptID)
			continue
		}
		if sc.Ranks != *ranksDeclared {
			logger.Warnf(ctx, "sidecar %s: ranks %d disagrees with %d, skipping", name, sc.Ranks, *ranksDeclared)
			continue
		}

		fullFilename := filepath.Join(dir, sc.Filename)
		if fullFilename != stemPath {
			logger.Warnf(ctx, "sidecar %s: recorded filename %s does not match %s", name, sc.Filename, stemPath)
			continue
		}
		info, statErr := os.Stat(fullFilename)
		if statErr != nil {
			logger.Warnf(ctx, "data file for %s does not exist: %v", name, statErr)
			continue
		}
		if info.Size() != sc.Filesize {
			logger.Warnf(ctx, "data file %s is %d bytes, expected %d", fullFilename, info.Size(), sc.Filesize)
			continue
		}
		if sc.Complete == nil || !*sc.Complete {
			logger.Warnf(ctx, "data file %s is not complete", fullFilename)
			continue
		}

		cs := m.Set(*ckptID)
		cs.RanksDeclared[*ranksDeclared] = struct{}{}
		rank := cs.Rank(model.RankID(sc.Rank))
		record := &model.FileRecord{
			Filename: sc.Filename,
			Filesize: sc.Filesize,
			Complete: sc.Complete,
		}
		if sc.CRC32 != nil {
			v := *sc.CRC32
			record.CRC32 = &v
		}
		rank.Files[sc.Filename] = record

		if sc.Filetype == sidecar.Xor {
			attributeXorMember(ctx, cs, stem, model.RankID(sc.Rank))
		}
	}
}

// attributeXorMember parses the XOR stem pattern and, on a match,
// records the member under its XOR set. A mismatch is logged and the
// file is kept only as the regular observation already recorded above.
func attributeXorMember(ctx context.Context, cs *model.CheckpointSet, stem string, rankID model.RankID) {
	logger := log.WithFunc("scan.attributeXorMember")
	base := filepath.Base(stem)
	matches := xorStemPattern.FindStringSubmatch(base)
	if matches == nil {
		logger.Warnf(ctx, "XOR file stem %s does not match expected pattern", base)
		return
	}
	memberIndex, err1 := strconv.Atoi(matches[1])
	membersDeclared, err2 := strconv.Atoi(matches[2])
	xorSetID, err3 := strconv.Atoi(matches[3])
	if err1 != nil || err2 != nil || err3 != nil {
		logger.Warnf(ctx, "XOR file stem %s has unparsable numbers", base)
		return
	}

	xs := cs.XorSet(model.XorSetID(xorSetID))
	xs.MembersDeclared[membersDeclared] = struct{}{}
	xs.Members[model.MemberIndex(memberIndex)] = &model.XorMember{
		MemberIndex: model.MemberIndex(memberIndex),
		XorFilename: base,
		RankID:      rankID,
	}
}
