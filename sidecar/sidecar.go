// Package sidecar implements the concrete on-disk realization of the
// per-data-file metadata collaborator the scanner's pass B reads.
package sidecar

import (
	"github.com/llnl/scrindex/crcvalue"
	"github.com/llnl/scrindex/hashtree"
)

// Filetype distinguishes a regular data sidecar from an XOR parity one.
type Filetype string

const (
	Data Filetype = "DATA"
	Xor  Filetype = "XOR"
)

// tree is the on-disk JSON shape of one sidecar file.
type tree struct {
	Filename      string   `json:"filename"`
	Filesize      int64    `json:"filesize"`
	Complete      *bool    `json:"complete"`
	Filetype      Filetype `json:"filetype"`
	CheckpointID  int      `json:"checkpoint_id"`
	Ranks         int      `json:"ranks"`
	Rank          int      `json:"rank"`
	CRC32         string   `json:"crc32,omitempty"`
	CRC32Computed bool     `json:"crc32_computed"`
}

// Sidecar is one `.scr` metadata record.
type Sidecar struct {
	Filename      string
	Filesize      int64
	Complete      *bool
	Filetype      Filetype
	CheckpointID  int
	Ranks         int
	Rank          int
	CRC32         *crcvalue.Value
}

// Read loads the sidecar for stem, i.e. the file at stem+".scr".
func Read(stem string) (*Sidecar, error) {
	path := stem + ".scr"
	t, err := hashtree.Read[tree](path+".lock", path)
	if err != nil {
		return nil, err
	}
	s := &Sidecar{
		Filename:     t.Filename,
		Filesize:     t.Filesize,
		Complete:     t.Complete,
		Filetype:     t.Filetype,
		CheckpointID: t.CheckpointID,
		Ranks:        t.Ranks,
		Rank:         t.Rank,
	}
	if t.CRC32Computed && t.CRC32 != "" {
		v, err := crcvalue.Parse(t.CRC32)
		if err == nil {
			s.CRC32 = &v
		}
	}
	return s, nil
}
