// Package crcvalue wraps the opaque CRC32 value recorded in sidecar
// metadata. The core never computes or verifies a CRC; it only carries
// the value forward between the scan and summary stages.
package crcvalue

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Value is a 32-bit CRC, formatted like the original's "0x"-prefixed hex.
type Value uint32

// Parse reads a CRC from its "0x..." textual form.
func Parse(s string) (Value, error) {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("parse crc32 %q: %w", s, err)
	}
	return Value(n), nil
}

// String renders the value as "0x" followed by eight lowercase hex
// digits, whatever prefix or padding the parsed text had.
func (v Value) String() string {
	return fmt.Sprintf("0x%08x", uint32(v))
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
