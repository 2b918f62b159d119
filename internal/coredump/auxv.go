package coredump

import (
	"encoding/binary"
	"fmt"
)

// ELF note types this package looks for or produces.
const (
	ntPRStatus uint32 = 1
	ntAuxv     uint32 = 6
	ntFile     uint32 = 0x46494c45 // "FILE"

	atNull uint64 = 0
	atPHDR uint64 = 3
	atEntry uint64 = 9
)

// Auxv is the parsed subset of the target's auxiliary vector this package
// needs: the load address of its own program headers and its entry point,
// used to walk the dynamic linker's link_map chain.
type Auxv struct {
	PHdr  uint64
	Entry uint64
}

// ParseAuxv walks an NT_AUXV descriptor (pairs of uint64 type/value,
// terminated by AT_NULL) and extracts AT_PHDR and AT_ENTRY.
func ParseAuxv(desc []byte) (Auxv, error) {
	var auxv Auxv
	for off := 0; off+16 <= len(desc); off += 16 {
		typ := binary.LittleEndian.Uint64(desc[off : off+8])
		val := binary.LittleEndian.Uint64(desc[off+8 : off+16])
		switch typ {
		case atNull:
			return auxv, nil
		case atPHDR:
			auxv.PHdr = val
		case atEntry:
			auxv.Entry = val
		}
	}
	if auxv.PHdr == 0 && auxv.Entry == 0 {
		return Auxv{}, fmt.Errorf("coredump: NT_AUXV had no AT_PHDR/AT_ENTRY entries")
	}
	return auxv, nil
}
