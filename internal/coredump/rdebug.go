package coredump

import (
	"encoding/binary"
	"fmt"
)

// Offsets within the 64-bit r_debug and link_map structures (see
// <link.h>). Both are fixed ABI layouts, not architecture-specific.
const (
	rDebugMapOffset = 8 // r_version(4) + pad(4), then r_map

	linkMapAddrOffset = 0
	linkMapNameOffset = 8
	linkMapNextOffset = 24

	dtDebug = 21 // DT_DEBUG dynamic tag
	dtNull  = 0
)

// SharedObject is one entry in the target's loaded-object list: its load
// base and the path it was loaded from (empty for the main executable).
type SharedObject struct {
	Base uint64
	Path string
}

// WalkLinkMap locates the target's r_debug structure via its PT_DYNAMIC
// segment's DT_DEBUG entry and walks the resulting link_map chain,
// enumerating every shared object the dynamic linker has loaded.
func WalkLinkMap(mem *ProcFS, phdrs []Phdr64, auxv Auxv) ([]SharedObject, error) {
	dynAddr, dynSize, err := findDynamicSegment(phdrs, auxv)
	if err != nil {
		return nil, err
	}

	rDebugAddr, err := findRDebugAddress(mem, dynAddr, dynSize)
	if err != nil {
		return nil, err
	}

	mapPtrBytes, err := mem.ReadAt(rDebugAddr+rDebugMapOffset, 8)
	if err != nil {
		return nil, err
	}
	linkMapAddr := binary.LittleEndian.Uint64(mapPtrBytes)

	var objects []SharedObject
	for i := 0; linkMapAddr != 0 && i < 4096; i++ { // bound the walk against a corrupt chain
		entry, err := mem.ReadAt(linkMapAddr, 32)
		if err != nil {
			return objects, err
		}
		base := binary.LittleEndian.Uint64(entry[linkMapAddrOffset : linkMapAddrOffset+8])
		nameAddr := binary.LittleEndian.Uint64(entry[linkMapNameOffset : linkMapNameOffset+8])
		next := binary.LittleEndian.Uint64(entry[linkMapNextOffset : linkMapNextOffset+8])

		name, err := mem.ReadCString(nameAddr, 4096)
		if err != nil {
			name = ""
		}
		objects = append(objects, SharedObject{Base: base, Path: name})
		linkMapAddr = next
	}
	return objects, nil
}

// findDynamicSegment locates the PT_DYNAMIC program header among phdrs and
// returns the address and size recorded there. auxv is not consulted: the
// target's own program headers at AT_PHDR are not read, so when phdrs
// holds no PT_DYNAMIC entry the lookup fails.
func findDynamicSegment(phdrs []Phdr64, auxv Auxv) (addr uint64, size uint64, err error) {
	const ptDynamic = 2
	for _, p := range phdrs {
		if p.Type == ptDynamic {
			return p.VAddr, p.MemSz, nil
		}
	}
	return 0, 0, fmt.Errorf("coredump: no PT_DYNAMIC segment found")
}

func findRDebugAddress(mem *ProcFS, dynAddr, dynSize uint64) (uint64, error) {
	const entrySize = 16 // Elf64_Dyn { d_tag int64; d_val/d_ptr uint64 }
	for off := uint64(0); off+entrySize <= dynSize; off += entrySize {
		entry, err := mem.ReadAt(dynAddr+off, entrySize)
		if err != nil {
			return 0, err
		}
		tag := binary.LittleEndian.Uint64(entry[0:8])
		val := binary.LittleEndian.Uint64(entry[8:16])
		if tag == dtNull {
			break
		}
		if tag == dtDebug {
			return val, nil
		}
	}
	return 0, fmt.Errorf("coredump: no DT_DEBUG entry found in PT_DYNAMIC")
}
