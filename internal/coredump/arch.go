package coredump

import (
	"encoding/binary"
	"fmt"
)

// Linux ELF machine constants (elf.h EM_*), just the ones this daemon is
// built to run on.
const (
	emX86_64  uint16 = 62
	emAArch64 uint16 = 183
)

// prRegOffset is the byte offset of elf_prstatus.pr_reg within the note
// descriptor on a 64-bit Linux target: pr_info(12) + pr_cursig(2) +
// pad(2) + pr_sigpend(8) + pr_sighold(8) + pr_pid/ppid/pgrp/sid(4 each) +
// pr_utime/stime/cutime/cstime(16 each) = 112.
const prRegOffset = 112

// Arch captures the little that's architecture-specific about reading
// thread state out of an NT_PRSTATUS note: where the stack pointer lives
// in the raw register blob, and which direction the stack grows.
type Arch struct {
	Name               string
	stackPointerOffset int // byte offset of SP within pr_reg
	GrowsDown          bool
}

var (
	archX86_64  = Arch{Name: "x86_64", stackPointerOffset: 19 * 8, GrowsDown: true}
	archAArch64 = Arch{Name: "aarch64", stackPointerOffset: 31 * 8, GrowsDown: true}
)

// ArchForMachine resolves the e_machine field of an ELF core header to the
// Arch this package knows how to read thread state for.
func ArchForMachine(machine uint16) (Arch, error) {
	switch machine {
	case emX86_64:
		return archX86_64, nil
	case emAArch64:
		return archAArch64, nil
	default:
		return Arch{}, fmt.Errorf("coredump: unsupported e_machine %d", machine)
	}
}

// StackPointer extracts the stack pointer from a raw NT_PRSTATUS
// descriptor.
func (a Arch) StackPointer(prstatusDesc []byte) (uint64, error) {
	offset := prRegOffset + a.stackPointerOffset
	if len(prstatusDesc) < offset+8 {
		return 0, fmt.Errorf("coredump: NT_PRSTATUS descriptor too short for %s", a.Name)
	}
	return binary.LittleEndian.Uint64(prstatusDesc[offset : offset+8]), nil
}
