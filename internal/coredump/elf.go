package coredump

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// This package only handles ET_CORE, 64-bit little-endian ELF streams: the
// kernel's core_pattern pipe always delivers a core matching the running
// target's word size and endianness, and that is fixed at build time for
// any one device, so there is no runtime dispatch between word sizes here.

const (
	elfMagic0 = 0x7f
	elfClass64 = 2
	elfDataLSB = 1

	etCore uint16 = 4

	ptLoad uint32 = 1
	ptNote uint32 = 4

	elf64HeaderSize  = 64
	elf64PhdrSize    = 56
	elf64NoteHdrSize = 12
)

// Ident is the first 16 bytes of an ELF file (e_ident).
type Ident [16]byte

// Header64 mirrors Elf64_Ehdr.
type Header64 struct {
	Ident     Ident
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint64
	PhOff     uint64
	ShOff     uint64
	Flags     uint32
	EhSize    uint16
	PhEntSize uint16
	PhNum     uint16
	ShEntSize uint16
	ShNum     uint16
	ShStrNdx  uint16
}

// Phdr64 mirrors Elf64_Phdr.
type Phdr64 struct {
	Type   uint32
	Flags  uint32
	Offset uint64
	VAddr  uint64
	PAddr  uint64
	FileSz uint64
	MemSz  uint64
	Align  uint64
}

// ParseHeader reads and validates the ELF64 core header.
func ParseHeader(r io.Reader) (Header64, error) {
	var h Header64
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return Header64{}, fmt.Errorf("coredump: reading ELF header: %w", err)
	}
	if h.Ident[0] != elfMagic0 || h.Ident[1] != 'E' || h.Ident[2] != 'L' || h.Ident[3] != 'F' {
		return Header64{}, fmt.Errorf("coredump: not an ELF stream")
	}
	if h.Ident[4] != elfClass64 {
		return Header64{}, fmt.Errorf("coredump: only 64-bit ELF cores are supported")
	}
	if h.Ident[5] != elfDataLSB {
		return Header64{}, fmt.Errorf("coredump: only little-endian ELF cores are supported")
	}
	if h.Type != etCore {
		return Header64{}, fmt.Errorf("coredump: expected ET_CORE, got %d", h.Type)
	}
	return h, nil
}

// ReadProgramHeaders reads count program header entries starting at the
// stream's current position (the caller is expected to have consumed the
// header and anything preceding e_phoff).
func ReadProgramHeaders(r io.Reader, count uint16) ([]Phdr64, error) {
	phdrs := make([]Phdr64, count)
	for i := range phdrs {
		if err := binary.Read(r, binary.LittleEndian, &phdrs[i]); err != nil {
			return nil, fmt.Errorf("coredump: reading program header %d: %w", i, err)
		}
	}
	return phdrs, nil
}

// WriteHeader writes h in ELF64 little-endian wire form.
func WriteHeader(w io.Writer, h Header64) error {
	return binary.Write(w, binary.LittleEndian, h)
}

// WriteProgramHeader writes p in ELF64 little-endian wire form.
func WriteProgramHeader(w io.Writer, p Phdr64) error {
	return binary.Write(w, binary.LittleEndian, p)
}

// NewIdent builds e_ident for a 64-bit little-endian ET_CORE ELF file,
// copying the OS/ABI bytes from the source stream's ident so the rewritten
// core still identifies the same target.
func NewIdent(source Ident) Ident {
	ident := source
	ident[0], ident[1], ident[2], ident[3] = elfMagic0, 'E', 'L', 'F'
	ident[4] = elfClass64
	ident[5] = elfDataLSB
	return ident
}

// noteHeader mirrors Elf64_Nhdr: namesz, descsz, type, each padded to a
// 4-byte boundary in the note stream that follows.
type noteHeader struct {
	NameSz uint32
	DescSz uint32
	Type   uint32
}

// Note is one parsed ELF note (NT_PRSTATUS, NT_AUXV, NT_FILE, or a
// Memfault-specific note written by this package).
type Note struct {
	Name string
	Type uint32
	Desc []byte
}

func align4(n int) int { return (n + 3) &^ 3 }

// ParseNotes parses a PT_NOTE segment's raw bytes into individual notes.
func ParseNotes(data []byte) ([]Note, error) {
	var notes []Note
	r := bytes.NewReader(data)
	for r.Len() > 0 {
		var h noteHeader
		if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("coredump: reading note header: %w", err)
		}
		name := make([]byte, align4(int(h.NameSz)))
		if _, err := io.ReadFull(r, name); err != nil {
			return nil, fmt.Errorf("coredump: reading note name: %w", err)
		}
		desc := make([]byte, align4(int(h.DescSz)))
		if _, err := io.ReadFull(r, desc); err != nil {
			return nil, fmt.Errorf("coredump: reading note descriptor: %w", err)
		}
		notes = append(notes, Note{
			Name: string(bytes.TrimRight(name[:h.NameSz], "\x00")),
			Type: h.Type,
			Desc: desc[:h.DescSz],
		})
	}
	return notes, nil
}

// EncodeNote serializes one note in ELF note-segment wire form, including
// the 4-byte-aligned padding after the name and descriptor.
func EncodeNote(name string, noteType uint32, desc []byte) []byte {
	nameBytes := append([]byte(name), 0)
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, noteHeader{
		NameSz: uint32(len(nameBytes)),
		DescSz: uint32(len(desc)),
		Type:   noteType,
	})
	buf.Write(nameBytes)
	buf.Write(make([]byte, align4(len(nameBytes))-len(nameBytes)))
	buf.Write(desc)
	buf.Write(make([]byte, align4(len(desc))-len(desc)))
	return buf.Bytes()
}
