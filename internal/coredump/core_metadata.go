package coredump

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/memfault/memfaultd/internal/config"
)

// MemfaultNoteName is the ELF note name the handler's metadata and
// log-capture notes are tagged with. It holds no trailing NUL; EncodeNote
// appends the one the wire form requires.
const MemfaultNoteName = "Memfault"

// MemfaultMetadataNoteType is the note type tag for the CBOR metadata note.
const MemfaultMetadataNoteType uint32 = 0x4154454d

// MemfaultLogNoteType tags the bounded log-capture note (not part of the
// upstream ELF note namespace; Memfault-private).
const MemfaultLogNoteType uint32 = 0x4154454e

const metadataSchemaVersion = 1

// Metadata is the small record captured alongside every core dump,
// serialized as a canonical CBOR map keyed by the small integers §6 fixes.
type Metadata struct {
	SDKVersion      string
	CapturedAtUnix  uint64
	DeviceSerial    string
	HardwareVersion string
	SoftwareType    string
	SoftwareVersion string
	CommandLine     string
	CaptureStrategy config.CoredumpCaptureStrategy
}

func strategyCBORValue(s config.CoredumpCaptureStrategy) interface{} {
	if s.Kind == config.StrategyThreads {
		return map[int]interface{}{1: s.MaxThreadSize}
	}
	return string(s.Kind)
}

// EncodeNote renders m as the canonical-CBOR description of the Memfault
// metadata note.
func (m Metadata) EncodeNote() ([]byte, error) {
	fields := map[int]interface{}{
		1: metadataSchemaVersion,
		2: m.SDKVersion,
		3: m.CapturedAtUnix,
		4: m.DeviceSerial,
		5: m.HardwareVersion,
		6: m.SoftwareType,
		7: m.SoftwareVersion,
		8: m.CommandLine,
		9: strategyCBORValue(m.CaptureStrategy),
	}

	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		return nil, fmt.Errorf("coredump: building canonical CBOR encoder: %w", err)
	}
	desc, err := mode.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("coredump: encoding metadata note: %w", err)
	}
	return EncodeNote(MemfaultNoteName, MemfaultMetadataNoteType, desc), nil
}
