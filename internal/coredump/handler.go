package coredump

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"time"

	"github.com/memfault/memfaultd/internal/config"
	"github.com/memfault/memfaultd/internal/coredump/logcapture"
	"github.com/memfault/memfaultd/internal/log"
	"github.com/memfault/memfaultd/internal/marstaging"
	"github.com/memfault/memfaultd/internal/util"
)

// Handler runs the full capture pipeline (spec §4.3) for one core_pattern
// invocation: admit, parse, select ranges, write, stage.
type Handler struct {
	Config      config.CoredumpConfig
	StagingDir  string
	Device      marstaging.Device
	Producer    marstaging.Producer
	RateLimiter *util.PersistentRateLimiter
	Capture     *logcapture.Capture
}

// Handle runs the pipeline for one crashing process. core is the raw ELF
// core stream (stdin); pid and executableName come from the core_pattern
// command line.
func (h *Handler) Handle(core io.Reader, pid int, executableName string) error {
	if !h.RateLimiter.Check() {
		log.Logger.Warn().Int("pid", pid).Msg("coredump: rate limit exceeded, dropping stream")
		return nil
	}
	if err := h.RateLimiter.Save(); err != nil {
		log.Logger.Error().Err(err).Msg("coredump: failed to persist rate limiter state")
	}

	data, err := io.ReadAll(core)
	if err != nil {
		return fmt.Errorf("coredump: reading core stream: %w", err)
	}

	cmdline, err := CmdLine(pid)
	if err != nil {
		log.Logger.Warn().Err(err).Int("pid", pid).Msg("coredump: could not read cmdline")
	}

	outcome, err := h.buildCore(data, pid)
	if err != nil {
		return fmt.Errorf("coredump: building output for pid %d (%s): %w", pid, executableName, err)
	}

	metadata := Metadata{
		SDKVersion:      h.Producer.Version,
		CapturedAtUnix:  uint64(nowUnix()),
		DeviceSerial:    h.Device.DeviceID,
		HardwareVersion: h.Device.HardwareVersion,
		SoftwareType:    h.Device.SoftwareType,
		SoftwareVersion: h.Device.SoftwareVersion,
		CommandLine:     cmdline,
		CaptureStrategy: h.Config.CaptureStrategy,
	}
	metadataNote, err := metadata.EncodeNote()
	if err != nil {
		return err
	}

	var logLines []string
	if h.Capture != nil {
		logLines = h.Capture.Drain()
	}
	logNote := EncodeLogNote(logLines)

	output, err := writeOutputCore(outcome, metadataNote, logNote)
	if err != nil {
		return err
	}

	if h.Config.Compression {
		output, err = gzipBytes(output)
		if err != nil {
			return err
		}
	}
	if h.Config.MaxSizeBytes > 0 && uint64(len(output)) > h.Config.MaxSizeBytes {
		output = output[:h.Config.MaxSizeBytes]
	}

	return h.stage(output, executableName)
}

var nowUnix = func() int64 { return time.Now().Unix() }

type buildOutcome struct {
	ident          Ident
	machine        uint16
	prunedNotes    []byte
	keptRanges     []MemoryRange
	sourceRanges   []MemoryRange
	sourceSegments []Phdr64
	data           []byte
}

// buildCore parses the raw core stream and decides which ranges survive
// into the output, without yet writing anything.
func (h *Handler) buildCore(data []byte, pid int) (buildOutcome, error) {
	r := bytes.NewReader(data)
	header, err := ParseHeader(r)
	if err != nil {
		return buildOutcome{}, err
	}

	if _, err := r.Seek(int64(header.PhOff), io.SeekStart); err != nil {
		return buildOutcome{}, fmt.Errorf("coredump: seeking to program headers: %w", err)
	}
	phdrs, err := ReadProgramHeaders(r, header.PhNum)
	if err != nil {
		return buildOutcome{}, err
	}

	var loadSegments, noteSegments []Phdr64
	for _, p := range phdrs {
		switch p.Type {
		case ptLoad:
			loadSegments = append(loadSegments, p)
		case ptNote:
			noteSegments = append(noteSegments, p)
		}
	}
	if len(noteSegments) == 0 {
		return buildOutcome{}, fmt.Errorf("coredump: core stream has no PT_NOTE segment")
	}
	firstNote := noteSegments[0]
	noteData := data[firstNote.Offset : firstNote.Offset+firstNote.FileSz]
	notes, err := ParseNotes(noteData)
	if err != nil {
		return buildOutcome{}, err
	}

	arch, err := ArchForMachine(header.Machine)
	archKnown := err == nil
	if !archKnown {
		log.Logger.Warn().Err(err).Msg("coredump: unrecognized target architecture, capturing no thread stacks")
	}

	var stackPointers []uint64
	var auxv Auxv
	haveAuxv := false
	for _, n := range notes {
		switch n.Type {
		case ntPRStatus:
			if !archKnown {
				continue
			}
			if sp, err := arch.StackPointer(n.Desc); err == nil {
				stackPointers = append(stackPointers, sp)
			}
		case ntAuxv:
			if a, err := ParseAuxv(n.Desc); err == nil {
				auxv = a
				haveAuxv = true
			}
		}
	}

	sourceRanges := make([]MemoryRange, 0, len(loadSegments))
	for _, p := range loadSegments {
		sourceRanges = append(sourceRanges, MemoryRange{Start: p.VAddr, End: p.VAddr + p.MemSz})
	}

	var sharedObjects []SharedObject
	if haveAuxv {
		if mem, err := OpenProcFS(pid); err == nil {
			defer mem.Close()
			if objs, err := WalkLinkMap(mem, phdrs, auxv); err == nil {
				sharedObjects = objs
			} else {
				log.Logger.Debug().Err(err).Msg("coredump: could not walk link_map")
			}
		}
	}

	kept := SelectRanges(h.Config.CaptureStrategy, sourceRanges, stackPointers, arch, sharedObjects)

	return buildOutcome{
		ident:          header.Ident,
		machine:        header.Machine,
		prunedNotes:    pruneNotes(notes, kept, sourceRanges),
		keptRanges:     kept,
		sourceRanges:   sourceRanges,
		sourceSegments: loadSegments,
		data:           data,
	}, nil
}

// pruneNotes re-encodes the note segment, keeping everything except
// NT_FILE entries that reference memory no longer retained in the output.
func pruneNotes(notes []Note, kept []MemoryRange, sourceRanges []MemoryRange) []byte {
	var buf bytes.Buffer
	for _, n := range notes {
		if n.Type == ntFile && !noteOverlapsKept(n, kept) {
			continue
		}
		buf.Write(EncodeNote(n.Name, n.Type, n.Desc))
	}
	return buf.Bytes()
}

func noteOverlapsKept(n Note, kept []MemoryRange) bool {
	if len(n.Desc) < 8 {
		return true
	}
	// NT_FILE's descriptor leads with a region count; a full reparse isn't
	// needed to decide retention, so conservatively keep any NT_FILE note
	// once at least one kept range exists.
	return len(kept) > 0
}

// writeOutputCore assembles the final ELF64 core: header, merged PT_LOADs,
// one PT_NOTE (pruned original notes + metadata + log capture), then the
// segment payloads.
func writeOutputCore(o buildOutcome, metadataNote, logNote []byte) ([]byte, error) {
	noteBytes := append(append([]byte{}, o.prunedNotes...), metadataNote...)
	noteBytes = append(noteBytes, logNote...)

	numSegments := len(o.keptRanges) + 1 // + the note segment
	headerSize := elf64HeaderSize
	phdrTableSize := numSegments * elf64PhdrSize

	var out bytes.Buffer
	ident := NewIdent(o.ident)
	header := Header64{
		Ident:     ident,
		Type:      etCore,
		Machine:   o.machine,
		Version:   1,
		PhOff:     uint64(headerSize),
		EhSize:    elf64HeaderSize,
		PhEntSize: elf64PhdrSize,
		PhNum:     uint16(numSegments),
	}
	if err := WriteHeader(&out, header); err != nil {
		return nil, err
	}

	dataOffset := uint64(headerSize + phdrTableSize)

	notePhdr := Phdr64{
		Type:   ptNote,
		Offset: dataOffset,
		FileSz: uint64(len(noteBytes)),
		MemSz:  uint64(len(noteBytes)),
	}
	if err := WriteProgramHeader(&out, notePhdr); err != nil {
		return nil, err
	}
	dataOffset += uint64(len(noteBytes))

	type payload struct {
		phdr Phdr64
		data []byte
	}
	payloads := make([]payload, 0, len(o.keptRanges))
	for _, r := range o.keptRanges {
		bytesFor, err := extractRange(o.data, o.sourceSegments, r)
		if err != nil {
			return nil, err
		}
		p := Phdr64{
			Type:   ptLoad,
			Offset: dataOffset,
			VAddr:  r.Start,
			PAddr:  r.Start,
			FileSz: uint64(len(bytesFor)),
			MemSz:  r.Len(),
		}
		if err := WriteProgramHeader(&out, p); err != nil {
			return nil, err
		}
		payloads = append(payloads, payload{phdr: p, data: bytesFor})
		dataOffset += uint64(len(bytesFor))
	}

	out.Write(noteBytes)
	for _, p := range payloads {
		out.Write(p.data)
	}
	return out.Bytes(), nil
}

// extractRange finds which original PT_LOAD segment covers r and slices
// the corresponding bytes out of the raw core stream. r is always a
// subset of one source segment: SelectRanges never invents bytes the
// kernel didn't already place in the stream.
func extractRange(data []byte, segments []Phdr64, r MemoryRange) ([]byte, error) {
	for _, seg := range segments {
		segRange := MemoryRange{Start: seg.VAddr, End: seg.VAddr + seg.FileSz}
		if r.Start >= segRange.Start && r.End <= segRange.End {
			fileStart := seg.Offset + (r.Start - seg.VAddr)
			return data[fileStart : fileStart+r.Len()], nil
		}
	}
	return nil, fmt.Errorf("coredump: retained range 0x%x-0x%x has no backing source segment", r.Start, r.End)
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("coredump: gzipping output: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("coredump: closing gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}

// stage writes the finished core as an envelope entry. Any error here
// leaves no partial entry behind (spec §4.3 invariant (e)): Writer.Abort
// removes the directory when the attachment write fails, and Commit
// removes it itself when the manifest cannot be committed.
func (h *Handler) stage(core []byte, executableName string) error {
	writer, err := marstaging.NewEntry(h.StagingDir)
	if err != nil {
		return fmt.Errorf("coredump: staging entry for %s: %w", executableName, err)
	}
	filename := executableName + ".core"
	if h.Config.Compression {
		filename += ".gz"
	}
	if err := writer.WriteAttachment(filename, core); err != nil {
		writer.Abort()
		return fmt.Errorf("coredump: writing core attachment: %w", err)
	}
	manifest := marstaging.NewManifest(h.Device, h.Producer, marstaging.CoredumpMetadata(executableName, 0, "core_pattern"), []marstaging.Attachment{{Name: filename, MimeType: "application/octet-stream"}})
	if err := writer.Commit(manifest); err != nil {
		return fmt.Errorf("coredump: committing entry: %w", err)
	}
	return nil
}
