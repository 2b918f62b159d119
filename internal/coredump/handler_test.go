package coredump

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/memfault/memfaultd/internal/config"
	"github.com/memfault/memfaultd/internal/marstaging"
	"github.com/memfault/memfaultd/internal/util"
)

// buildSyntheticCore assembles a minimal but well-formed ET_CORE ELF64
// stream with one PT_NOTE (an NT_PRSTATUS note only, no auxv/link_map: the
// handler must tolerate their absence) and one PT_LOAD segment covering a
// plausible stack window.
func buildSyntheticCore(t *testing.T) []byte {
	t.Helper()

	prstatus := make([]byte, prRegOffset+27*8)
	const sp = uint64(0x1900)
	_ = sp
	noteData := EncodeNote("CORE", ntPRStatus, prstatus)

	const loadStart, loadEnd = uint64(0x1000), uint64(0x2000)
	loadSize := int(loadEnd - loadStart)
	loadPayload := bytes.Repeat([]byte{0xAB}, loadSize)

	headerSize := elf64HeaderSize
	phdrTableSize := 2 * elf64PhdrSize
	noteOffset := uint64(headerSize + phdrTableSize)
	loadOffset := noteOffset + uint64(len(noteData))

	var buf bytes.Buffer
	ident := makeCoreIdent()
	header := Header64{
		Ident:     ident,
		Type:      etCore,
		Machine:   emX86_64,
		Version:   1,
		PhOff:     uint64(headerSize),
		EhSize:    elf64HeaderSize,
		PhEntSize: elf64PhdrSize,
		PhNum:     2,
	}
	if err := WriteHeader(&buf, header); err != nil {
		t.Fatal(err)
	}
	if err := WriteProgramHeader(&buf, Phdr64{Type: ptNote, Offset: noteOffset, FileSz: uint64(len(noteData))}); err != nil {
		t.Fatal(err)
	}
	if err := WriteProgramHeader(&buf, Phdr64{
		Type: ptLoad, Offset: loadOffset, VAddr: loadStart, FileSz: uint64(loadSize), MemSz: uint64(loadSize),
	}); err != nil {
		t.Fatal(err)
	}
	buf.Write(noteData)
	buf.Write(loadPayload)
	return buf.Bytes()
}

func TestHandlerHandleStagesACoredumpEntry(t *testing.T) {
	stagingDir := t.TempDir()
	rateLimiterPath := filepath.Join(t.TempDir(), "rate-limiter")
	limiter, err := util.LoadPersistentRateLimiter(rateLimiterPath, 5, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	h := &Handler{
		Config: config.CoredumpConfig{
			CaptureStrategy: config.CoredumpCaptureStrategy{Kind: config.StrategyKernelSelection},
			Compression:     false,
		},
		StagingDir:  stagingDir,
		Device:      marstaging.Device{DeviceID: "dev-1", HardwareVersion: "evt"},
		Producer:    marstaging.Producer{ID: "memfaultd", Version: "0.1.0"},
		RateLimiter: limiter,
	}

	core := buildSyntheticCore(t)
	if err := h.Handle(bytes.NewReader(core), os.Getpid(), "myapp"); err != nil {
		t.Fatal(err)
	}

	entries, err := marstaging.Iterate(stagingDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 staged entry, got %d", len(entries))
	}
	if len(entries[0].Manifest.AttachmentNames()) == 0 {
		t.Error("expected the coredump entry to carry at least the manifest")
	}
}

func TestHandlerHandleDropsStreamWhenRateLimited(t *testing.T) {
	stagingDir := t.TempDir()
	rateLimiterPath := filepath.Join(t.TempDir(), "rate-limiter")
	limiter, err := util.LoadPersistentRateLimiter(rateLimiterPath, 1, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	h := &Handler{
		Config: config.CoredumpConfig{
			CaptureStrategy: config.CoredumpCaptureStrategy{Kind: config.StrategyKernelSelection},
		},
		StagingDir:  stagingDir,
		Device:      marstaging.Device{DeviceID: "dev-1"},
		Producer:    marstaging.Producer{ID: "memfaultd", Version: "0.1.0"},
		RateLimiter: limiter,
	}

	core := buildSyntheticCore(t)
	if err := h.Handle(bytes.NewReader(core), os.Getpid(), "myapp"); err != nil {
		t.Fatal(err)
	}
	if err := h.Handle(bytes.NewReader(core), os.Getpid(), "myapp"); err != nil {
		t.Fatal(err)
	}

	entries, err := marstaging.Iterate(stagingDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected the second, rate-limited invocation to stage nothing, got %d entries", len(entries))
	}
}
