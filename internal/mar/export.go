// Package mar bundles the envelope staging area into one exportable
// snapshot: a zip archive, or that same archive wrapped in a Memfault
// chunk, per the format an uploader's Accept header asks for.
package mar

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/memfault/memfaultd/internal/marchunks"
	"github.com/memfault/memfaultd/internal/marstaging"
)

// URL is the path the loopback HTTP API serves the export endpoint on.
const URL = "/v1/mar"

// Format selects the wire representation GET /v1/mar returns.
type Format int

const (
	FormatMar Format = iota
	FormatChunk
	FormatChunkWrapped
)

const (
	contentTypeMar          = "application/zip"
	contentTypeChunk        = "application/vnd.memfault.chunk"
	contentTypeChunkWrapped = "application/vnd.memfault.chunk-wrapped"
)

// ContentType is the media type Encode's output carries.
func (f Format) ContentType() string {
	switch f {
	case FormatChunk:
		return contentTypeChunk
	case FormatChunkWrapped:
		return contentTypeChunkWrapped
	default:
		return contentTypeMar
	}
}

// ParseAcceptHeader picks the first format named by value's comma-separated
// media types, defaulting unqualified "*/*" to Mar.
func ParseAcceptHeader(value string) (Format, error) {
	for _, mediaType := range strings.Split(value, ",") {
		switch strings.TrimSpace(mediaType) {
		case "", "*/*", contentTypeMar:
			return FormatMar, nil
		case contentTypeChunk:
			return FormatChunk, nil
		case contentTypeChunkWrapped:
			return FormatChunkWrapped, nil
		}
	}
	return 0, fmt.Errorf("mar: requested format not supported (Accept: %s)", value)
}

// Snapshot is one consistent view of the staging area taken at GET time: the
// entries it covers, and a strong ETag over their exact content, so a later
// DELETE with a matching If-Match removes exactly what was exported and
// nothing staged afterward.
type Snapshot struct {
	ETag    string
	Entries []marstaging.Entry
}

// BuildSnapshot reads every committed entry currently in stagingDir. A nil,
// nil return means nothing is staged.
func BuildSnapshot(stagingDir string) (*Snapshot, error) {
	entries, err := marstaging.Iterate(stagingDir)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	h := sha256.New()
	for _, e := range entries {
		manifestBytes, err := json.Marshal(e.Manifest)
		if err != nil {
			return nil, fmt.Errorf("mar: hashing manifest for %s: %w", e.UUID, err)
		}
		io.WriteString(h, e.UUID.String())
		h.Write(manifestBytes)
	}

	return &Snapshot{ETag: hex.EncodeToString(h.Sum(nil)), Entries: entries}, nil
}

// Encode serializes the snapshot as a zip archive (one directory per entry,
// named by UUID, holding manifest.json and its attachments), optionally
// wrapped in a Memfault chunk per format.
func (s *Snapshot) Encode(format Format) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range s.Entries {
		for _, name := range e.Manifest.AttachmentNames() {
			data, err := os.ReadFile(e.AttachmentPath(name))
			if err != nil {
				return nil, fmt.Errorf("mar: reading %s/%s: %w", e.UUID, name, err)
			}
			w, err := zw.Create(e.UUID.String() + "/" + name)
			if err != nil {
				return nil, fmt.Errorf("mar: adding %s/%s to archive: %w", e.UUID, name, err)
			}
			if _, err := w.Write(data); err != nil {
				return nil, fmt.Errorf("mar: writing %s/%s to archive: %w", e.UUID, name, err)
			}
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("mar: closing zip writer: %w", err)
	}
	marBytes := buf.Bytes()

	switch format {
	case FormatMar:
		return marBytes, nil
	case FormatChunk:
		return marchunks.EncodeChunk(marchunks.MessageTypeMar, marBytes), nil
	case FormatChunkWrapped:
		return marchunks.WrapChunk(marchunks.EncodeChunk(marchunks.MessageTypeMar, marBytes)), nil
	default:
		return nil, fmt.Errorf("mar: unknown format %d", format)
	}
}

// Remove deletes every entry the snapshot covers from the staging area.
func (s *Snapshot) Remove() error {
	for _, e := range s.Entries {
		if err := e.Remove(); err != nil {
			return err
		}
	}
	return nil
}
