package marstaging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
)

// manifestFilename is the name every entry's finished manifest must carry
// for the entry to be picked up by enumeration.
const manifestFilename = "manifest.json"

// lockFilename is the name a writer uses while the manifest is still being
// written; it is renamed to manifestFilename as the last, atomic step.
const lockFilename = "manifest.lock"

// Entry is a candidate directory for inclusion in the next upload: a
// UUID-named folder under the staging area holding a manifest and zero or
// more attachments.
type Entry struct {
	Path     string
	UUID     uuid.UUID
	Manifest Manifest
}

// NewEntry creates a new, empty entry directory under stagingDir and
// returns a writer for it. The entry is invisible to iteration until
// Writer.Commit is called.
func NewEntry(stagingDir string) (*Writer, error) {
	id := uuid.New()
	path := filepath.Join(stagingDir, id.String())
	if err := os.MkdirAll(path, 0o750); err != nil {
		return nil, fmt.Errorf("marstaging: creating entry directory: %w", err)
	}
	return &Writer{path: path, uuid: id}, nil
}

// Writer stages attachments and a manifest for one entry before making it
// visible to readers.
type Writer struct {
	path string
	uuid uuid.UUID
}

// Path is the entry's directory.
func (w *Writer) Path() string { return w.path }

// WriteAttachment writes data under name inside the entry directory.
func (w *Writer) WriteAttachment(name string, data []byte) error {
	if err := os.WriteFile(filepath.Join(w.path, name), data, 0o640); err != nil {
		return fmt.Errorf("marstaging: writing attachment %s: %w", name, err)
	}
	return nil
}

// Commit writes manifest to manifest.lock then atomically renames it to
// manifest.json, making the entry visible to Iterate. On any error, the
// partially-written entry directory is removed.
func (w *Writer) Commit(manifest Manifest) (err error) {
	defer func() {
		if err != nil {
			_ = os.RemoveAll(w.path)
		}
	}()

	data, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("marstaging: encoding manifest: %w", err)
	}

	lockPath := filepath.Join(w.path, lockFilename)
	if err := os.WriteFile(lockPath, data, 0o640); err != nil {
		return fmt.Errorf("marstaging: writing manifest.lock: %w", err)
	}

	manifestPath := filepath.Join(w.path, manifestFilename)
	if err := os.Rename(lockPath, manifestPath); err != nil {
		return fmt.Errorf("marstaging: committing manifest: %w", err)
	}
	return nil
}

// Abort discards the entry directory entirely, used when a capture fails
// before a manifest was ever produced.
func (w *Writer) Abort() error {
	return os.RemoveAll(w.path)
}

// Remove deletes the entry's directory from the staging area.
func (e Entry) Remove() error {
	return os.RemoveAll(e.Path)
}

// AttachmentPath joins name onto the entry's directory.
func (e Entry) AttachmentPath(name string) string {
	return filepath.Join(e.Path, name)
}

type candidate struct {
	path    string
	created int64
}

// Iterate walks the staging directory and returns the entries that have a
// committed manifest.json, oldest (by directory creation time) first.
// Directories without a manifest are skipped, not reported as errors: they
// are either mid-write or corrupt leftovers.
func Iterate(stagingDir string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(stagingDir)
	if err != nil {
		return nil, fmt.Errorf("marstaging: reading staging area %s: %w", stagingDir, err)
	}

	candidates := make([]candidate, 0, len(dirEntries))
	for _, d := range dirEntries {
		if !d.IsDir() {
			continue
		}
		info, err := d.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{
			path:    filepath.Join(stagingDir, d.Name()),
			created: creationTimeNanos(info),
		})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].created < candidates[j].created })

	entries := make([]Entry, 0, len(candidates))
	for _, c := range candidates {
		entry, err := readEntry(c.path)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func readEntry(path string) (Entry, error) {
	id, err := uuid.Parse(filepath.Base(path))
	if err != nil {
		return Entry{}, fmt.Errorf("marstaging: %s is not a uuid directory: %w", path, err)
	}

	manifestPath := filepath.Join(path, manifestFilename)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return Entry{}, fmt.Errorf("marstaging: %s has no manifest: %w", path, err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return Entry{}, fmt.Errorf("marstaging: parsing manifest for %s: %w", path, err)
	}

	return Entry{Path: path, UUID: id, Manifest: manifest}, nil
}
