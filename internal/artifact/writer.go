// Package artifact saves snapshots and recordings to the data directory and
// catalogs them in the store.
package artifact

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/ayusman/abhinaya/internal/store"
)

// ErrNotPNG is returned when a snapshot body does not decode as a PNG image.
var ErrNotPNG = errors.New("snapshot is not a PNG image")

// maxNameAttempts bounds the search for a free filename when several
// artifacts land in the same millisecond.
const maxNameAttempts = 1000

// Writer writes artifact files under a directory and records them.
type Writer struct {
	dir  string
	repo *store.ArtifactRepository
}

// NewWriter creates dir if needed.
func NewWriter(dir string, repo *store.ArtifactRepository) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &Writer{dir: dir, repo: repo}, nil
}

// Dir returns the directory files are written to.
func (w *Writer) Dir() string { return w.dir }

// Filename returns the name for an artifact of kind created at t:
// snapshot_<unix-ms>.png or recording_<unix-ms>.webm.
func Filename(kind store.ArtifactKind, t time.Time) string {
	return fmt.Sprintf("%s_%d%s", kind, t.UnixMilli(), extension(kind))
}

func extension(kind store.ArtifactKind) string {
	if kind == store.KindRecording {
		return ".webm"
	}
	return ".png"
}

// ValidatePNG decodes data fully.
func ValidatePNG(data []byte) error {
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: %v", ErrNotPNG, err)
	}
	return nil
}

// SaveSnapshot validates and writes a PNG snapshot.
func (w *Writer) SaveSnapshot(data []byte, source string, at time.Time) (*store.Artifact, error) {
	if err := ValidatePNG(data); err != nil {
		return nil, err
	}
	return w.save(store.KindSnapshot, data, source, at)
}

// SaveRecording writes a finished recording. An empty recording is still
// saved so that every stop produces an artifact.
func (w *Writer) SaveRecording(data []byte, source string, at time.Time) (*store.Artifact, error) {
	return w.save(store.KindRecording, data, source, at)
}

func (w *Writer) save(kind store.ArtifactKind, data []byte, source string, at time.Time) (*store.Artifact, error) {
	f, name, stamp, err := w.create(kind, at)
	if err != nil {
		return nil, err
	}

	_, werr := f.Write(data)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		os.Remove(filepath.Join(w.dir, name))
		return nil, fmt.Errorf("write %s: %w", name, err)
	}

	a := &store.Artifact{
		Kind:      kind,
		Filename:  name,
		SizeBytes: int64(len(data)),
		Source:    source,
		CreatedAt: stamp,
	}
	if err := w.repo.Create(a); err != nil {
		os.Remove(filepath.Join(w.dir, name))
		return nil, fmt.Errorf("catalog %s: %w", name, err)
	}
	return a, nil
}

// create opens a new file, moving the timestamp forward one millisecond at a
// time while the name is taken.
func (w *Writer) create(kind store.ArtifactKind, at time.Time) (*os.File, string, time.Time, error) {
	stamp := at.Truncate(time.Millisecond)
	for i := 0; i < maxNameAttempts; i++ {
		name := Filename(kind, stamp)
		f, err := os.OpenFile(filepath.Join(w.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return f, name, stamp, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", time.Time{}, fmt.Errorf("create %s: %w", name, err)
		}
		stamp = stamp.Add(time.Millisecond)
	}
	return nil, "", time.Time{}, fmt.Errorf("no free %s filename near %d", kind, at.UnixMilli())
}

// Path returns the absolute location of an artifact's file.
func (w *Writer) Path(a *store.Artifact) string {
	return filepath.Join(w.dir, filepath.Base(a.Filename))
}

// Delete removes the catalog row and then the file. A file that is
// already gone is not an error.
func (w *Writer) Delete(id string) error {
	a, err := w.repo.GetByID(id)
	if err != nil {
		return err
	}
	if err := w.repo.Delete(id); err != nil {
		return err
	}
	if err := os.Remove(w.Path(a)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", a.Filename, err)
	}
	return nil
}
