package vectorindex

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rahulsamant37/rag-foundation/internal/config"
)

const (
	snapshotFile = "snapshot.gob"
	manifestFile = "manifest.json"
)

type manifest struct {
	FormatVersion int       `json:"format_version"`
	Dimension     int       `json:"dimension"`
	EntryCount    int       `json:"entry_count"`
	SavedAt       time.Time `json:"saved_at"`
}

type snapshot struct {
	Entries []Entry
	Vectors [][]float32
}

// Persist writes the index to disk atomically: snapshot and manifest are
// written to temp files and renamed into place, so a crash mid-write leaves
// the previous snapshot intact.
func (f *Flat) Persist(ctx context.Context) error {
	f.mu.RLock()
	snap := snapshot{
		Entries: append([]Entry(nil), f.entries...),
		Vectors: append([][]float32(nil), f.vectors...),
	}
	f.mu.RUnlock()

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("creating index dir: %w", err)
	}
	if err := writeAtomic(filepath.Join(f.dir, snapshotFile), func(w *os.File) error {
		return gob.NewEncoder(w).Encode(snap)
	}); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	m := manifest{
		FormatVersion: config.IndexFormatVersion,
		Dimension:     f.dimension,
		EntryCount:    len(snap.Entries),
		SavedAt:       time.Now().UTC(),
	}
	if err := writeAtomic(filepath.Join(f.dir, manifestFile), func(w *os.File) error {
		return json.NewEncoder(w).Encode(m)
	}); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}

	logger.Info("persisted vector index", "entries", m.EntryCount, "dir", f.dir)
	return nil
}

// Load restores the last snapshot. A missing snapshot is a fresh start. A
// corrupt or incompatible one is reported as an error, but the index stays
// usable and empty; the caller decides whether that warrants more than a
// warning.
func (f *Flat) Load(ctx context.Context) (int, error) {
	raw, err := os.ReadFile(filepath.Join(f.dir, manifestFile))
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading manifest: %w", err)
	}

	var m manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return 0, fmt.Errorf("corrupt manifest: %w", err)
	}
	if m.FormatVersion != config.IndexFormatVersion {
		return 0, fmt.Errorf("unsupported snapshot format version %d", m.FormatVersion)
	}
	if m.Dimension != f.dimension {
		return 0, &DimensionMismatchError{Want: f.dimension, Got: m.Dimension}
	}

	file, err := os.Open(filepath.Join(f.dir, snapshotFile))
	if err != nil {
		return 0, fmt.Errorf("opening snapshot: %w", err)
	}
	defer file.Close()

	var snap snapshot
	if err := gob.NewDecoder(file).Decode(&snap); err != nil {
		return 0, fmt.Errorf("corrupt snapshot: %w", err)
	}
	if len(snap.Entries) != len(snap.Vectors) || len(snap.Entries) != m.EntryCount {
		return 0, fmt.Errorf("snapshot entry count disagrees with manifest")
	}
	for _, v := range snap.Vectors {
		if len(v) != f.dimension {
			return 0, &DimensionMismatchError{Want: f.dimension, Got: len(v)}
		}
	}

	f.mu.Lock()
	f.entries = snap.Entries
	f.vectors = snap.Vectors
	f.mu.Unlock()

	logger.Info("restored vector index", "entries", len(snap.Entries), "dir", f.dir)
	return len(snap.Entries), nil
}

func writeAtomic(path string, write func(*os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
