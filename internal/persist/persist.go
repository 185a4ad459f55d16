// Package persist stores and loads snapshot files under a fixed directory
// (spec.md §4.2 "Snapshot files", §6 "save/load"). There is no locking
// beyond what the filesystem already gives: concurrent writers to the same
// name are not supported (spec.md §5).
package persist

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"vm16kit/internal/snapshot"
)

// Store saves and loads named snapshots under Dir.
type Store struct {
	Dir string
}

// NewStore returns a Store rooted at dir, creating it if necessary.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("persist: creating %s: %w", dir, err)
	}
	return &Store{Dir: dir}, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.Dir, name+".vmsnap")
}

// Save writes s under name, overwriting any existing file of that name.
func (s *Store) Save(name string, snap snapshot.Snapshot) error {
	data := snapshot.Serialize(snap)
	if err := os.WriteFile(s.path(name), data, 0o644); err != nil {
		return fmt.Errorf("persist: saving %s: %w", name, err)
	}
	return nil
}

// Load reads back the snapshot previously saved under name.
func (s *Store) Load(name string) (snapshot.Snapshot, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("persist: loading %s: %w", name, err)
	}
	snap, err := snapshot.Deserialize(data)
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("persist: loading %s: %w", name, err)
	}
	return snap, nil
}

// AutoCheckpoint saves s under a freshly generated UUID so that automated
// (e.g. BFS-driven) saves never collide with a user's own named save/load
// slots, and returns the name it used.
func (s *Store) AutoCheckpoint(snap snapshot.Snapshot) (string, error) {
	name := "auto-" + uuid.NewString()
	if err := s.Save(name, snap); err != nil {
		return "", err
	}
	return name, nil
}
