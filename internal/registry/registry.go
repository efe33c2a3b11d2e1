// Package registry persists the notification channel handle of the
// currently running instance: one slot per user identity, stored in a TOML
// file under the per-user config directory and shared across that user's
// sessions.
//
// Set always overwrites the owner's slot; there is no compare-and-swap, no
// expiry, and no cleanup on process exit. A slot may therefore hold a stale
// address long after the owning process terminated, and Get results are
// advisory: callers must tolerate delivery failure to a returned address.
// Two instances racing to Set resolve with last-write-wins, the only
// atomicity the underlying rename provides.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	kerrors "github.com/keywarden/keywarden/internal/errors"
)

const (
	fileName = "handles.toml"

	dirMode  = 0o700
	fileMode = 0o600
)

// handleRecord is one persisted slot: the channel address published by the
// instance most recently run by an owner, plus debugging context.
type handleRecord struct {
	Owner     string    `toml:"owner"`
	Address   string    `toml:"address"`
	PID       int       `toml:"pid"`
	UpdatedAt time.Time `toml:"updated_at"`
}

// handlesFile is the on-disk schema.
type handlesFile struct {
	Handles []handleRecord `toml:"handles"`
}

// Registry reads and writes the per-user handle file.
type Registry struct {
	path string
	mu   sync.Mutex
}

// New creates a Registry backed by handles.toml in the given directory.
func New(dir string) *Registry {
	return &Registry{path: filepath.Join(dir, fileName)}
}

// Set publishes the channel address for an owner, overwriting any existing
// slot for that owner.
func (r *Registry) Set(ownerUID, addr string) error {
	if ownerUID == "" {
		return fmt.Errorf("registry: owner UID is required")
	}
	if addr == "" {
		return fmt.Errorf("registry: channel address is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.read()
	if err != nil {
		return err
	}

	rec := handleRecord{
		Owner:     ownerUID,
		Address:   addr,
		PID:       os.Getpid(),
		UpdatedAt: time.Now().UTC(),
	}

	replaced := false
	for i := range file.Handles {
		if file.Handles[i].Owner == ownerUID {
			file.Handles[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		file.Handles = append(file.Handles, rec)
	}

	return r.write(file)
}

// Get returns the channel address published for an owner. The second return
// value is false if no slot exists for that owner. The returned address may
// be stale.
func (r *Registry) Get(ownerUID string) (string, bool, error) {
	if ownerUID == "" {
		return "", false, fmt.Errorf("registry: owner UID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.read()
	if err != nil {
		return "", false, err
	}

	for _, rec := range file.Handles {
		if rec.Owner == ownerUID {
			return rec.Address, true, nil
		}
	}
	return "", false, nil
}

// read loads the handle file. A missing file is an empty registry.
func (r *Registry) read() (handlesFile, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return handlesFile{}, nil
		}
		return handlesFile{}, fmt.Errorf("registry: read handle file: %w", err)
	}

	var file handlesFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return handlesFile{}, fmt.Errorf("%w: %v", kerrors.ErrRegistryCorrupt, err)
	}
	return file, nil
}

// write replaces the handle file atomically via temp file and rename.
func (r *Registry) write(file handlesFile) error {
	if err := os.MkdirAll(filepath.Dir(r.path), dirMode); err != nil {
		return fmt.Errorf("registry: create directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("registry: encode handle file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".handles-*.toml")
	if err != nil {
		return fmt.Errorf("registry: create temp file: %w", err)
	}

	tmpName := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("registry: write temp file: %w", err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("registry: chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("registry: close temp file: %w", err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("registry: replace handle file: %w", err)
	}
	cleanup = false

	return nil
}
