// Package vault implements the credential store that the arbitration core
// hands control to. The winning instance owns the vault for its lifetime;
// rival instances never touch it directly and instead forward import
// requests through the notification channel.
package vault

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	kerrors "github.com/keywarden/keywarden/internal/errors"
	"github.com/keywarden/keywarden/internal/event"
	"github.com/keywarden/keywarden/internal/logging"
)

const (
	storeVersion = 1

	fileMode = 0o600
	dirMode  = 0o700
)

// Entry is one stored credential.
type Entry struct {
	Name      string    `toml:"name"`
	Username  string    `toml:"username"`
	Secret    string    `toml:"secret"`
	URL       string    `toml:"url,omitempty"`
	UpdatedAt time.Time `toml:"updated_at"`
}

// storeFile is the on-disk schema, shared by the vault store and the
// import/export interchange files.
type storeFile struct {
	Version int     `toml:"version"`
	Entries []Entry `toml:"entries"`
}

// Vault is a TOML-backed credential store.
type Vault struct {
	path   string
	logger *logging.Logger
	bus    *event.Bus

	mu      sync.Mutex
	entries []Entry
}

// Open initializes vault storage at the given path, loading existing entries
// if present. This is the storage initialization performed before the
// instance's channel address is published.
func Open(path string, logger *logging.Logger, bus *event.Bus) (*Vault, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}

	v := &Vault{
		path:   path,
		logger: logger.WithComponent("vault"),
		bus:    bus,
	}

	file, err := readStore(path, true)
	if err != nil {
		return nil, err
	}
	v.entries = file.Entries

	v.logger.Info("vault opened", "path", path, "entries", len(v.entries))
	return v, nil
}

// Import merges entries from a credential file into the vault. Entries are
// keyed by name; an imported entry replaces a stored one with the same name.
// Errors are returned for the caller to report; the vault state is left
// untouched on failure.
func (v *Vault) Import(path string) error {
	file, err := readStore(path, false)
	if err != nil {
		importErr := kerrors.NewImportError("read credential file", err).WithPath(path)
		v.publish(event.NewImportFailedEvent(path, importErr))
		return importErr
	}

	for i, e := range file.Entries {
		if e.Name == "" {
			importErr := kerrors.NewImportError(
				fmt.Sprintf("entry %d has no name", i), kerrors.ErrInvalidInput,
			).WithPath(path)
			v.publish(event.NewImportFailedEvent(path, importErr))
			return importErr
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	merged := 0
	for _, imp := range file.Entries {
		if imp.UpdatedAt.IsZero() {
			imp.UpdatedAt = time.Now().UTC()
		}
		replaced := false
		for i := range v.entries {
			if v.entries[i].Name == imp.Name {
				v.entries[i] = imp
				replaced = true
				break
			}
		}
		if !replaced {
			v.entries = append(v.entries, imp)
		}
		merged++
	}

	if err := v.saveLocked(); err != nil {
		importErr := kerrors.NewImportError("persist merged entries", err).WithPath(path)
		v.publish(event.NewImportFailedEvent(path, importErr))
		return importErr
	}

	v.logger.Info("import completed", "path", path, "entries", merged)
	v.publish(event.NewImportCompletedEvent(path, merged))
	return nil
}

// Export writes all stored entries to the given path. One-shot batch mode;
// the exporting instance exits afterwards without publishing a channel.
func (v *Vault) Export(path string) error {
	v.mu.Lock()
	entries := append([]Entry(nil), v.entries...)
	v.mu.Unlock()

	if err := writeStore(path, storeFile{Version: storeVersion, Entries: entries}); err != nil {
		return fmt.Errorf("export to %s: %w", path, err)
	}

	v.logger.Info("export completed", "path", path, "entries", len(entries))
	return nil
}

// Foreground signals the run loop to bring the instance to the foreground.
func (v *Vault) Foreground() {
	v.logger.Info("foreground requested")
	v.publish(event.NewForegroundRequestedEvent())
}

// Run is the long-running main loop. It blocks until the context is
// canceled, servicing foreground signals published on the bus.
func (v *Vault) Run(ctx context.Context) error {
	if v.bus != nil {
		id := v.bus.Subscribe(event.TypeForegroundRequested, func(event.Event) {
			v.logger.Info("brought to foreground")
		})
		defer v.bus.Unsubscribe(id)
	}

	v.logger.Info("run loop started")
	<-ctx.Done()
	v.logger.Info("run loop stopped")
	return nil
}

// Entries returns a copy of the stored entries.
func (v *Vault) Entries() []Entry {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Entry(nil), v.entries...)
}

func (v *Vault) publish(e event.Event) {
	if v.bus != nil {
		v.bus.Publish(e)
	}
}

// saveLocked persists the current entries. Caller holds v.mu.
func (v *Vault) saveLocked() error {
	return writeStore(v.path, storeFile{Version: storeVersion, Entries: v.entries})
}

// readStore loads a store file. When allowMissing is true a missing file is
// an empty store (first run); import sources must exist.
func readStore(path string, allowMissing bool) (storeFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if allowMissing && os.IsNotExist(err) {
			return storeFile{Version: storeVersion}, nil
		}
		return storeFile{}, fmt.Errorf("read store: %w", err)
	}

	var file storeFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return storeFile{}, fmt.Errorf("%w: %v", kerrors.ErrVaultCorrupt, err)
	}
	if file.Version > storeVersion {
		return storeFile{}, fmt.Errorf("%w: unsupported version %d", kerrors.ErrVaultCorrupt, file.Version)
	}
	return file, nil
}

// writeStore replaces a store file atomically via temp file and rename.
func writeStore(path string, file storeFile) error {
	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".vault-*.toml")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
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
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	cleanup = false

	return nil
}
