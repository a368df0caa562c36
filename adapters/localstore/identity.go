// Package localstore persists session state on the local device.
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/induslabs/concierge/domain/entities"
)

// FileIdentityStore persists the user identity facts as JSON under a
// well-known path. The first Load generates the device id and writes the
// record so the id survives restarts.
type FileIdentityStore struct {
	path string
	mu   sync.Mutex
}

// NewFileIdentityStore creates a store backed by path.
func NewFileIdentityStore(path string) *FileIdentityStore {
	return &FileIdentityStore{path: path}
}

// Load reads the persisted record, creating a fresh one (with a generated
// device id) when the file is missing or unreadable as JSON.
func (s *FileIdentityStore) Load() (entities.UserIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return s.createLocked()
	}
	if err != nil {
		return entities.UserIdentity{}, fmt.Errorf("reading identity file: %w", err)
	}

	var identity entities.UserIdentity
	if err := json.Unmarshal(data, &identity); err != nil || identity.ID == "" {
		// A corrupt record is replaced rather than surfaced; the device id
		// is the only field that cannot be recovered any other way.
		return s.createLocked()
	}
	return identity, nil
}

// Save writes the record back.
func (s *FileIdentityStore) Save(identity entities.UserIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(identity)
}

func (s *FileIdentityStore) createLocked() (entities.UserIdentity, error) {
	identity := entities.NewUserIdentity()
	if err := s.writeLocked(identity); err != nil {
		return entities.UserIdentity{}, err
	}
	return identity, nil
}

func (s *FileIdentityStore) writeLocked(identity entities.UserIdentity) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating identity directory: %w", err)
	}
	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encoding identity: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing identity file: %w", err)
	}
	return nil
}
