package usecase

import (
	"fmt"
	"sync"

	"github.com/induslabs/concierge/domain/entities"
	"github.com/induslabs/concierge/domain/repositories"
)

// IdentityRecord is the in-session view of the persisted user identity
// facts. It is written by the decoder when user.details messages arrive and
// read by the context syncer; every change is written through to the store.
type IdentityRecord struct {
	store repositories.IdentityStore

	mu      sync.Mutex
	current entities.UserIdentity
}

// LoadIdentityRecord reads the persisted record, creating one when none
// exists.
func LoadIdentityRecord(store repositories.IdentityStore) (*IdentityRecord, error) {
	identity, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading user identity: %w", err)
	}
	return &IdentityRecord{store: store, current: identity}, nil
}

// Snapshot returns a copy of the current facts.
func (r *IdentityRecord) Snapshot() entities.UserIdentity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Merge folds incoming facts in non-destructively and persists the result
// when anything changed.
func (r *IdentityRecord) Merge(incoming entities.UserIdentity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.current.Merge(incoming) {
		return nil
	}
	if err := r.store.Save(r.current); err != nil {
		return fmt.Errorf("saving user identity: %w", err)
	}
	return nil
}
