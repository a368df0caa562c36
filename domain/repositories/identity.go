package repositories

import "github.com/induslabs/concierge/domain/entities"

// IdentityStore persists the user identity facts under a well-known key on
// the local device.
type IdentityStore interface {
	// Load reads the persisted record. Implementations create and persist a
	// fresh record (with a generated device id) when none exists yet.
	Load() (entities.UserIdentity, error)
	// Save writes the record back.
	Save(identity entities.UserIdentity) error
}
