package entities

import (
	"strings"

	"github.com/google/uuid"
)

// UserIdentity holds the lightweight identity facts persisted on the device
// and shared with the agent. ID is generated once per device and never
// regenerated.
type UserIdentity struct {
	Name  string `json:"user_name"`
	Email string `json:"user_email"`
	Phone string `json:"user_phone"`
	ID    string `json:"user_id"`
}

// NewUserIdentity creates an empty identity record with a fresh device id.
func NewUserIdentity() UserIdentity {
	return UserIdentity{ID: uuid.NewString()}
}

// Merge folds incoming facts into the record. Empty or whitespace-only
// incoming fields never clear existing values. Returns true when any field
// changed.
func (u *UserIdentity) Merge(incoming UserIdentity) bool {
	changed := false
	merge := func(dst *string, src string) {
		src = strings.TrimSpace(src)
		if src != "" && src != *dst {
			*dst = src
			changed = true
		}
	}
	merge(&u.Name, incoming.Name)
	merge(&u.Email, incoming.Email)
	merge(&u.Phone, incoming.Phone)
	merge(&u.ID, incoming.ID)
	return changed
}
