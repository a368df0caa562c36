package entities

import "testing"

func TestNewUserIdentityGeneratesID(t *testing.T) {
	first := NewUserIdentity()
	second := NewUserIdentity()

	if first.ID == "" {
		t.Error("Expected generated device id, got empty string")
	}
	if first.ID == second.ID {
		t.Error("Expected distinct device ids per record")
	}
}

func TestMergeKeepsExistingOnEmptyIncoming(t *testing.T) {
	identity := UserIdentity{Name: "Amy", Phone: ""}

	changed := identity.Merge(UserIdentity{Phone: "555-1000"})
	if !changed {
		t.Error("Expected merge with new phone to report a change")
	}
	if identity.Name != "Amy" {
		t.Errorf("Expected name Amy, got %q", identity.Name)
	}
	if identity.Phone != "555-1000" {
		t.Errorf("Expected phone 555-1000, got %q", identity.Phone)
	}

	// An empty incoming name must not erase the stored one.
	changed = identity.Merge(UserIdentity{Name: ""})
	if changed {
		t.Error("Expected merge with empty fields to be a no-op")
	}
	if identity.Name != "Amy" {
		t.Errorf("Expected name Amy to survive empty merge, got %q", identity.Name)
	}
}

func TestMergeIgnoresWhitespaceOnlyValues(t *testing.T) {
	identity := UserIdentity{Email: "amy@example.com"}

	if identity.Merge(UserIdentity{Email: "   "}) {
		t.Error("Expected whitespace-only value to be ignored")
	}
	if identity.Email != "amy@example.com" {
		t.Errorf("Expected email to survive, got %q", identity.Email)
	}
}

func TestMergeOverwritesWithNewValue(t *testing.T) {
	identity := UserIdentity{Name: "Amy"}

	if !identity.Merge(UserIdentity{Name: "Amelia"}) {
		t.Error("Expected non-empty incoming name to change the record")
	}
	if identity.Name != "Amelia" {
		t.Errorf("Expected name Amelia, got %q", identity.Name)
	}
}
