package session

import (
	"github.com/bkoseoglu/mallhub/internal/identity"
	"github.com/bkoseoglu/mallhub/internal/profiles"
)

// State is the published session snapshot. Snapshots are immutable: the
// resolver publishes a fresh value on every transition and readers never
// write back.
//
// Invariant: when Identity is set and Loading is false, Profile is set.
type State struct {
	Identity *identity.Identity
	Profile  *profiles.Profile
	Loading  bool
}

// SignedIn reports whether the snapshot carries a fully resolved identity.
func (s State) SignedIn() bool {
	return s.Identity != nil && !s.Loading
}
