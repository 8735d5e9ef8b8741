package auth

import "github.com/google/uuid"

// Actor identifies who is performing a ledger operation. It is passed
// explicitly into every service call, never read from ambient state.
type Actor struct {
	UserID   uuid.UUID
	Username string
	IsAdmin  bool
}

// Known reports whether the actor carries a resolved user identity.
func (a Actor) Known() bool {
	return a.UserID != uuid.Nil
}
