// Package credstore owns the credential pair for the current session.
// The pair is the only shared mutable state in the client: it is written
// by login/logout and by the session guard's renewal path, and read on
// every outbound request. All implementations swap the pair as a unit so
// a reader can never observe a new access token next to an old refresh
// token.
package credstore

import (
	"github.com/winnerx0/jille-client/internal/model"
)

// Store holds the current access/refresh credential pair.
type Store interface {
	// Get returns the stored pair, or ok=false when no session exists.
	Get() (pair model.AuthTokens, ok bool)

	// Set overwrites the stored pair atomically.
	Set(pair model.AuthTokens) error

	// Clear removes the stored pair. Clearing an empty store is a no-op.
	Clear() error
}
