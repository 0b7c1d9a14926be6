package session

import (
	"context"
	"time"

	"dentaflow/models"
)

// Store persists per-conversation state between turns.
//
// Contract: exactly one Load and one Save per turn. Intermediate logic
// operates on the in-memory session value; re-reading the store mid-turn is
// how stale flags get acted on, so nothing in the turn path may do it.
type Store interface {
	// Load returns the session for id, or a fresh all-defaults session when
	// none exists or the stored one has lapsed past the inactivity timeout.
	// An expired session is indistinguishable from a new one to the caller.
	Load(ctx context.Context, id, phone string, now time.Time) (*models.Session, error)

	// Save atomically replaces the session and refreshes its TTL.
	Save(ctx context.Context, id string, sess *models.Session) error

	// Delete removes the session immediately.
	Delete(ctx context.Context, id string) error
}
