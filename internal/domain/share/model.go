package share

import (
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/endershare/internal/container"
	"github.com/rpggio/endershare/internal/loop"
)

// Session is an active sharing arrangement between two participants.
type Session struct {
	ID      string
	PlayerA uuid.UUID
	PlayerB uuid.UUID
	Shared  container.Container
}

// Has reports whether id takes part in the session.
func (s *Session) Has(id uuid.UUID) bool {
	return s.PlayerA == id || s.PlayerB == id
}

// Counterpart returns the other participant.
func (s *Session) Counterpart(id uuid.UUID) uuid.UUID {
	if s.PlayerA == id {
		return s.PlayerB
	}
	return s.PlayerA
}

// Invitation is an offer from Inviter to Invitee that has not been accepted.
type Invitation struct {
	Inviter   uuid.UUID
	Invitee   uuid.UUID
	CreatedAt time.Time

	expiry loop.Handle
}

// Expired reports whether the invitation is at least timeout old at now.
func (i *Invitation) Expired(now time.Time, timeout time.Duration) bool {
	return now.Sub(i.CreatedAt) >= timeout
}

// SessionRecord is the durable form of a session. Slots holds only
// non-empty slots.
type SessionRecord struct {
	ID      string
	Player1 string
	Player2 string
	Slots   map[int]container.Item
}

// UnshareResult reports how each half of a split was delivered.
type UnshareResult struct {
	SessionID string
	Restored  []uuid.UUID
	Queued    []uuid.UUID
}
