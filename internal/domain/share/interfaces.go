package share

import (
	"context"

	"github.com/google/uuid"
	"github.com/rpggio/endershare/internal/container"
)

// SessionStore persists sessions.
type SessionStore interface {
	LoadSessions(ctx context.Context) ([]SessionRecord, error)
	SaveSession(ctx context.Context, rec SessionRecord) error
	DeleteSession(ctx context.Context, id string) error
}

// Host is the environment that owns participants and their private
// containers. Private containers are only available while online.
type Host interface {
	Online(id uuid.UUID) bool
	Name(id uuid.UUID) string
	EnderChest(id uuid.UUID) (container.Container, bool)
	Notify(id uuid.UUID, message string)
	OpenView(id uuid.UUID, c container.Container)
	CloseView(id uuid.UUID)
}
