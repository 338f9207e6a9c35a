package repository

import (
	"github.com/rpggio/endershare/internal/domain/share"
	"github.com/rpggio/endershare/internal/restore"
)

// Store persists sessions and pending restorations. Both the SQLite and
// the YAML file backends implement it.
type Store interface {
	share.SessionStore
	restore.Store
}
