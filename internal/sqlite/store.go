package sqlite

import "github.com/rpggio/endershare/internal/repository"

// Store bundles the session and restoration repositories over one database.
type Store struct {
	*SessionRepository
	*RestorationRepository
}

var _ repository.Store = (*Store)(nil)

// NewStore creates a Store backed by db.
func NewStore(db *DB) *Store {
	return &Store{
		SessionRepository:     NewSessionRepository(db),
		RestorationRepository: NewRestorationRepository(db),
	}
}
