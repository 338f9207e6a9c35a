package share

import (
	"sort"

	"github.com/google/uuid"
)

// Registry maps participants to their active session. Each session is
// indexed under both participants and under its id.
type Registry struct {
	byParticipant map[uuid.UUID]*Session
	byID          map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byParticipant: make(map[uuid.UUID]*Session),
		byID:          make(map[string]*Session),
	}
}

// Active reports whether id is in a session.
func (r *Registry) Active(id uuid.UUID) bool {
	_, ok := r.byParticipant[id]
	return ok
}

// Get returns the session for id.
func (r *Registry) Get(id uuid.UUID) (*Session, bool) {
	sess, ok := r.byParticipant[id]
	return sess, ok
}

// BySessionID returns the session with the given id.
func (r *Registry) BySessionID(sessionID string) (*Session, bool) {
	sess, ok := r.byID[sessionID]
	return sess, ok
}

// Add indexes sess under both participants.
func (r *Registry) Add(sess *Session) error {
	if sess.PlayerA == sess.PlayerB {
		return ErrSelfInvite
	}
	for _, id := range []uuid.UUID{sess.PlayerA, sess.PlayerB} {
		if existing, ok := r.byParticipant[id]; ok && existing != sess {
			return ErrSessionConflict
		}
	}
	if existing, ok := r.byID[sess.ID]; ok && existing != sess {
		return ErrSessionConflict
	}
	r.byParticipant[sess.PlayerA] = sess
	r.byParticipant[sess.PlayerB] = sess
	r.byID[sess.ID] = sess
	return nil
}

// Remove drops the session of id under both participants. It returns the
// removed session, if any.
func (r *Registry) Remove(id uuid.UUID) (*Session, bool) {
	sess, ok := r.byParticipant[id]
	if !ok {
		return nil, false
	}
	delete(r.byParticipant, sess.PlayerA)
	delete(r.byParticipant, sess.PlayerB)
	delete(r.byID, sess.ID)
	return sess, true
}

// All returns each session once, ordered by id.
func (r *Registry) All() []*Session {
	sessions := make([]*Session, 0, len(r.byID))
	for _, sess := range r.byID {
		sessions = append(sessions, sess)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })
	return sessions
}

// Len returns the number of sessions.
func (r *Registry) Len() int {
	return len(r.byID)
}
