package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rpggio/endershare/internal/container"
	"github.com/rpggio/endershare/internal/domain/share"
	"github.com/rpggio/endershare/internal/repository"
)

// SessionRepository implements share.SessionStore for SQLite
type SessionRepository struct {
	db *DB
}

var _ share.SessionStore = (*SessionRepository)(nil)

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// LoadSessions returns every stored session with its non-empty slots
func (r *SessionRepository) LoadSessions(ctx context.Context) ([]share.SessionRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, player1, player2 FROM share_sessions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var recs []share.SessionRecord
	index := make(map[string]int)
	for rows.Next() {
		rec := share.SessionRecord{Slots: make(map[int]container.Item)}
		if err := rows.Scan(&rec.ID, &rec.Player1, &rec.Player2); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		index[rec.ID] = len(recs)
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	slotRows, err := r.db.QueryContext(ctx, `SELECT session_id, slot, item FROM share_slots ORDER BY session_id, slot`)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	defer slotRows.Close()

	for slotRows.Next() {
		var sessionID string
		var slot int
		var item []byte
		if err := slotRows.Scan(&sessionID, &slot, &item); err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		i, ok := index[sessionID]
		if !ok {
			continue
		}
		recs[i].Slots[slot] = container.Item(item)
	}
	if err := slotRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating slots: %w", err)
	}

	return recs, nil
}

// Get retrieves a single session by ID
func (r *SessionRepository) Get(ctx context.Context, id string) (*share.SessionRecord, error) {
	rec := share.SessionRecord{Slots: make(map[int]container.Item)}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, player1, player2 FROM share_sessions WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Player1, &rec.Player2)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT slot, item FROM share_slots WHERE session_id = ? ORDER BY slot`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get slots: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var slot int
		var item []byte
		if err := rows.Scan(&slot, &item); err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		rec.Slots[slot] = container.Item(item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating slots: %w", err)
	}

	return &rec, nil
}

// SaveSession upserts a session and replaces its slots
func (r *SessionRepository) SaveSession(ctx context.Context, rec share.SessionRecord) error {
	if rec.ID == "" {
		return repository.ErrInvalidInput
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO share_sessions (id, player1, player2, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			player1 = excluded.player1,
			player2 = excluded.player2,
			updated_at = excluded.updated_at
	`, rec.ID, rec.Player1, rec.Player2, now, now)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM share_slots WHERE session_id = ?`, rec.ID); err != nil {
		return fmt.Errorf("failed to clear slots: %w", err)
	}

	for slot, item := range rec.Slots {
		if item.Empty() {
			continue
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO share_slots (session_id, slot, item) VALUES (?, ?, ?)`,
			rec.ID, slot, []byte(item),
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return repository.ErrInvalidInput
			}
			return fmt.Errorf("failed to save slot %d: %w", slot, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}
	return nil
}

// DeleteSession removes a session and its slots. Missing sessions are ignored.
func (r *SessionRepository) DeleteSession(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM share_slots WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete slots: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM share_sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}
