package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rpggio/endershare/internal/restore"
)

// RestorationRepository implements restore.Store for SQLite
type RestorationRepository struct {
	db *DB
}

var _ restore.Store = (*RestorationRepository)(nil)

// NewRestorationRepository creates a new RestorationRepository
func NewRestorationRepository(db *DB) *RestorationRepository {
	return &RestorationRepository{db: db}
}

// LoadRestorations returns every pending restoration
func (r *RestorationRepository) LoadRestorations(ctx context.Context) ([]restore.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT participant_id, payload FROM pending_restorations ORDER BY participant_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list restorations: %w", err)
	}
	defer rows.Close()

	var recs []restore.Record
	for rows.Next() {
		var rec restore.Record
		if err := rows.Scan(&rec.ParticipantID, &rec.Payload); err != nil {
			return nil, fmt.Errorf("failed to scan restoration: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating restorations: %w", err)
	}
	return recs, nil
}

// SaveRestoration upserts the restoration for one participant
func (r *RestorationRepository) SaveRestoration(ctx context.Context, rec restore.Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pending_restorations (participant_id, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(participant_id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, rec.ParticipantID, rec.Payload, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save restoration: %w", err)
	}
	return nil
}

// DeleteRestoration removes the restoration for one participant
func (r *RestorationRepository) DeleteRestoration(ctx context.Context, participantID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM pending_restorations WHERE participant_id = ?`, participantID); err != nil {
		return fmt.Errorf("failed to delete restoration: %w", err)
	}
	return nil
}

// ReplaceRestorations overwrites the whole table with recs
func (r *RestorationRepository) ReplaceRestorations(ctx context.Context, recs []restore.Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM pending_restorations`); err != nil {
		return fmt.Errorf("failed to clear restorations: %w", err)
	}
	now := time.Now()
	for _, rec := range recs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO pending_restorations (participant_id, payload, updated_at) VALUES (?, ?, ?)`,
			rec.ParticipantID, rec.Payload, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert restoration: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit restorations: %w", err)
	}
	return nil
}
