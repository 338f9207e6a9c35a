// Package restore holds private container contents for participants who
// were unreachable when their session ended.
package restore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/rpggio/endershare/internal/container"
)

// Queue maps a participant to the slots awaiting delivery. Durable records
// are written through on Enqueue and removed on Consume.
type Queue struct {
	store   Store
	pending map[uuid.UUID][]container.Item
	logger  *slog.Logger
}

// NewQueue creates an empty queue backed by store.
func NewQueue(store Store, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Queue{
		store:   store,
		pending: make(map[uuid.UUID][]container.Item),
		logger:  logger,
	}
}

// Load replaces the in-memory queue with the durable records. Malformed
// records are skipped.
func (q *Queue) Load(ctx context.Context) error {
	recs, err := q.store.LoadRestorations(ctx)
	if err != nil {
		return fmt.Errorf("loading restorations: %w", err)
	}
	q.pending = make(map[uuid.UUID][]container.Item, len(recs))
	for _, rec := range recs {
		id, err := uuid.Parse(rec.ParticipantID)
		if err != nil {
			q.logger.Warn("skipping restoration with invalid participant", "participant_id", rec.ParticipantID, "error", err)
			continue
		}
		items, err := DecodeSlots(rec.Payload, container.PrivateSize)
		if err != nil {
			q.logger.Warn("skipping unreadable restoration", "participant_id", rec.ParticipantID, "error", err)
			continue
		}
		q.pending[id] = items
	}
	q.logger.Info("restorations loaded", "count", len(q.pending))
	return nil
}

// Enqueue stores items for participant, replacing any earlier entry.
// The in-memory entry is kept even if the durable write fails.
func (q *Queue) Enqueue(ctx context.Context, participant uuid.UUID, items []container.Item) error {
	slots := make([]container.Item, container.PrivateSize)
	copy(slots, items)
	if _, ok := q.pending[participant]; ok {
		q.logger.Warn("replacing pending restoration", "participant_id", participant)
	}
	q.pending[participant] = slots

	payload, err := EncodeSlots(slots)
	if err != nil {
		return err
	}
	if err := q.store.SaveRestoration(ctx, Record{ParticipantID: participant.String(), Payload: payload}); err != nil {
		return fmt.Errorf("saving restoration: %w", err)
	}
	return nil
}

// HasPending reports whether participant has undelivered items.
func (q *Queue) HasPending(participant uuid.UUID) bool {
	_, ok := q.pending[participant]
	return ok
}

// Consume removes and returns the entry for participant. The second
// return is false when nothing was pending.
func (q *Queue) Consume(ctx context.Context, participant uuid.UUID) ([]container.Item, bool) {
	items, ok := q.pending[participant]
	if !ok {
		return nil, false
	}
	delete(q.pending, participant)
	if err := q.store.DeleteRestoration(ctx, participant.String()); err != nil {
		q.logger.Error("failed to delete delivered restoration", "participant_id", participant, "error", err)
	}
	return items, true
}

// Len returns the number of pending entries.
func (q *Queue) Len() int {
	return len(q.pending)
}

// SaveAll overwrites the durable queue with the in-memory entries.
func (q *Queue) SaveAll(ctx context.Context) error {
	ids := make([]uuid.UUID, 0, len(q.pending))
	for id := range q.pending {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	recs := make([]Record, 0, len(ids))
	for _, id := range ids {
		payload, err := EncodeSlots(q.pending[id])
		if err != nil {
			return err
		}
		recs = append(recs, Record{ParticipantID: id.String(), Payload: payload})
	}
	if err := q.store.ReplaceRestorations(ctx, recs); err != nil {
		return fmt.Errorf("saving restorations: %w", err)
	}
	return nil
}
