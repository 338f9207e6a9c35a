// Package debounce coalesces bursts of container mutations into a single
// durable write per quiet period.
package debounce

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/rpggio/endershare/internal/loop"
)

// DefaultQuietPeriod matches the host's one-second save cadence.
const DefaultQuietPeriod = time.Second

// FlushFunc writes the current state of a session.
type FlushFunc func(ctx context.Context, sessionID string) error

// Coordinator tracks at most one pending write per session id.
type Coordinator struct {
	sched   loop.Scheduler
	quiet   time.Duration
	flush   FlushFunc
	pending map[string]loop.Handle
	logger  *slog.Logger
}

// New creates a coordinator. A non-positive quiet period uses DefaultQuietPeriod.
func New(sched loop.Scheduler, quiet time.Duration, flush FlushFunc, logger *slog.Logger) *Coordinator {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Coordinator{
		sched:   sched,
		quiet:   quiet,
		flush:   flush,
		pending: make(map[string]loop.Handle),
		logger:  logger,
	}
}

// Touch records a mutation and (re)starts the quiet period for sessionID.
func (c *Coordinator) Touch(sessionID string) {
	if h, ok := c.pending[sessionID]; ok {
		h.Cancel()
	}
	var h loop.Handle
	h = c.sched.AfterFunc(c.quiet, func() {
		// A newer Touch replaces the entry; only the current handle may clear it.
		if c.pending[sessionID] == h {
			delete(c.pending, sessionID)
		}
		if err := c.flush(context.Background(), sessionID); err != nil {
			c.logger.Error("debounced save failed", "session_id", sessionID, "error", err)
		}
	})
	c.pending[sessionID] = h
}

// Flush cancels any pending write for sessionID and writes immediately.
func (c *Coordinator) Flush(ctx context.Context, sessionID string) error {
	c.Cancel(sessionID)
	return c.flush(ctx, sessionID)
}

// Cancel drops the pending write for sessionID without writing. It reports
// whether a write was pending.
func (c *Coordinator) Cancel(sessionID string) bool {
	h, ok := c.pending[sessionID]
	if !ok {
		return false
	}
	h.Cancel()
	delete(c.pending, sessionID)
	return true
}

// Pending reports whether a write is scheduled for sessionID.
func (c *Coordinator) Pending(sessionID string) bool {
	_, ok := c.pending[sessionID]
	return ok
}

// FlushAll writes every session that still has a pending write.
func (c *Coordinator) FlushAll(ctx context.Context) error {
	ids := make([]string, 0, len(c.pending))
	for id := range c.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var firstErr error
	for _, id := range ids {
		if err := c.Flush(ctx, id); err != nil {
			c.logger.Error("flush on shutdown failed", "session_id", id, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
