package share

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/endershare/internal/container"
	"github.com/rpggio/endershare/internal/debounce"
	"github.com/rpggio/endershare/internal/loop"
	"github.com/rpggio/endershare/internal/restore"
)

// DefaultInvitationTimeout is how long an invitation stays acceptable.
const DefaultInvitationTimeout = 60 * time.Second

// Config tunes the manager.
type Config struct {
	InvitationTimeout time.Duration
	QuietPeriod       time.Duration
}

// Manager owns the registry, pending invitations and pending restorations.
// All methods must be called from the scheduler's goroutine.
type Manager struct {
	registry     *Registry
	invitations  map[uuid.UUID]*Invitation
	restorations *restore.Queue
	writer       *debounce.Coordinator
	sessions     SessionStore
	host         Host
	sched        loop.Scheduler
	timeout      time.Duration
	logger       *slog.Logger
}

// NewManager creates a manager. Call Start before handling events.
func NewManager(
	sessions SessionStore,
	restorations restore.Store,
	host Host,
	sched loop.Scheduler,
	cfg Config,
	logger *slog.Logger,
) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.InvitationTimeout <= 0 {
		cfg.InvitationTimeout = DefaultInvitationTimeout
	}
	m := &Manager{
		registry:     NewRegistry(),
		invitations:  make(map[uuid.UUID]*Invitation),
		restorations: restore.NewQueue(restorations, logger),
		sessions:     sessions,
		host:         host,
		sched:        sched,
		timeout:      cfg.InvitationTimeout,
		logger:       logger,
	}
	m.writer = debounce.New(sched, cfg.QuietPeriod, m.saveByID, logger)
	return m
}

// Registry exposes the session registry for read access.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Restorations exposes the restoration queue.
func (m *Manager) Restorations() *restore.Queue {
	return m.restorations
}

// InvitationTimeout returns the configured invitation lifetime.
func (m *Manager) InvitationTimeout() time.Duration {
	return m.timeout
}

// PendingInvitation returns the invitation waiting on invitee.
func (m *Manager) PendingInvitation(invitee uuid.UUID) (*Invitation, bool) {
	inv, ok := m.invitations[invitee]
	return inv, ok
}

// SavePending reports whether a debounced write is scheduled for sessionID.
func (m *Manager) SavePending(sessionID string) bool {
	return m.writer.Pending(sessionID)
}

// Start loads persisted sessions and restorations.
func (m *Manager) Start(ctx context.Context) error {
	recs, err := m.sessions.LoadSessions(ctx)
	if err != nil {
		return fmt.Errorf("loading sessions: %w", err)
	}
	for _, rec := range recs {
		sess, err := sessionFromRecord(rec)
		if err != nil {
			m.logger.Warn("skipping stored session", "session_id", rec.ID, "error", err)
			continue
		}
		if err := m.registry.Add(sess); err != nil {
			m.logger.Warn("skipping stored session", "session_id", rec.ID, "error", err)
			continue
		}
	}
	m.logger.Info("sessions loaded", "count", m.registry.Len())

	if err := m.restorations.Load(ctx); err != nil {
		return err
	}
	return nil
}

// Stop persists every session and the restoration queue and cancels
// invitation timers. Sessions stay stored for the next Start.
func (m *Manager) Stop(ctx context.Context) error {
	var errs []error
	if err := m.writer.FlushAll(ctx); err != nil {
		errs = append(errs, err)
	}
	for _, sess := range m.registry.All() {
		if err := m.sessions.SaveSession(ctx, toRecord(sess)); err != nil {
			m.logger.Error("failed to save session on shutdown", "session_id", sess.ID, "error", err)
			errs = append(errs, err)
		}
	}
	if err := m.restorations.SaveAll(ctx); err != nil {
		m.logger.Error("failed to save restorations on shutdown", "error", err)
		errs = append(errs, err)
	}
	for invitee, inv := range m.invitations {
		inv.expiry.Cancel()
		delete(m.invitations, invitee)
	}
	return errors.Join(errs...)
}

// Invite records an invitation from inviter to invitee and schedules its
// expiry. An existing invitation to invitee is replaced.
func (m *Manager) Invite(ctx context.Context, inviter, invitee uuid.UUID) (*Invitation, error) {
	if inviter == invitee {
		return nil, ErrSelfInvite
	}
	if m.registry.Active(inviter) {
		return nil, ErrAlreadySharing
	}
	if m.registry.Active(invitee) {
		return nil, ErrTargetSharing
	}

	if prev, ok := m.invitations[invitee]; ok {
		prev.expiry.Cancel()
		if prev.Inviter != inviter {
			m.host.Notify(prev.Inviter, fmt.Sprintf("Your invitation to %s was replaced by a newer invitation.", m.host.Name(invitee)))
		}
	}

	inv := &Invitation{
		Inviter:   inviter,
		Invitee:   invitee,
		CreatedAt: m.sched.Now(),
	}
	inv.expiry = m.sched.AfterFunc(m.timeout, func() { m.expire(inv) })
	m.invitations[invitee] = inv

	inviterName := m.host.Name(inviter)
	m.host.Notify(inviter, "Invitation sent to "+m.host.Name(invitee))
	m.host.Notify(invitee, fmt.Sprintf(
		"You have received an EnderShare invitation from %s. Type '/endershare accept %s' to accept.",
		inviterName, inviterName,
	))
	m.logger.Debug("invitation created", "inviter", inviter, "invitee", invitee)
	return inv, nil
}

// Accept consumes the invitation from inviter and merges both private
// containers into a new session. A mismatched inviter leaves the pending
// invitation in place.
func (m *Manager) Accept(ctx context.Context, invitee, inviter uuid.UUID) (*Session, error) {
	inv, ok := m.invitations[invitee]
	if !ok || inv.Inviter != inviter {
		return nil, ErrNoInvitation
	}
	inv.expiry.Cancel()
	delete(m.invitations, invitee)

	if inv.Expired(m.sched.Now(), m.timeout) {
		return nil, ErrInvitationExpired
	}
	if m.registry.Active(invitee) {
		return nil, ErrAlreadySharing
	}
	if m.registry.Active(inviter) {
		return nil, ErrTargetSharing
	}
	inviterChest, ok := m.host.EnderChest(inviter)
	if !ok {
		return nil, ErrUnreachable
	}
	inviteeChest, ok := m.host.EnderChest(invitee)
	if !ok {
		return nil, ErrUnreachable
	}

	shared := container.NewChest(container.SharedSize)
	container.Fill(shared, 0, container.Slice(inviterChest, 0, container.PrivateSize))
	container.Fill(shared, container.PrivateSize, container.Slice(inviteeChest, 0, container.PrivateSize))

	sess := &Session{
		ID:      uuid.NewString(),
		PlayerA: inviter,
		PlayerB: invitee,
		Shared:  shared,
	}
	if err := m.registry.Add(sess); err != nil {
		return nil, err
	}
	inviterChest.Clear()
	inviteeChest.Clear()

	if err := m.sessions.SaveSession(ctx, toRecord(sess)); err != nil {
		m.logger.Error("failed to save new session", "session_id", sess.ID, "error", err)
	}

	m.host.Notify(inviter, "You are now sharing your Ender Chest with "+m.host.Name(invitee))
	m.host.Notify(invitee, "You are now sharing your Ender Chest with "+m.host.Name(inviter))
	m.host.OpenView(inviter, shared)
	m.host.OpenView(invitee, shared)
	m.logger.Info("session started", "session_id", sess.ID, "player1", inviter, "player2", invitee)
	return sess, nil
}

// Unshare ends the session of participant. Slots [0,27) go to the first
// registered participant and [27,54) to the second, regardless of who
// issued the command. Offline participants get a pending restoration.
func (m *Manager) Unshare(ctx context.Context, participant uuid.UUID) (*UnshareResult, error) {
	sess, ok := m.registry.Get(participant)
	if !ok {
		return nil, ErrNotSharing
	}
	m.writer.Cancel(sess.ID)

	members := [2]uuid.UUID{sess.PlayerA, sess.PlayerB}
	halves := [2][]container.Item{
		container.Slice(sess.Shared, 0, container.PrivateSize),
		container.Slice(sess.Shared, container.PrivateSize, container.PrivateSize),
	}

	for _, id := range members {
		if m.host.Online(id) {
			m.host.CloseView(id)
		}
	}

	result := &UnshareResult{SessionID: sess.ID}
	for i, id := range members {
		chest, ok := m.host.EnderChest(id)
		if ok && m.host.Online(id) {
			chest.Clear()
			container.Fill(chest, 0, halves[i])
			m.host.Notify(id, "Your EnderShare session has ended, and your Ender Chest has been restored.")
			result.Restored = append(result.Restored, id)
			continue
		}
		if err := m.restorations.Enqueue(ctx, id, halves[i]); err != nil {
			m.logger.Error("failed to persist pending restoration", "participant_id", id, "error", err)
		}
		m.logger.Info("pending restoration set for offline participant", "participant_id", id)
		result.Queued = append(result.Queued, id)
	}

	m.registry.Remove(participant)
	if err := m.sessions.DeleteSession(ctx, sess.ID); err != nil {
		m.logger.Error("failed to delete session record", "session_id", sess.ID, "error", err)
	}
	m.logger.Info("session ended", "session_id", sess.ID)
	return result, nil
}

// Status returns the counterpart of participant when sharing.
func (m *Manager) Status(participant uuid.UUID) (uuid.UUID, bool) {
	sess, ok := m.registry.Get(participant)
	if !ok {
		return uuid.Nil, false
	}
	return sess.Counterpart(participant), true
}

// Interact handles an attempt to open the private container. It opens the
// shared view instead and returns true when participant is sharing.
func (m *Manager) Interact(participant uuid.UUID) bool {
	sess, ok := m.registry.Get(participant)
	if !ok {
		return false
	}
	m.host.OpenView(participant, sess.Shared)
	m.host.Notify(participant, "Shared Ender Chest opened.")
	return true
}

// ContainerChanged schedules a debounced save after a click or drag in the
// shared container.
func (m *Manager) ContainerChanged(participant uuid.UUID) bool {
	sess, ok := m.registry.Get(participant)
	if !ok {
		return false
	}
	m.writer.Touch(sess.ID)
	return true
}

// ContainerClosed saves the shared container immediately.
func (m *Manager) ContainerClosed(ctx context.Context, participant uuid.UUID) bool {
	sess, ok := m.registry.Get(participant)
	if !ok {
		return false
	}
	if err := m.writer.Flush(ctx, sess.ID); err != nil {
		m.logger.Error("failed to save session on close", "session_id", sess.ID, "error", err)
	}
	return true
}

// Join delivers a pending restoration to a participant who came online.
func (m *Manager) Join(ctx context.Context, participant uuid.UUID) bool {
	if !m.restorations.HasPending(participant) {
		return false
	}
	chest, ok := m.host.EnderChest(participant)
	if !ok {
		return false
	}
	items, ok := m.restorations.Consume(ctx, participant)
	if !ok {
		return false
	}
	chest.Clear()
	container.Fill(chest, 0, items)
	m.host.Notify(participant, "Your Ender Chest has been restored from a previous EnderShare session.")
	m.logger.Info("pending restoration delivered", "participant_id", participant)
	return true
}

func (m *Manager) expire(inv *Invitation) {
	current, ok := m.invitations[inv.Invitee]
	if !ok || current != inv {
		return
	}
	if !inv.Expired(m.sched.Now(), m.timeout) {
		return
	}
	delete(m.invitations, inv.Invitee)
	if m.host.Online(inv.Invitee) {
		m.host.Notify(inv.Invitee, fmt.Sprintf("Your invitation from %s has expired.", m.host.Name(inv.Inviter)))
	}
	m.logger.Debug("invitation expired", "inviter", inv.Inviter, "invitee", inv.Invitee)
}

func (m *Manager) saveByID(ctx context.Context, sessionID string) error {
	sess, ok := m.registry.BySessionID(sessionID)
	if !ok {
		return nil
	}
	if err := m.sessions.SaveSession(ctx, toRecord(sess)); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func toRecord(sess *Session) SessionRecord {
	rec := SessionRecord{
		ID:      sess.ID,
		Player1: sess.PlayerA.String(),
		Player2: sess.PlayerB.String(),
		Slots:   make(map[int]container.Item),
	}
	for i := 0; i < sess.Shared.Size(); i++ {
		if item := sess.Shared.Get(i); !item.Empty() {
			rec.Slots[i] = item.Clone()
		}
	}
	return rec
}

func sessionFromRecord(rec SessionRecord) (*Session, error) {
	if rec.ID == "" {
		return nil, errors.New("missing session id")
	}
	p1, err := uuid.Parse(rec.Player1)
	if err != nil {
		return nil, fmt.Errorf("parsing player1: %w", err)
	}
	p2, err := uuid.Parse(rec.Player2)
	if err != nil {
		return nil, fmt.Errorf("parsing player2: %w", err)
	}
	if p1 == p2 {
		return nil, errors.New("session participants are identical")
	}
	shared := container.NewChest(container.SharedSize)
	for slot, item := range rec.Slots {
		shared.Set(slot, item.Clone())
	}
	return &Session{ID: rec.ID, PlayerA: p1, PlayerB: p2, Shared: shared}, nil
}
