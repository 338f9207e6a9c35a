package share_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/endershare/internal/container"
	"github.com/rpggio/endershare/internal/domain/share"
	"github.com/rpggio/endershare/internal/host"
	"github.com/rpggio/endershare/internal/loop"
	"github.com/rpggio/endershare/internal/repository/mocks"
	"github.com/rpggio/endershare/internal/restore"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const timeout = 60 * time.Second

type fixture struct {
	ctx          context.Context
	sched        *loop.Manual
	host         *host.Memory
	sessions     *mocks.SessionStore
	restorations *mocks.RestorationStore
	mgr          *share.Manager
	alice        *host.Player
	bob          *host.Player
}

type fixtureOptions struct {
	stored   []share.SessionRecord
	restored []restore.Record
	saveErr  error
	sched    loop.Scheduler
}

func newFixture(t *testing.T, opts fixtureOptions) *fixture {
	t.Helper()
	ctx := context.Background()
	manual := loop.NewManual(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	var sched loop.Scheduler = manual
	if opts.sched != nil {
		sched = opts.sched
	}

	sessions := &mocks.SessionStore{}
	sessions.On("LoadSessions", mock.Anything).Return(opts.stored, nil)
	sessions.On("SaveSession", mock.Anything, mock.Anything).Return(opts.saveErr)
	sessions.On("DeleteSession", mock.Anything, mock.Anything).Return(nil)

	restorations := &mocks.RestorationStore{}
	restorations.On("LoadRestorations", mock.Anything).Return(opts.restored, nil)
	restorations.On("SaveRestoration", mock.Anything, mock.Anything).Return(nil)
	restorations.On("DeleteRestoration", mock.Anything, mock.Anything).Return(nil)
	restorations.On("ReplaceRestorations", mock.Anything, mock.Anything).Return(nil)

	h := host.NewMemory()
	alice := h.Connect("Alice")
	bob := h.Connect("Bob")

	mgr := share.NewManager(sessions, restorations, h, sched, share.Config{
		InvitationTimeout: timeout,
		QuietPeriod:       time.Second,
	}, nil)
	require.NoError(t, mgr.Start(ctx))

	return &fixture{
		ctx:          ctx,
		sched:        manual,
		host:         h,
		sessions:     sessions,
		restorations: restorations,
		mgr:          mgr,
		alice:        alice,
		bob:          bob,
	}
}

func (f *fixture) startSharing(t *testing.T) *share.Session {
	t.Helper()
	_, err := f.mgr.Invite(f.ctx, f.alice.ID, f.bob.ID)
	require.NoError(t, err)
	sess, err := f.mgr.Accept(f.ctx, f.bob.ID, f.alice.ID)
	require.NoError(t, err)
	f.host.Drain(f.alice.ID)
	f.host.Drain(f.bob.ID)
	return sess
}

func fillChest(c container.Container, prefix string) {
	for i := 0; i < c.Size(); i += 2 {
		c.Set(i, container.Item(prefix+string(rune('a'+i))))
	}
}

func TestManager_InviteValidation(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	carol := f.host.Connect("Carol")

	_, err := f.mgr.Invite(f.ctx, f.alice.ID, f.alice.ID)
	require.ErrorIs(t, err, share.ErrSelfInvite)

	f.startSharing(t)

	_, err = f.mgr.Invite(f.ctx, f.alice.ID, carol.ID)
	require.ErrorIs(t, err, share.ErrAlreadySharing)

	_, err = f.mgr.Invite(f.ctx, carol.ID, f.bob.ID)
	require.ErrorIs(t, err, share.ErrTargetSharing)

	_, ok := f.mgr.PendingInvitation(carol.ID)
	require.False(t, ok)
}

func TestManager_InviteNotifiesBothParties(t *testing.T) {
	f := newFixture(t, fixtureOptions{})

	inv, err := f.mgr.Invite(f.ctx, f.alice.ID, f.bob.ID)
	require.NoError(t, err)
	require.Equal(t, f.alice.ID, inv.Inviter)

	require.Equal(t, []string{"Invitation sent to Bob"}, f.host.Drain(f.alice.ID))
	require.Equal(t, []string{
		"You have received an EnderShare invitation from Alice. Type '/endershare accept Alice' to accept.",
	}, f.host.Drain(f.bob.ID))
}

func TestManager_AcceptMergesContainers(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	fillChest(f.alice.Chest, "A")
	fillChest(f.bob.Chest, "B")
	aliceBefore := container.Contents(f.alice.Chest)
	bobBefore := container.Contents(f.bob.Chest)

	sess := f.startSharing(t)

	require.Equal(t, aliceBefore, container.Slice(sess.Shared, 0, container.PrivateSize))
	require.Equal(t, bobBefore, container.Slice(sess.Shared, container.PrivateSize, container.PrivateSize))
	require.Equal(t, 0, container.Count(container.Contents(f.alice.Chest)))
	require.Equal(t, 0, container.Count(container.Contents(f.bob.Chest)))

	require.Equal(t, f.alice.ID, sess.PlayerA)
	require.Equal(t, f.bob.ID, sess.PlayerB)
	require.True(t, f.mgr.Registry().Active(f.alice.ID))
	require.True(t, f.mgr.Registry().Active(f.bob.ID))
	require.Same(t, sess.Shared, f.alice.View)
	require.Same(t, sess.Shared, f.bob.View)

	f.sessions.AssertCalled(t, "SaveSession", mock.Anything, mock.MatchedBy(func(rec share.SessionRecord) bool {
		return rec.ID == sess.ID && rec.Player1 == f.alice.ID.String() && len(rec.Slots) == 28
	}))

	counterpart, ok := f.mgr.Status(f.bob.ID)
	require.True(t, ok)
	require.Equal(t, f.alice.ID, counterpart)
}

func TestManager_AcceptRejections(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	carol := f.host.Connect("Carol")

	_, err := f.mgr.Accept(f.ctx, f.bob.ID, f.alice.ID)
	require.ErrorIs(t, err, share.ErrNoInvitation)

	_, err = f.mgr.Invite(f.ctx, f.alice.ID, f.bob.ID)
	require.NoError(t, err)

	_, err = f.mgr.Accept(f.ctx, f.bob.ID, carol.ID)
	require.ErrorIs(t, err, share.ErrNoInvitation)
	_, ok := f.mgr.PendingInvitation(f.bob.ID)
	require.True(t, ok, "mismatched inviter keeps the invitation")

	f.host.Disconnect(f.alice.ID)
	_, err = f.mgr.Accept(f.ctx, f.bob.ID, f.alice.ID)
	require.ErrorIs(t, err, share.ErrUnreachable)
	_, ok = f.mgr.PendingInvitation(f.bob.ID)
	require.False(t, ok)
	require.False(t, f.mgr.Registry().Active(f.bob.ID))
}

func TestManager_AcceptBeforeTimeoutSucceeds(t *testing.T) {
	f := newFixture(t, fixtureOptions{})

	_, err := f.mgr.Invite(f.ctx, f.alice.ID, f.bob.ID)
	require.NoError(t, err)
	f.sched.Advance(timeout - time.Millisecond)

	_, err = f.mgr.Accept(f.ctx, f.bob.ID, f.alice.ID)
	require.NoError(t, err)

	f.sched.Advance(time.Hour)
	require.True(t, f.mgr.Registry().Active(f.bob.ID))
}

// stalledScheduler never fires timers, leaving only the lazy expiry check.
type stalledScheduler struct {
	*loop.Manual
}

type noopHandle struct{}

func (noopHandle) Cancel() {}

func (s stalledScheduler) AfterFunc(time.Duration, func()) loop.Handle {
	return noopHandle{}
}

func TestManager_AcceptAtTimeoutBoundaryRejected(t *testing.T) {
	manual := loop.NewManual(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	f := newFixture(t, fixtureOptions{sched: stalledScheduler{manual}})
	f.sched = manual

	_, err := f.mgr.Invite(f.ctx, f.alice.ID, f.bob.ID)
	require.NoError(t, err)
	manual.Advance(timeout)

	_, err = f.mgr.Accept(f.ctx, f.bob.ID, f.alice.ID)
	require.ErrorIs(t, err, share.ErrInvitationExpired)

	_, err = f.mgr.Accept(f.ctx, f.bob.ID, f.alice.ID)
	require.ErrorIs(t, err, share.ErrNoInvitation)
}

func TestManager_InvitationExpires(t *testing.T) {
	f := newFixture(t, fixtureOptions{})

	_, err := f.mgr.Invite(f.ctx, f.alice.ID, f.bob.ID)
	require.NoError(t, err)
	f.host.Drain(f.bob.ID)

	f.sched.Advance(timeout + time.Second)

	require.Equal(t, []string{"Your invitation from Alice has expired."}, f.host.Drain(f.bob.ID))
	_, ok := f.mgr.Status(f.bob.ID)
	require.False(t, ok)

	_, err = f.mgr.Accept(f.ctx, f.bob.ID, f.alice.ID)
	require.ErrorIs(t, err, share.ErrNoInvitation)
}

func TestManager_SupersededInvitation(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	carol := f.host.Connect("Carol")

	_, err := f.mgr.Invite(f.ctx, f.alice.ID, f.bob.ID)
	require.NoError(t, err)
	f.host.Drain(f.alice.ID)

	f.sched.Advance(30 * time.Second)
	_, err = f.mgr.Invite(f.ctx, carol.ID, f.bob.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"Your invitation to Bob was replaced by a newer invitation."}, f.host.Drain(f.alice.ID))

	// The first invitation's timer must not remove the second one.
	f.sched.Advance(45 * time.Second)
	inv, ok := f.mgr.PendingInvitation(f.bob.ID)
	require.True(t, ok)
	require.Equal(t, carol.ID, inv.Inviter)

	_, err = f.mgr.Accept(f.ctx, f.bob.ID, f.alice.ID)
	require.ErrorIs(t, err, share.ErrNoInvitation)
	_, err = f.mgr.Accept(f.ctx, f.bob.ID, carol.ID)
	require.NoError(t, err)
}

func TestManager_UnshareOfflineScenario(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	fillChest(f.alice.Chest, "A")
	fillChest(f.bob.Chest, "B")
	aliceBefore := container.Contents(f.alice.Chest)
	sess := f.startSharing(t)

	sess.Shared.Set(30, container.Item("moved-by-alice"))
	bobHalf := container.Slice(sess.Shared, container.PrivateSize, container.PrivateSize)

	f.host.Disconnect(f.bob.ID)
	result, err := f.mgr.Unshare(f.ctx, f.alice.ID)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{f.alice.ID}, result.Restored)
	require.Equal(t, []uuid.UUID{f.bob.ID}, result.Queued)

	require.Equal(t, aliceBefore, container.Contents(f.alice.Chest))
	require.Nil(t, f.alice.View)
	require.True(t, f.mgr.Restorations().HasPending(f.bob.ID))
	require.False(t, f.mgr.Registry().Active(f.alice.ID))
	require.False(t, f.mgr.Registry().Active(f.bob.ID))
	f.sessions.AssertCalled(t, "DeleteSession", mock.Anything, sess.ID)
	f.restorations.AssertCalled(t, "SaveRestoration", mock.Anything, mock.MatchedBy(func(rec restore.Record) bool {
		return rec.ParticipantID == f.bob.ID.String()
	}))

	f.host.Connect("Bob")
	require.True(t, f.mgr.Join(f.ctx, f.bob.ID))
	require.Equal(t, bobHalf, container.Contents(f.bob.Chest))
	require.False(t, f.mgr.Restorations().HasPending(f.bob.ID))
	require.Equal(t, []string{"Your Ender Chest has been restored from a previous EnderShare session."}, f.host.Drain(f.bob.ID))
	f.restorations.AssertCalled(t, "DeleteRestoration", mock.Anything, f.bob.ID.String())

	require.False(t, f.mgr.Join(f.ctx, f.bob.ID))
}

func TestManager_UnshareSplitsByRegistryOrder(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	sess := f.startSharing(t)
	sess.Shared.Set(0, container.Item("first-half"))
	sess.Shared.Set(53, container.Item("second-half"))

	_, err := f.mgr.Unshare(f.ctx, f.bob.ID)
	require.NoError(t, err)

	require.Equal(t, container.Item("first-half"), f.alice.Chest.Get(0))
	require.Equal(t, container.Item("second-half"), f.bob.Chest.Get(26))
	total := container.Count(container.Contents(f.alice.Chest)) + container.Count(container.Contents(f.bob.Chest))
	require.Equal(t, 2, total)

	_, err = f.mgr.Unshare(f.ctx, f.bob.ID)
	require.ErrorIs(t, err, share.ErrNotSharing)
}

func TestManager_DebouncedWrites(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	sess := f.startSharing(t)
	f.sessions.AssertNumberOfCalls(t, "SaveSession", 1)

	for i := 0; i < 8; i++ {
		sess.Shared.Set(i, container.Item("x"))
		require.True(t, f.mgr.ContainerChanged(f.alice.ID))
		f.sched.Advance(100 * time.Millisecond)
	}
	require.True(t, f.mgr.SavePending(sess.ID))
	f.sessions.AssertNumberOfCalls(t, "SaveSession", 1)

	require.True(t, f.mgr.ContainerClosed(f.ctx, f.alice.ID))
	f.sessions.AssertNumberOfCalls(t, "SaveSession", 2)
	require.False(t, f.mgr.SavePending(sess.ID))

	f.sched.Advance(time.Minute)
	f.sessions.AssertNumberOfCalls(t, "SaveSession", 2)

	require.True(t, f.mgr.ContainerChanged(f.bob.ID))
	f.sched.Advance(time.Second)
	f.sessions.AssertNumberOfCalls(t, "SaveSession", 3)

	carol := f.host.Connect("Carol")
	require.False(t, f.mgr.ContainerChanged(carol.ID))
	require.False(t, f.mgr.ContainerClosed(f.ctx, carol.ID))
}

func TestManager_UnshareCancelsPendingWrite(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	sess := f.startSharing(t)

	require.True(t, f.mgr.ContainerChanged(f.alice.ID))
	_, err := f.mgr.Unshare(f.ctx, f.alice.ID)
	require.NoError(t, err)
	require.False(t, f.mgr.SavePending(sess.ID))

	f.sched.Advance(time.Minute)
	f.sessions.AssertNumberOfCalls(t, "SaveSession", 1)
}

func TestManager_SaveFailureKeepsSession(t *testing.T) {
	f := newFixture(t, fixtureOptions{saveErr: errors.New("disk full")})

	sess := f.startSharing(t)
	require.True(t, f.mgr.Registry().Active(f.alice.ID))
	require.True(t, f.mgr.ContainerClosed(f.ctx, f.bob.ID))

	got, ok := f.mgr.Registry().BySessionID(sess.ID)
	require.True(t, ok)
	require.Same(t, sess, got)
}

func TestManager_Interact(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	require.False(t, f.mgr.Interact(f.alice.ID))

	sess := f.startSharing(t)
	f.host.CloseView(f.alice.ID)

	require.True(t, f.mgr.Interact(f.alice.ID))
	require.Same(t, sess.Shared, f.alice.View)
	require.Equal(t, []string{"Shared Ender Chest opened."}, f.host.Drain(f.alice.ID))
}

func TestManager_StartLoadsAndSkipsMalformed(t *testing.T) {
	alice, bob := host.PlayerID("Alice"), host.PlayerID("Bob")
	carol := uuid.New()
	payload, err := restore.EncodeSlots([]container.Item{container.Item("torch")})
	require.NoError(t, err)

	f := newFixture(t, fixtureOptions{
		stored: []share.SessionRecord{
			{ID: "s1", Player1: alice.String(), Player2: bob.String(), Slots: map[int]container.Item{
				3:  container.Item("stored"),
				99: container.Item("out-of-range"),
			}},
			{ID: "s2", Player1: "garbage", Player2: bob.String()},
			{ID: "s3", Player1: carol.String(), Player2: carol.String()},
			{ID: "s4", Player1: carol.String(), Player2: alice.String()},
		},
		restored: []restore.Record{{ParticipantID: carol.String(), Payload: payload}},
	})

	require.Equal(t, 1, f.mgr.Registry().Len())
	sess, ok := f.mgr.Registry().Get(bob)
	require.True(t, ok)
	require.Equal(t, "s1", sess.ID)
	require.Equal(t, container.Item("stored"), sess.Shared.Get(3))
	require.False(t, f.mgr.Registry().Active(carol))
	require.True(t, f.mgr.Restorations().HasPending(carol))

	require.True(t, f.mgr.ContainerChanged(alice))
	require.NoError(t, f.mgr.Stop(f.ctx))
	f.sessions.AssertNumberOfCalls(t, "SaveSession", 2)
	f.restorations.AssertCalled(t, "ReplaceRestorations", mock.Anything, mock.MatchedBy(func(recs []restore.Record) bool {
		return len(recs) == 1 && recs[0].ParticipantID == carol.String()
	}))

	f.sched.Advance(time.Minute)
	f.sessions.AssertNumberOfCalls(t, "SaveSession", 2)
}

func TestManager_RegistryInvariantAcrossLifecycle(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	carol := f.host.Connect("Carol")
	dave := f.host.Connect("Dave")
	everyone := []uuid.UUID{f.alice.ID, f.bob.ID, carol.ID, dave.ID}

	check := func() {
		t.Helper()
		inSession := map[uuid.UUID]bool{}
		for _, sess := range f.mgr.Registry().All() {
			inSession[sess.PlayerA] = true
			inSession[sess.PlayerB] = true
		}
		for _, id := range everyone {
			require.Equal(t, inSession[id], f.mgr.Registry().Active(id))
		}
	}

	check()
	f.startSharing(t)
	check()
	_, err := f.mgr.Invite(f.ctx, carol.ID, dave.ID)
	require.NoError(t, err)
	_, err = f.mgr.Accept(f.ctx, dave.ID, carol.ID)
	require.NoError(t, err)
	check()
	require.Equal(t, 2, f.mgr.Registry().Len())
	_, err = f.mgr.Unshare(f.ctx, dave.ID)
	require.NoError(t, err)
	check()
}
