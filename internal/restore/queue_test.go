package restore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rpggio/endershare/internal/container"
	"github.com/rpggio/endershare/internal/repository/mocks"
	"github.com/rpggio/endershare/internal/restore"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleItems() []container.Item {
	items := make([]container.Item, container.PrivateSize)
	items[0] = container.Item("diamond_sword")
	items[13] = container.Item{0x00, 0xff, 0x10}
	items[26] = container.Item("elytra")
	return items
}

func TestQueue_EnqueueConsumeRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := &mocks.RestorationStore{}
	player := uuid.New()

	store.On("SaveRestoration", ctx, mock.MatchedBy(func(rec restore.Record) bool {
		return rec.ParticipantID == player.String()
	})).Return(nil).Once()
	store.On("DeleteRestoration", ctx, player.String()).Return(nil).Once()

	q := restore.NewQueue(store, nil)
	items := sampleItems()
	require.NoError(t, q.Enqueue(ctx, player, items))
	require.True(t, q.HasPending(player))
	require.Equal(t, 1, q.Len())

	got, ok := q.Consume(ctx, player)
	require.True(t, ok)
	require.Equal(t, items, got)
	require.Nil(t, got[1])

	_, ok = q.Consume(ctx, player)
	require.False(t, ok)
	require.False(t, q.HasPending(player))
	store.AssertExpectations(t)
}

func TestQueue_EnqueueOverwrites(t *testing.T) {
	ctx := context.Background()
	store := &mocks.RestorationStore{}
	store.On("SaveRestoration", ctx, mock.Anything).Return(nil)
	store.On("DeleteRestoration", ctx, mock.Anything).Return(nil)
	player := uuid.New()

	q := restore.NewQueue(store, nil)
	require.NoError(t, q.Enqueue(ctx, player, sampleItems()))
	second := make([]container.Item, container.PrivateSize)
	second[5] = container.Item("bread")
	require.NoError(t, q.Enqueue(ctx, player, second))
	require.Equal(t, 1, q.Len())

	got, ok := q.Consume(ctx, player)
	require.True(t, ok)
	require.Equal(t, second, got)
}

func TestQueue_StoreFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	store := &mocks.RestorationStore{}
	store.On("SaveRestoration", ctx, mock.Anything).Return(errors.New("read-only filesystem"))
	player := uuid.New()

	q := restore.NewQueue(store, nil)
	require.Error(t, q.Enqueue(ctx, player, sampleItems()))
	require.True(t, q.HasPending(player))
}

func TestQueue_LoadSkipsMalformed(t *testing.T) {
	ctx := context.Background()
	store := &mocks.RestorationStore{}
	player := uuid.New()
	payload, err := restore.EncodeSlots(sampleItems())
	require.NoError(t, err)

	store.On("LoadRestorations", ctx).Return([]restore.Record{
		{ParticipantID: player.String(), Payload: payload},
		{ParticipantID: "not-a-uuid", Payload: payload},
		{ParticipantID: uuid.NewString(), Payload: "slot: [unterminated"},
	}, nil)

	q := restore.NewQueue(store, nil)
	require.NoError(t, q.Load(ctx))
	require.Equal(t, 1, q.Len())
	require.True(t, q.HasPending(player))
}

func TestQueue_SaveAllReplacesEverything(t *testing.T) {
	ctx := context.Background()
	store := &mocks.RestorationStore{}
	store.On("SaveRestoration", ctx, mock.Anything).Return(nil)
	a, b := uuid.New(), uuid.New()

	var saved []restore.Record
	store.On("ReplaceRestorations", ctx, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).([]restore.Record)
	}).Return(nil)

	q := restore.NewQueue(store, nil)
	require.NoError(t, q.Enqueue(ctx, a, sampleItems()))
	require.NoError(t, q.Enqueue(ctx, b, nil))
	require.NoError(t, q.SaveAll(ctx))

	require.Len(t, saved, 2)
	ids := []string{saved[0].ParticipantID, saved[1].ParticipantID}
	require.ElementsMatch(t, []string{a.String(), b.String()}, ids)
}

func TestCodec_DropsOutOfRangeSlots(t *testing.T) {
	data := "slot:\n  \"0\": ZGlydA==\n  \"27\": c3RvbmU=\n  \"-1\": c3RvbmU=\n  x: c3RvbmU=\n  \"3\": \"%%%\"\n"
	items, err := restore.DecodeSlots(data, container.PrivateSize)
	require.NoError(t, err)
	require.Len(t, items, container.PrivateSize)
	require.Equal(t, container.Item("dirt"), items[0])
	require.Equal(t, 1, container.Count(items))
}

func TestCodec_EmptyRoundTrip(t *testing.T) {
	data, err := restore.EncodeSlots(make([]container.Item, container.PrivateSize))
	require.NoError(t, err)

	items, err := restore.DecodeSlots(data, container.PrivateSize)
	require.NoError(t, err)
	require.Equal(t, 0, container.Count(items))
}
