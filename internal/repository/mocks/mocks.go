package mocks

import (
	"context"

	"github.com/rpggio/endershare/internal/domain/share"
	"github.com/rpggio/endershare/internal/restore"
	"github.com/stretchr/testify/mock"
)

// SessionStore is a mock for share.SessionStore.
type SessionStore struct {
	mock.Mock
}

func (m *SessionStore) LoadSessions(ctx context.Context) ([]share.SessionRecord, error) {
	args := m.Called(ctx)
	if recs, ok := args.Get(0).([]share.SessionRecord); ok {
		return recs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionStore) SaveSession(ctx context.Context, rec share.SessionRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *SessionStore) DeleteSession(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// RestorationStore is a mock for restore.Store.
type RestorationStore struct {
	mock.Mock
}

func (m *RestorationStore) LoadRestorations(ctx context.Context) ([]restore.Record, error) {
	args := m.Called(ctx)
	if recs, ok := args.Get(0).([]restore.Record); ok {
		return recs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RestorationStore) SaveRestoration(ctx context.Context, rec restore.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *RestorationStore) DeleteRestoration(ctx context.Context, participantID string) error {
	args := m.Called(ctx, participantID)
	return args.Error(0)
}

func (m *RestorationStore) ReplaceRestorations(ctx context.Context, recs []restore.Record) error {
	args := m.Called(ctx, recs)
	return args.Error(0)
}
