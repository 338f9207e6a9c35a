package restore

import "context"

// Record is the durable form of one pending restoration.
type Record struct {
	ParticipantID string
	Payload       string
}

// Store persists pending restorations.
type Store interface {
	LoadRestorations(ctx context.Context) ([]Record, error)
	SaveRestoration(ctx context.Context, rec Record) error
	DeleteRestoration(ctx context.Context, participantID string) error
	ReplaceRestorations(ctx context.Context, recs []Record) error
}
