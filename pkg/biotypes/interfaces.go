// Package biotypes defines core architectural interfaces for bioscope.
// This file contains the contracts that wire the conversation core together:
// the service lifecycle, the boundary to the remote assistant service, and the
// durable session identity store.
package biotypes

import "context"

// Service defines the interface for bioscope services that provide specific
// functionality. Services are registered at startup and initialized once
// before use.
type Service interface {
	Name() string
	Initialize() error
}

// ConversationGateway is the boundary to the remote assistant service. The
// core treats every call as at-most-once: the gateway never retries on its
// own, and any transport or non-success status surfaces as an error return.
type ConversationGateway interface {
	// Send submits a prompt for the given user, attaching the current
	// historical conversation id when one exists (empty for a new conversation).
	Send(ctx context.Context, prompt, userID, historicalID string) (*SendResult, error)

	// FetchHistoricalMessages returns the persisted turns of a historical
	// conversation record, oldest first.
	FetchHistoricalMessages(ctx context.Context, historicalID string) ([]HistoricalEntry, error)

	// CreateHistoricalRecord creates a new server-side conversation record and
	// returns its id.
	CreateHistoricalRecord(ctx context.Context, title, userID string) (string, error)

	// GenerateTitle asks the summarization endpoint for a short title derived
	// from the given message, used to name a brand-new historical record.
	GenerateTitle(ctx context.Context, message string) (string, error)

	// ListHistoricalRecords returns the user's persisted conversations,
	// newest first.
	ListHistoricalRecords(ctx context.Context, userID string) ([]HistoricalRecord, error)
}

// SessionStore is the durable session identity store consumed by the
// conversation core. Reads never fail: a missing or malformed value is
// reported as absence via the boolean.
type SessionStore interface {
	GetHistoricalID() (string, bool)
	SetHistoricalID(id string) error
	ClearHistoricalID() error
	GetUserID() (string, bool)
}
