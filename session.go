package persuader

import "time"

// SessionStatus is the lifecycle state of a provider conversation session.
type SessionStatus string

const (
	// StatusActive means the session is usable for prompts.
	StatusActive SessionStatus = "active"

	// StatusValidating means a health probe is in flight.
	StatusValidating SessionStatus = "validating"

	// StatusExpired means the provider reported the session unusable.
	StatusExpired SessionStatus = "expired"

	// StatusDestroyed means the session was explicitly destroyed.
	StatusDestroyed SessionStatus = "destroyed"
)

// Session is a provider-side conversational context, reusable across
// attempts to avoid resending large context text.
type Session struct {
	// ID is the session identifier. Unique per creation: two creates with
	// identical context text always yield distinct IDs.
	ID string

	// CreatedAt is the creation timestamp.
	CreatedAt time.Time

	// Context is the text the session was seeded with.
	Context string

	// Model is the model the session is pinned to, if any.
	Model string

	// Status is the current lifecycle state.
	Status SessionStatus
}
