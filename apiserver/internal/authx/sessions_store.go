package authx

import (
	"context"
	"time"
)

// SessionsStore is an interface for components that manage persistence of
// Sessions.
type SessionsStore interface {
	// Create stores the provided Session.
	Create(context.Context, Session) error
	// GetByHashedOAuth2State returns the Session whose hashed OAuth2 state
	// matches the one provided. Implementations MUST return a
	// *meta.ErrNotFound when no such Session exists.
	GetByHashedOAuth2State(context.Context, string) (Session, error)
	// GetByHashedToken returns the Session whose hashed bearer token matches
	// the one provided. Implementations MUST return a *meta.ErrNotFound when
	// no such Session exists.
	GetByHashedToken(context.Context, string) (Session, error)
	// Authenticate records completion of the external authentication workflow
	// for the identified Session, attributing it to the identified User and
	// setting its expiry.
	Authenticate(
		ctx context.Context,
		sessionID string,
		userID string,
		expires time.Time,
	) error
	// Refresh sets a new expiry on the identified, already authenticated
	// Session.
	Refresh(ctx context.Context, sessionID string, expires time.Time) error
	// Delete removes the identified Session. Implementations MUST return a
	// *meta.ErrNotFound when no such Session exists.
	Delete(ctx context.Context, sessionID string) error
}
