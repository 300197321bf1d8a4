package session

import (
	"fmt"
	"time"
)

// Status represents where a Session is in its lifecycle.
type Status string

const (
	// StatusUnauthenticated is the initial state: no login has completed and
	// none is in flight.
	StatusUnauthenticated Status = "UNAUTHENTICATED"
	// StatusPendingExternalConfirmation means an external-redirect login has
	// been launched and its completion has not been observed yet. Completion
	// happens out of process; the only safe contract is "the app may ask again
	// later."
	StatusPendingExternalConfirmation Status = "PENDING_EXTERNAL_CONFIRMATION"
	// StatusAuthenticated means the identity provider confirmed the login and
	// the session has not expired.
	StatusAuthenticated Status = "AUTHENTICATED"
	// StatusExpired means a previously authenticated session's token has
	// lapsed. A silent refresh may restore it.
	StatusExpired Status = "EXPIRED"
)

// Session is the authoritative record of authentication state and identity
// attributes for the current device. Consumers receive immutable snapshots;
// the Manager is the sole writer.
type Session struct {
	Status Status `json:"status"`
	// Token is the opaque bearer credential issued at login initiation. It is
	// useless until the external workflow completes.
	Token string `json:"token,omitempty"`
	// AuthURL is retained while the session is pending so that a re-entrant
	// login can re-launch the external flow without minting a new session.
	AuthURL string `json:"authURL,omitempty"`
	// Identity attributes, populated only when Status is StatusAuthenticated.
	UserID    string `json:"userId,omitempty"`
	Email     string `json:"email,omitempty"`
	CompanyID string `json:"companyId,omitempty"`
	Role      string `json:"role,omitempty"`
	// IssuedAt and ExpiresAt bound the session's validity; ExpiresAt is always
	// after IssuedAt when both are present.
	IssuedAt  *time.Time `json:"issuedAt,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// ErrLaunchFailed represents a failure to hand the authentication URL to any
// external handler at all.
type ErrLaunchFailed struct {
	// Reason is a natural language explanation of the failure.
	Reason string
}

func (e *ErrLaunchFailed) Error() string {
	return fmt.Sprintf(
		"Could not open the authentication URL in an external browser: %s",
		e.Reason,
	)
}

// ErrNetwork represents a failure to reach the API server. The previously
// persisted session remains authoritative.
type ErrNetwork struct {
	// Reason is a natural language explanation of the failure.
	Reason string
}

func (e *ErrNetwork) Error() string {
	return fmt.Sprintf("Could not reach the API server: %s", e.Reason)
}

// ErrInvalidResponse represents a well-received but uninterpretable answer
// from the API server. It is treated as a negative confirmation; the
// previously persisted session is not corrupted.
type ErrInvalidResponse struct {
	// Reason is a natural language explanation of the failure.
	Reason string
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf(
		"Received an invalid response from the API server: %s",
		e.Reason,
	)
}
