package authx

import (
	"time"

	"github.com/kvittoapp/kvitto/apiserver/internal/lib/crypto"
	"github.com/kvittoapp/kvitto/sdk/meta"
	uuid "github.com/satori/go.uuid"
)

// Session represents the server side of a client session established through
// the external-redirect login protocol. Bearer tokens and OAuth2 state are
// stored hashed only.
type Session struct {
	meta.TypeMeta   `json:",inline"`
	meta.ObjectMeta `json:"metadata"`
	// UserID identifies the user the session belongs to. It is empty until the
	// external authentication workflow completes.
	UserID string `json:"userID"`
	// HashedOAuth2State is a hash of the opaque state string that correlates
	// an identity provider callback with this session.
	HashedOAuth2State string `json:"hashedOAuth2State"`
	// HashedToken is a hash of the bearer token issued to the client.
	HashedToken string `json:"hashedToken"`
	// Authenticated indicates when the external authentication workflow
	// completed. nil means it has not.
	Authenticated *time.Time `json:"authenticated"`
	// Expires indicates when the session lapses.
	Expires *time.Time `json:"expires"`
}

// NewUserSession returns a new, unactivated Session correlated to the given
// OAuth2 state and bearer token.
func NewUserSession(oauth2State, token string) Session {
	return Session{
		TypeMeta: meta.TypeMeta{
			APIVersion: meta.APIVersion,
			Kind:       "Session",
		},
		ObjectMeta: meta.ObjectMeta{
			ID: uuid.NewV4().String(),
		},
		HashedOAuth2State: crypto.ShortSHA("", oauth2State),
		HashedToken:       crypto.ShortSHA("", token),
	}
}
