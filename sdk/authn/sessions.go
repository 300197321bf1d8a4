package authn

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"net/http"
	"time"

	"github.com/kvittoapp/kvitto/sdk/internal/restmachinery"
	"github.com/kvittoapp/kvitto/sdk/meta"
)

// LoginDetails encapsulates all information required for a client
// authenticating by means of the external-redirect protocol to complete the
// process using a third-party identity provider.
type LoginDetails struct {
	// AuthURL is a URL that can be requested in a user's web browser to
	// complete authentication via a third-party OIDC identity provider.
	AuthURL string `json:"authURL"`
	// Token is an opaque bearer token issued by Kvitto to correlate a client
	// device with a session. It remains unactivated (useless) until the
	// external authentication workflow is successfully completed.
	Token string `json:"token"`
}

// MarshalJSON amends LoginDetails instances with type metadata so that
// clients do not need to be concerned with the tedium of doing so.
func (l LoginDetails) MarshalJSON() ([]byte, error) {
	type Alias LoginDetails
	return json.Marshal(
		struct {
			meta.TypeMeta `json:",inline"`
			Alias         `json:",inline"`
		}{
			TypeMeta: meta.TypeMeta{
				APIVersion: meta.APIVersion,
				Kind:       "LoginDetails",
			},
			Alias: (Alias)(l),
		},
	)
}

// UserReference communicates the identity attributes of an authenticated
// user.
type UserReference struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CompanyID string `json:"companyId"`
	Role      string `json:"role"`
}

// SessionStatusDetails communicates whether the session identified by a
// client's bearer token has been activated by the identity provider yet and,
// if so, who the session belongs to.
type SessionStatusDetails struct {
	// Authenticated is true only once the external authentication workflow has
	// completed successfully and the session has not yet expired.
	Authenticated bool `json:"authenticated"`
	// User is populated only when Authenticated is true.
	User *UserReference `json:"user,omitempty"`
	// Expires, when non-nil, indicates when the session will expire.
	Expires *time.Time `json:"expires,omitempty"`
}

// MarshalJSON amends SessionStatusDetails instances with type metadata so
// that clients do not need to be concerned with the tedium of doing so.
func (s SessionStatusDetails) MarshalJSON() ([]byte, error) {
	type Alias SessionStatusDetails
	return json.Marshal(
		struct {
			meta.TypeMeta `json:",inline"`
			Alias         `json:",inline"`
		}{
			TypeMeta: meta.TypeMeta{
				APIVersion: meta.APIVersion,
				Kind:       "SessionStatusDetails",
			},
			Alias: (Alias)(s),
		},
	)
}

// RefreshDetails communicates the outcome of a silent session refresh.
type RefreshDetails struct {
	// Expires indicates the session's new expiry.
	Expires *time.Time `json:"expires,omitempty"`
}

// MarshalJSON amends RefreshDetails instances with type metadata so that
// clients do not need to be concerned with the tedium of doing so.
func (r RefreshDetails) MarshalJSON() ([]byte, error) {
	type Alias RefreshDetails
	return json.Marshal(
		struct {
			meta.TypeMeta `json:",inline"`
			Alias         `json:",inline"`
		}{
			TypeMeta: meta.TypeMeta{
				APIVersion: meta.APIVersion,
				Kind:       "RefreshDetails",
			},
			Alias: (Alias)(r),
		},
	)
}

// SessionsClient is the specialized client for managing Kvitto API Sessions.
type SessionsClient interface {
	// Create initiates the external-redirect login workflow and returns
	// LoginDetails containing everything required to continue it out of
	// process.
	Create(context.Context) (LoginDetails, error)
	// Status queries the server for the current authentication state of the
	// session identified by the client's bearer token. A session that has not
	// (or not yet) been activated yields Authenticated == false; it is not an
	// error.
	Status(context.Context) (SessionStatusDetails, error)
	// Refresh silently extends an authenticated session's expiry.
	Refresh(context.Context) (RefreshDetails, error)
	// Delete invalidates the server-side session identified by the client's
	// bearer token.
	Delete(context.Context) error
}

type sessionsClient struct {
	*restmachinery.BaseClient
}

// NewSessionsClient returns a specialized client for managing Kvitto API
// Sessions.
func NewSessionsClient(
	apiAddress string,
	apiToken string,
	allowInsecure bool,
) SessionsClient {
	return &sessionsClient{
		BaseClient: &restmachinery.BaseClient{
			APIAddress: apiAddress,
			APIToken:   apiToken,
			HTTPClient: &http.Client{
				Transport: &http.Transport{
					TLSClientConfig: &tls.Config{
						InsecureSkipVerify: allowInsecure,
					},
				},
			},
		},
	}
}

func (s *sessionsClient) Create(ctx context.Context) (LoginDetails, error) {
	loginDetails := LoginDetails{}
	return loginDetails, s.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodPost,
			Path:        "v2/sessions",
			SuccessCode: http.StatusCreated,
			RespObj:     &loginDetails,
		},
	)
}

func (s *sessionsClient) Status(
	ctx context.Context,
) (SessionStatusDetails, error) {
	statusDetails := SessionStatusDetails{}
	return statusDetails, s.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodGet,
			Path:        "v2/session",
			AuthHeaders: s.BearerTokenAuthHeaders(),
			SuccessCode: http.StatusOK,
			RespObj:     &statusDetails,
		},
	)
}

func (s *sessionsClient) Refresh(ctx context.Context) (RefreshDetails, error) {
	refreshDetails := RefreshDetails{}
	return refreshDetails, s.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodPost,
			Path:        "v2/session/refresh",
			AuthHeaders: s.BearerTokenAuthHeaders(),
			SuccessCode: http.StatusOK,
			RespObj:     &refreshDetails,
		},
	)
}

func (s *sessionsClient) Delete(ctx context.Context) error {
	return s.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodDelete,
			Path:        "v2/session",
			AuthHeaders: s.BearerTokenAuthHeaders(),
			SuccessCode: http.StatusOK,
		},
	)
}
