package authx

import (
	"context"
	"time"

	oidc "github.com/coreos/go-oidc"
	"github.com/kvittoapp/kvitto/apiserver/internal/lib/crypto"
	"github.com/kvittoapp/kvitto/sdk/authn"
	"github.com/kvittoapp/kvitto/sdk/meta"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"golang.org/x/oauth2"
)

// sessionTTL is how long a session remains valid once the external
// authentication workflow has completed. Silent refreshes extend a session by
// the same amount.
const sessionTTL = time.Hour

// defaultUserRole is assigned to users provisioned on first login when the
// identity provider asserts no role claim.
const defaultUserRole = "member"

// SessionsService is the specialized interface for managing Sessions. It
// implements the server side of the external-redirect login protocol.
type SessionsService interface {
	// CreateUserSession creates a new, unactivated Session and returns the
	// LoginDetails a client needs to continue the workflow out of process: an
	// identity provider URL to open in a browser and an (as yet useless)
	// bearer token.
	CreateUserSession(context.Context) (authn.LoginDetails, error)
	// Authenticate completes the external authentication workflow on the
	// strength of an identity provider callback, activating the Session
	// correlated to the given OAuth2 state.
	Authenticate(ctx context.Context, oauth2State, oidcCode string) error
	// Status reports whether the Session identified by the given bearer token
	// has been activated yet and, if so, whose it is. A token that identifies
	// no Session, or one that is not yet activated, yields Authenticated ==
	// false; it is never an error. This keeps client-side completion polling
	// off the error path.
	Status(ctx context.Context, token string) (
		authn.SessionStatusDetails,
		error,
	)
	// GetByToken retrieves the Session identified by the given bearer token.
	GetByToken(ctx context.Context, token string) (Session, error)
	// Refresh sets a new expiry on the activated Session identified by the
	// given bearer token. Unlike Status, an unknown or unactivated token IS an
	// authentication error here.
	Refresh(ctx context.Context, token string) (authn.RefreshDetails, error)
	// Delete removes the identified Session.
	Delete(ctx context.Context, sessionID string) error
}

type sessionsService struct {
	store             SessionsStore
	usersStore        UsersStore
	oauth2Config      *oauth2.Config
	oidcTokenVerifier *oidc.IDTokenVerifier
}

// NewSessionsService returns a specialized interface for managing Sessions.
func NewSessionsService(
	store SessionsStore,
	usersStore UsersStore,
	oauth2Config *oauth2.Config,
	oidcTokenVerifier *oidc.IDTokenVerifier,
) SessionsService {
	return &sessionsService{
		store:             store,
		usersStore:        usersStore,
		oauth2Config:      oauth2Config,
		oidcTokenVerifier: oidcTokenVerifier,
	}
}

func (s *sessionsService) CreateUserSession(
	ctx context.Context,
) (authn.LoginDetails, error) {
	loginDetails := authn.LoginDetails{
		Token: crypto.NewToken(256),
	}
	if s.oauth2Config == nil {
		return loginDetails, &meta.ErrNotSupported{
			Details: "Authentication using OpenID Connect is not supported by " +
				"this server.",
		}
	}
	oauth2State := crypto.NewToken(30)
	session := NewUserSession(oauth2State, loginDetails.Token)
	now := time.Now()
	session.Created = &now
	if err := s.store.Create(ctx, session); err != nil {
		return loginDetails, errors.Wrapf(
			err,
			"error storing new user session %q",
			session.ID,
		)
	}
	loginDetails.AuthURL = s.oauth2Config.AuthCodeURL(oauth2State)
	return loginDetails, nil
}

func (s *sessionsService) Authenticate(
	ctx context.Context,
	oauth2State string,
	oidcCode string,
) error {
	if s.oauth2Config == nil || s.oidcTokenVerifier == nil {
		return &meta.ErrNotSupported{
			Details: "Authentication using OpenID Connect is not supported by " +
				"this server.",
		}
	}
	session, err := s.store.GetByHashedOAuth2State(
		ctx,
		crypto.ShortSHA("", oauth2State),
	)
	if err != nil {
		return errors.Wrap(
			err,
			"error retrieving session from store by hashed OAuth2 state",
		)
	}
	oauth2Token, err := s.oauth2Config.Exchange(ctx, oidcCode)
	if err != nil {
		return errors.Wrap(
			err,
			"error exchanging OpenID Connect code for OAuth2 token",
		)
	}
	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return errors.New(
			"OAuth2 token did not include an OpenID Connect identity token",
		)
	}
	idToken, err := s.oidcTokenVerifier.Verify(ctx, rawIDToken)
	if err != nil {
		return errors.Wrap(err, "error verifying OpenID Connect identity token")
	}
	claims := struct {
		Name      string `json:"name"`
		Email     string `json:"email"`
		CompanyID string `json:"companyId"`
		Role      string `json:"role"`
	}{}
	if err = idToken.Claims(&claims); err != nil {
		return errors.Wrap(
			err,
			"error decoding OpenID Connect identity token claims",
		)
	}
	user, err := s.usersStore.GetByEmail(ctx, claims.Email)
	if err != nil {
		if _, ok := errors.Cause(err).(*meta.ErrNotFound); ok {
			// User wasn't found. That's ok. We'll provision one on the spot.
			user = User{
				ObjectMeta: meta.ObjectMeta{
					ID: uuid.NewV4().String(),
				},
				Email:     claims.Email,
				Name:      claims.Name,
				CompanyID: claims.CompanyID,
				Role:      claims.Role,
			}
			if user.Role == "" {
				user.Role = defaultUserRole
			}
			now := time.Now()
			user.Created = &now
			if err = s.usersStore.Create(ctx, user); err != nil {
				return err
			}
		} else {
			// It was something else that went wrong when searching for the user.
			return err
		}
	}
	if err := s.store.Authenticate(
		ctx,
		session.ID,
		user.ID,
		time.Now().Add(sessionTTL),
	); err != nil {
		return errors.Wrapf(
			err,
			"error storing authentication details for session %q",
			session.ID,
		)
	}
	return nil
}

func (s *sessionsService) Status(
	ctx context.Context,
	token string,
) (authn.SessionStatusDetails, error) {
	statusDetails := authn.SessionStatusDetails{}
	session, err := s.store.GetByHashedToken(ctx, crypto.ShortSHA("", token))
	if err != nil {
		if _, ok := errors.Cause(err).(*meta.ErrNotFound); ok {
			// An unknown token isn't an error. Clients poll this before the
			// external workflow has completed-- and the session store is free to
			// have evicted a long-abandoned pending session.
			return statusDetails, nil
		}
		return statusDetails, errors.Wrap(
			err,
			"error retrieving session from store by hashed token",
		)
	}
	if session.Authenticated == nil {
		return statusDetails, nil
	}
	user, err := s.usersStore.Get(ctx, session.UserID)
	if err != nil {
		return statusDetails, errors.Wrapf(
			err,
			"error retrieving user %q for session %q",
			session.UserID,
			session.ID,
		)
	}
	statusDetails.Authenticated = true
	statusDetails.User = &authn.UserReference{
		ID:        user.ID,
		Email:     user.Email,
		CompanyID: user.CompanyID,
		Role:      user.Role,
	}
	statusDetails.Expires = session.Expires
	return statusDetails, nil
}

func (s *sessionsService) GetByToken(
	ctx context.Context,
	token string,
) (Session, error) {
	session, err := s.store.GetByHashedToken(ctx, crypto.ShortSHA("", token))
	if err != nil {
		return session, errors.Wrap(
			err,
			"error retrieving session from store by hashed token",
		)
	}
	return session, nil
}

func (s *sessionsService) Refresh(
	ctx context.Context,
	token string,
) (authn.RefreshDetails, error) {
	refreshDetails := authn.RefreshDetails{}
	session, err := s.store.GetByHashedToken(ctx, crypto.ShortSHA("", token))
	if err != nil {
		if _, ok := errors.Cause(err).(*meta.ErrNotFound); ok {
			return refreshDetails, &meta.ErrAuthentication{
				Reason: "Session not found. Please log in again.",
			}
		}
		return refreshDetails, errors.Wrap(
			err,
			"error retrieving session from store by hashed token",
		)
	}
	if session.Authenticated == nil {
		return refreshDetails, &meta.ErrAuthentication{
			Reason: "Supplied token has not been authenticated. Please log in " +
				"again.",
		}
	}
	expires := time.Now().Add(sessionTTL)
	if err := s.store.Refresh(ctx, session.ID, expires); err != nil {
		return refreshDetails, errors.Wrapf(
			err,
			"error storing new expiry for session %q",
			session.ID,
		)
	}
	refreshDetails.Expires = &expires
	return refreshDetails, nil
}

func (s *sessionsService) Delete(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return errors.Wrapf(
			err,
			"error removing session %q from store",
			sessionID,
		)
	}
	return nil
}
