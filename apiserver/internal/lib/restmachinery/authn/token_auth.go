package authn

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/kvittoapp/kvitto/apiserver/internal/authx"
	"github.com/kvittoapp/kvitto/apiserver/internal/lib/restmachinery"
	"github.com/kvittoapp/kvitto/sdk/meta"
	"github.com/pkg/errors"
)

// FindSessionFn locates the session, if any, identified by the given bearer
// token.
type FindSessionFn func(
	ctx context.Context,
	token string,
) (authx.Session, error)

// FindUserFn locates the user, if any, having the given identifier.
type FindUserFn func(ctx context.Context, id string) (authx.User, error)

type tokenAuthFilter struct {
	findSession FindSessionFn
	findUser    FindUserFn
}

// NewTokenAuthFilter returns a restmachinery.Filter that authenticates
// requests on the strength of a bearer token identifying an activated,
// unexpired session.
func NewTokenAuthFilter(
	findSession FindSessionFn,
	findUser FindUserFn,
) restmachinery.Filter {
	return &tokenAuthFilter{
		findSession: findSession,
		findUser:    findUser,
	}
}

// BearerTokenFromRequest extracts an opaque bearer token from the given
// request's Authorization header, returning the empty string when the header
// is missing or isn't a bearer scheme.
func BearerTokenFromRequest(r *http.Request) string {
	headerValueParts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(headerValueParts) != 2 || headerValueParts[0] != "Bearer" {
		return ""
	}
	return headerValueParts[1]
}

func (t *tokenAuthFilter) Decorate(handle http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			t.writeResponse(
				w,
				http.StatusUnauthorized,
				&meta.ErrAuthentication{
					Reason: `"Authorization" header is missing.`,
				},
			)
			return
		}
		token := BearerTokenFromRequest(r)
		if token == "" {
			t.writeResponse(
				w,
				http.StatusUnauthorized,
				&meta.ErrAuthentication{
					Reason: `"Authorization" header is malformed.`,
				},
			)
			return
		}

		session, err := t.findSession(r.Context(), token)
		if err != nil {
			if _, ok := errors.Cause(err).(*meta.ErrNotFound); ok {
				t.writeResponse(
					w,
					http.StatusUnauthorized,
					&meta.ErrAuthentication{
						Reason: "Session not found. Please log in again.",
					},
				)
				return
			}
			log.Println(err)
			t.writeResponse(
				w,
				http.StatusInternalServerError,
				&meta.ErrInternalServer{},
			)
			return
		}
		if session.Authenticated == nil {
			t.writeResponse(
				w,
				http.StatusUnauthorized,
				&meta.ErrAuthentication{
					Reason: "Supplied token has not been authenticated. Please log " +
						"in again.",
				},
			)
			return
		}
		if session.Expires != nil && time.Now().After(*session.Expires) {
			t.writeResponse(
				w,
				http.StatusUnauthorized,
				&meta.ErrAuthentication{
					Reason: "Supplied token has expired. Please log in again.",
				},
			)
			return
		}
		user, err := t.findUser(r.Context(), session.UserID)
		if err != nil {
			log.Println(err)
			// There should never be an authenticated session for a user that
			// doesn't exist.
			t.writeResponse(
				w,
				http.StatusInternalServerError,
				&meta.ErrInternalServer{},
			)
			return
		}

		// Success! Add the user and the session ID to the context.
		ctx := authx.ContextWithUser(r.Context(), user)
		ctx = authx.ContextWithSessionID(ctx, session.ID)
		handle(w, r.WithContext(ctx))
	}
}

func (t *tokenAuthFilter) writeResponse(
	w http.ResponseWriter,
	statusCode int,
	response interface{},
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	responseBody, ok := response.([]byte)
	if !ok {
		var err error
		if responseBody, err = json.Marshal(response); err != nil {
			log.Println(errors.Wrap(err, "error marshaling response body"))
		}
	}
	if _, err := w.Write(responseBody); err != nil {
		log.Println(errors.Wrap(err, "error writing response body"))
	}
}
