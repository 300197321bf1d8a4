package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/kvittoapp/kvitto/apiserver/internal/authx"
	"github.com/kvittoapp/kvitto/apiserver/internal/lib/restmachinery"
	"github.com/kvittoapp/kvitto/apiserver/internal/lib/restmachinery/authn"
	"github.com/kvittoapp/kvitto/sdk/meta"
	"github.com/pkg/errors"
)

type sessionsEndpoints struct {
	*restmachinery.BaseEndpoints
	service authx.SessionsService
}

// NewSessionsEndpoints returns REST endpoints implementing the server side of
// the external-redirect login protocol.
func NewSessionsEndpoints(
	baseEndpoints *restmachinery.BaseEndpoints,
	service authx.SessionsService,
) restmachinery.Endpoints {
	return &sessionsEndpoints{
		BaseEndpoints: baseEndpoints,
		service:       service,
	}
}

func (s *sessionsEndpoints) Register(router *mux.Router) {
	// Create session
	router.HandleFunc(
		"/v2/sessions",
		s.create, // No filters applied to this request
	).Methods(http.MethodPost)

	// Query session status. Deliberately unfiltered: clients poll this while
	// the external workflow is still pending, and a pending session must not
	// be an error.
	router.HandleFunc(
		"/v2/session",
		s.status,
	).Methods(http.MethodGet)

	// Refresh session. Also unfiltered: an expired token must still be able to
	// reach this endpoint or a silent refresh could never succeed.
	router.HandleFunc(
		"/v2/session/refresh",
		s.refresh,
	).Methods(http.MethodPost)

	// Delete session
	router.HandleFunc(
		"/v2/session",
		s.TokenAuthFilter.Decorate(s.delete),
	).Methods(http.MethodDelete)

	// OIDC callback
	router.HandleFunc(
		"/v2/session/auth",
		s.authenticate, // No filters applied to this request
	).Methods(http.MethodGet)
}

func (s *sessionsEndpoints) create(w http.ResponseWriter, r *http.Request) {
	s.ServeRequest(
		restmachinery.InboundRequest{
			W: w,
			R: r,
			EndpointLogic: func() (interface{}, error) {
				return s.service.CreateUserSession(r.Context())
			},
			SuccessCode: http.StatusCreated,
		},
	)
}

func (s *sessionsEndpoints) status(w http.ResponseWriter, r *http.Request) {
	s.ServeRequest(
		restmachinery.InboundRequest{
			W: w,
			R: r,
			EndpointLogic: func() (interface{}, error) {
				token := authn.BearerTokenFromRequest(r)
				if token == "" {
					return nil, &meta.ErrBadRequest{
						Reason: "The session status request did not include a bearer " +
							"token.",
					}
				}
				return s.service.Status(r.Context(), token)
			},
			SuccessCode: http.StatusOK,
		},
	)
}

func (s *sessionsEndpoints) refresh(w http.ResponseWriter, r *http.Request) {
	s.ServeRequest(
		restmachinery.InboundRequest{
			W: w,
			R: r,
			EndpointLogic: func() (interface{}, error) {
				token := authn.BearerTokenFromRequest(r)
				if token == "" {
					return nil, &meta.ErrBadRequest{
						Reason: "The session refresh request did not include a bearer " +
							"token.",
					}
				}
				return s.service.Refresh(r.Context(), token)
			},
			SuccessCode: http.StatusOK,
		},
	)
}

func (s *sessionsEndpoints) delete(w http.ResponseWriter, r *http.Request) {
	s.ServeRequest(
		restmachinery.InboundRequest{
			W: w,
			R: r,
			EndpointLogic: func() (interface{}, error) {
				sessionID := authx.SessionIDFromContext(r.Context())
				if sessionID == "" {
					return nil, errors.New(
						"error: delete session request authenticated, but no session " +
							"ID found in request context",
					)
				}
				return nil, s.service.Delete(r.Context(), sessionID)
			},
			SuccessCode: http.StatusOK,
		},
	)
}

func (s *sessionsEndpoints) authenticate(
	w http.ResponseWriter,
	r *http.Request,
) {
	defer r.Body.Close() // nolint: errcheck

	oauth2State := r.URL.Query().Get("state")
	oidcCode := r.URL.Query().Get("code")

	s.ServeHumanRequest(restmachinery.HumanRequest{
		W: w,
		EndpointLogic: func() (interface{}, error) {
			if oauth2State == "" || oidcCode == "" {
				return nil, &meta.ErrBadRequest{
					Reason: `The OpenID Connect authentication completion request ` +
						`lacked one or both of the "state" and "code" query parameters.`,
				}
			}
			if err := s.service.Authenticate(
				r.Context(),
				oauth2State,
				oidcCode,
			); err != nil {
				return nil, errors.Wrap(
					err,
					"error completing OpenID Connect authentication",
				)
			}
			return []byte(
				"You're now signed in to Kvitto. You may close this window and " +
					"return to the app.",
			), nil
		},
		SuccessCode: http.StatusOK,
	})
}
