package authn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kvittoapp/kvitto/sdk/meta"
	"github.com/stretchr/testify/require"
)

func TestNewSessionsClient(t *testing.T) {
	client := NewSessionsClient(
		testAPIAddress,
		testAPIToken,
		testClientAllowInsecure,
	)
	require.IsType(t, &sessionsClient{}, client)
	requireBaseClient(t, client.(*sessionsClient).BaseClient)
}

func TestSessionsClientCreate(t *testing.T) {
	testLoginDetails := LoginDetails{
		AuthURL: "https://id.example.com/auth?state=foo",
		Token:   "opensesame",
	}
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodPost, r.Method)
				require.Equal(t, "/v2/sessions", r.URL.Path)
				require.Empty(t, r.Header.Get("Authorization"))
				bodyBytes, err := json.Marshal(testLoginDetails)
				require.NoError(t, err)
				w.WriteHeader(http.StatusCreated)
				fmt.Fprintln(w, string(bodyBytes))
			},
		),
	)
	defer server.Close()
	client := NewSessionsClient(
		server.URL,
		testAPIToken,
		testClientAllowInsecure,
	)
	loginDetails, err := client.Create(context.Background())
	require.NoError(t, err)
	require.Equal(t, testLoginDetails, loginDetails)
}

func TestSessionsClientStatus(t *testing.T) {
	testStatusDetails := SessionStatusDetails{
		Authenticated: true,
		User: &UserReference{
			ID:        "u1",
			Email:     "a@b.com",
			CompanyID: "c1",
			Role:      "member",
		},
	}
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodGet, r.Method)
				require.Equal(t, "/v2/session", r.URL.Path)
				require.Contains(t, r.Header.Get("Authorization"), "Bearer")
				bodyBytes, err := json.Marshal(testStatusDetails)
				require.NoError(t, err)
				w.WriteHeader(http.StatusOK)
				fmt.Fprintln(w, string(bodyBytes))
			},
		),
	)
	defer server.Close()
	client := NewSessionsClient(
		server.URL,
		testAPIToken,
		testClientAllowInsecure,
	)
	statusDetails, err := client.Status(context.Background())
	require.NoError(t, err)
	require.Equal(t, testStatusDetails, statusDetails)
}

func TestSessionsClientStatusPending(t *testing.T) {
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				bodyBytes, err := json.Marshal(SessionStatusDetails{})
				require.NoError(t, err)
				w.WriteHeader(http.StatusOK)
				fmt.Fprintln(w, string(bodyBytes))
			},
		),
	)
	defer server.Close()
	client := NewSessionsClient(
		server.URL,
		testAPIToken,
		testClientAllowInsecure,
	)
	statusDetails, err := client.Status(context.Background())
	require.NoError(t, err)
	require.False(t, statusDetails.Authenticated)
	require.Nil(t, statusDetails.User)
}

func TestSessionsClientStatusServerUnreachable(t *testing.T) {
	client := NewSessionsClient(
		"http://localhost:0",
		testAPIToken,
		testClientAllowInsecure,
	)
	_, err := client.Status(context.Background())
	require.Error(t, err)
	connErr, ok := err.(*meta.ErrConnection)
	require.True(t, ok)
	require.False(t, connErr.Malformed)
}

func TestSessionsClientStatusMalformedResponse(t *testing.T) {
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				fmt.Fprintln(w, "this is not json")
			},
		),
	)
	defer server.Close()
	client := NewSessionsClient(
		server.URL,
		testAPIToken,
		testClientAllowInsecure,
	)
	_, err := client.Status(context.Background())
	require.Error(t, err)
	connErr, ok := err.(*meta.ErrConnection)
	require.True(t, ok)
	require.True(t, connErr.Malformed)
}

func TestSessionsClientRefresh(t *testing.T) {
	testExpires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	testRefreshDetails := RefreshDetails{
		Expires: &testExpires,
	}
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodPost, r.Method)
				require.Equal(t, "/v2/session/refresh", r.URL.Path)
				require.Contains(t, r.Header.Get("Authorization"), "Bearer")
				bodyBytes, err := json.Marshal(testRefreshDetails)
				require.NoError(t, err)
				w.WriteHeader(http.StatusOK)
				fmt.Fprintln(w, string(bodyBytes))
			},
		),
	)
	defer server.Close()
	client := NewSessionsClient(
		server.URL,
		testAPIToken,
		testClientAllowInsecure,
	)
	refreshDetails, err := client.Refresh(context.Background())
	require.NoError(t, err)
	require.NotNil(t, refreshDetails.Expires)
	require.Equal(t, testExpires, refreshDetails.Expires.UTC())
}

func TestSessionsClientRefreshRejected(t *testing.T) {
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				bodyBytes, err := json.Marshal(
					&meta.ErrAuthentication{
						Reason: "Session has expired. Please log in again.",
					},
				)
				require.NoError(t, err)
				w.WriteHeader(http.StatusUnauthorized)
				fmt.Fprintln(w, string(bodyBytes))
			},
		),
	)
	defer server.Close()
	client := NewSessionsClient(
		server.URL,
		testAPIToken,
		testClientAllowInsecure,
	)
	_, err := client.Refresh(context.Background())
	require.Error(t, err)
	require.IsType(t, &meta.ErrAuthentication{}, err)
}

func TestSessionsClientDelete(t *testing.T) {
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodDelete, r.Method)
				require.Equal(t, "/v2/session", r.URL.Path)
				require.Contains(t, r.Header.Get("Authorization"), "Bearer")
				w.WriteHeader(http.StatusOK)
			},
		),
	)
	defer server.Close()
	client := NewSessionsClient(
		server.URL,
		testAPIToken,
		testClientAllowInsecure,
	)
	err := client.Delete(context.Background())
	require.NoError(t, err)
}
