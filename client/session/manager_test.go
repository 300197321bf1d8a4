package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kvittoapp/kvitto/client/localstore"
	"github.com/kvittoapp/kvitto/sdk/authn"
	"github.com/kvittoapp/kvitto/sdk/meta"
	"github.com/kvittoapp/kvitto/sdk/system"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeSessionsClient struct {
	createFn  func(context.Context) (authn.LoginDetails, error)
	statusFn  func(context.Context) (authn.SessionStatusDetails, error)
	refreshFn func(context.Context) (authn.RefreshDetails, error)
	deleteFn  func(context.Context) error
}

func (f *fakeSessionsClient) Create(
	ctx context.Context,
) (authn.LoginDetails, error) {
	if f.createFn != nil {
		return f.createFn(ctx)
	}
	return authn.LoginDetails{}, nil
}

func (f *fakeSessionsClient) Status(
	ctx context.Context,
) (authn.SessionStatusDetails, error) {
	if f.statusFn != nil {
		return f.statusFn(ctx)
	}
	return authn.SessionStatusDetails{}, nil
}

func (f *fakeSessionsClient) Refresh(
	ctx context.Context,
) (authn.RefreshDetails, error) {
	if f.refreshFn != nil {
		return f.refreshFn(ctx)
	}
	return authn.RefreshDetails{}, nil
}

func (f *fakeSessionsClient) Delete(ctx context.Context) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx)
	}
	return nil
}

type fakeLauncher struct {
	mu     sync.Mutex
	opened []string
	err    error
}

func (f *fakeLauncher) Open(url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.opened = append(f.opened, url)
	return nil
}

type fakeHealthClient struct {
	getFn func(context.Context) (system.HealthInfo, error)
}

func (f *fakeHealthClient) Get(ctx context.Context) (system.HealthInfo, error) {
	if f.getFn != nil {
		return f.getFn(ctx)
	}
	return system.HealthInfo{Status: "ok"}, nil
}

type testRig struct {
	store    localstore.Store
	launcher *fakeLauncher
	client   *fakeSessionsClient
	health   *fakeHealthClient
	manager  Manager
}

func newTestRig(t *testing.T) *testRig {
	store := localstore.NewStore(t.TempDir())
	err := store.Initialize(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() }) // nolint: errcheck
	rig := &testRig{
		store:    store,
		launcher: &fakeLauncher{},
		client:   &fakeSessionsClient{},
		health:   &fakeHealthClient{},
	}
	rig.manager, err = NewManager(
		context.Background(),
		store,
		rig.launcher,
		func(string) authn.SessionsClient { return rig.client },
		rig.health,
	)
	require.NoError(t, err)
	return rig
}

// reload simulates an app restart: a fresh manager constructed over the same
// durable store.
func (r *testRig) reload(t *testing.T) Manager {
	manager, err := NewManager(
		context.Background(),
		r.store,
		r.launcher,
		func(string) authn.SessionsClient { return r.client },
		r.health,
	)
	require.NoError(t, err)
	return manager
}

var testLoginDetails = authn.LoginDetails{
	AuthURL: "https://id.example.com/auth?state=xyzzy",
	Token:   "opensesame",
}

var testConfirmedStatus = authn.SessionStatusDetails{
	Authenticated: true,
	User: &authn.UserReference{
		ID:        "u1",
		Email:     "a@b.com",
		CompanyID: "c1",
		Role:      "member",
	},
}

func TestNewManagerStartsUnauthenticated(t *testing.T) {
	rig := newTestRig(t)
	require.Equal(
		t,
		StatusUnauthenticated,
		rig.manager.CurrentSession().Status,
	)
}

func TestLoginTransitionsToPending(t *testing.T) {
	rig := newTestRig(t)
	rig.client.createFn = func(context.Context) (authn.LoginDetails, error) {
		return testLoginDetails, nil
	}
	err := rig.manager.Login(context.Background())
	require.NoError(t, err)
	session := rig.manager.CurrentSession()
	require.Equal(t, StatusPendingExternalConfirmation, session.Status)
	require.Equal(t, testLoginDetails.Token, session.Token)
	require.Equal(t, []string{testLoginDetails.AuthURL}, rig.launcher.opened)
}

func TestLoginTransitionsToPendingEvenWhenLauncherFails(t *testing.T) {
	rig := newTestRig(t)
	rig.client.createFn = func(context.Context) (authn.LoginDetails, error) {
		return testLoginDetails, nil
	}
	rig.launcher.err = errors.New("no browser installed")
	err := rig.manager.Login(context.Background())
	require.Error(t, err)
	require.IsType(t, &ErrLaunchFailed{}, err)
	require.Equal(
		t,
		StatusPendingExternalConfirmation,
		rig.manager.CurrentSession().Status,
	)
}

func TestLoginSurfacesNetworkFailure(t *testing.T) {
	rig := newTestRig(t)
	rig.client.createFn = func(context.Context) (authn.LoginDetails, error) {
		return authn.LoginDetails{}, &meta.ErrConnection{
			Reason: "connection refused",
		}
	}
	err := rig.manager.Login(context.Background())
	require.Error(t, err)
	require.IsType(t, &ErrNetwork{}, err)
	require.Equal(
		t,
		StatusUnauthenticated,
		rig.manager.CurrentSession().Status,
	)
}

func TestReentrantLoginRelaunchesWithoutNewSession(t *testing.T) {
	rig := newTestRig(t)
	creates := 0
	rig.client.createFn = func(context.Context) (authn.LoginDetails, error) {
		creates++
		return testLoginDetails, nil
	}
	err := rig.manager.Login(context.Background())
	require.NoError(t, err)
	err = rig.manager.Login(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, creates)
	require.Len(t, rig.launcher.opened, 2)
	require.Equal(
		t,
		testLoginDetails.Token,
		rig.manager.CurrentSession().Token,
	)
}

func TestCheckStatusWhileUnauthenticatedIsANoOp(t *testing.T) {
	rig := newTestRig(t)
	rig.client.statusFn = func(
		context.Context,
	) (authn.SessionStatusDetails, error) {
		t.Fatal("no status query should have been issued")
		return authn.SessionStatusDetails{}, nil
	}
	status, err := rig.manager.CheckStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusUnauthenticated, status)
}

func TestCheckStatusConfirmsPendingLogin(t *testing.T) {
	rig := newTestRig(t)
	rig.client.createFn = func(context.Context) (authn.LoginDetails, error) {
		return testLoginDetails, nil
	}
	rig.client.statusFn = func(
		context.Context,
	) (authn.SessionStatusDetails, error) {
		return testConfirmedStatus, nil
	}
	err := rig.manager.Login(context.Background())
	require.NoError(t, err)
	status, err := rig.manager.CheckStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusAuthenticated, status)

	session := rig.manager.CurrentSession()
	require.Equal(t, "u1", session.UserID)
	require.Equal(t, "a@b.com", session.Email)
	require.Equal(t, "c1", session.CompanyID)
	require.Equal(t, "member", session.Role)

	// The exact identity fields survive a simulated restart
	reloaded := rig.reload(t)
	session = reloaded.CurrentSession()
	require.Equal(t, StatusAuthenticated, session.Status)
	require.Equal(t, "u1", session.UserID)
	require.Equal(t, "a@b.com", session.Email)
	require.Equal(t, "c1", session.CompanyID)
	require.Equal(t, "member", session.Role)
}

func TestCheckStatusStillPendingLeavesStateUnchanged(t *testing.T) {
	rig := newTestRig(t)
	rig.client.createFn = func(context.Context) (authn.LoginDetails, error) {
		return testLoginDetails, nil
	}
	rig.client.statusFn = func(
		context.Context,
	) (authn.SessionStatusDetails, error) {
		return authn.SessionStatusDetails{}, nil
	}
	err := rig.manager.Login(context.Background())
	require.NoError(t, err)
	status, err := rig.manager.CheckStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusPendingExternalConfirmation, status)
}

func TestCheckStatusNetworkFailureLeavesStateUnchanged(t *testing.T) {
	rig := newTestRig(t)
	rig.client.createFn = func(context.Context) (authn.LoginDetails, error) {
		return testLoginDetails, nil
	}
	err := rig.manager.Login(context.Background())
	require.NoError(t, err)
	persistedBefore := Session{}
	found, err := rig.store.Get(
		context.Background(),
		localstore.UserProfile,
		sessionKey,
		&persistedBefore,
	)
	require.NoError(t, err)
	require.True(t, found)

	rig.client.statusFn = func(
		context.Context,
	) (authn.SessionStatusDetails, error) {
		return authn.SessionStatusDetails{}, &meta.ErrConnection{
			Reason: "connection refused",
		}
	}
	status, err := rig.manager.CheckStatus(context.Background())
	require.Error(t, err)
	require.IsType(t, &ErrNetwork{}, err)
	require.Equal(t, StatusPendingExternalConfirmation, status)

	// No persisted write occurred
	persistedAfter := Session{}
	found, err = rig.store.Get(
		context.Background(),
		localstore.UserProfile,
		sessionKey,
		&persistedAfter,
	)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, persistedBefore, persistedAfter)
}

func TestCheckStatusMalformedResponseTreatedAsNegative(t *testing.T) {
	rig := newTestRig(t)
	rig.client.createFn = func(context.Context) (authn.LoginDetails, error) {
		return testLoginDetails, nil
	}
	rig.client.statusFn = func(
		context.Context,
	) (authn.SessionStatusDetails, error) {
		return authn.SessionStatusDetails{}, &meta.ErrConnection{
			Malformed: true,
			Reason:    "gibberish payload",
		}
	}
	err := rig.manager.Login(context.Background())
	require.NoError(t, err)
	status, err := rig.manager.CheckStatus(context.Background())
	require.Error(t, err)
	require.IsType(t, &ErrInvalidResponse{}, err)
	require.Equal(t, StatusPendingExternalConfirmation, status)
}

func TestLogoutClearsSessionDurably(t *testing.T) {
	rig := newTestRig(t)
	rig.client.createFn = func(context.Context) (authn.LoginDetails, error) {
		return testLoginDetails, nil
	}
	rig.client.statusFn = func(
		context.Context,
	) (authn.SessionStatusDetails, error) {
		return testConfirmedStatus, nil
	}
	err := rig.manager.Login(context.Background())
	require.NoError(t, err)
	_, err = rig.manager.CheckStatus(context.Background())
	require.NoError(t, err)

	serverSideDeleted := false
	rig.client.deleteFn = func(context.Context) error {
		serverSideDeleted = true
		return nil
	}
	err = rig.manager.Logout(context.Background(), false)
	require.NoError(t, err)
	require.True(t, serverSideDeleted)

	session := rig.reload(t).CurrentSession()
	require.Equal(t, StatusUnauthenticated, session.Status)
	require.Empty(t, session.UserID)
	require.Empty(t, session.Email)
	require.Empty(t, session.Token)
}

func TestLogoutWithPurgeEmptiesEveryCollection(t *testing.T) {
	rig := newTestRig(t)
	err := rig.store.Put(
		context.Background(),
		localstore.Receipts,
		"r1",
		"cached receipt",
	)
	require.NoError(t, err)
	err = rig.manager.Logout(context.Background(), true)
	require.NoError(t, err)
	payloads, err := rig.store.GetAll(
		context.Background(),
		localstore.Receipts,
	)
	require.NoError(t, err)
	require.Empty(t, payloads)
	require.Equal(
		t,
		StatusUnauthenticated,
		rig.manager.CurrentSession().Status,
	)
}

// A stale, delayed positive confirmation must not resurrect a session that a
// newer logout already cleared.
func TestStaleCheckStatusCannotOverrideLogout(t *testing.T) {
	rig := newTestRig(t)
	rig.client.createFn = func(context.Context) (authn.LoginDetails, error) {
		return testLoginDetails, nil
	}
	err := rig.manager.Login(context.Background())
	require.NoError(t, err)

	statusStarted := make(chan struct{})
	releaseStatus := make(chan struct{})
	rig.client.statusFn = func(
		context.Context,
	) (authn.SessionStatusDetails, error) {
		close(statusStarted)
		<-releaseStatus
		return testConfirmedStatus, nil
	}

	checkDone := make(chan struct{})
	go func() {
		defer close(checkDone)
		rig.manager.CheckStatus(context.Background()) // nolint: errcheck
	}()

	<-statusStarted
	err = rig.manager.Logout(context.Background(), false)
	require.NoError(t, err)
	close(releaseStatus)
	<-checkDone

	require.Equal(
		t,
		StatusUnauthenticated,
		rig.manager.CurrentSession().Status,
	)
	session := rig.reload(t).CurrentSession()
	require.Equal(t, StatusUnauthenticated, session.Status)
	require.Empty(t, session.UserID)
}

func TestCurrentSessionDowngradesExpiredByLocalClock(t *testing.T) {
	rig := newTestRig(t)
	rig.client.createFn = func(context.Context) (authn.LoginDetails, error) {
		return testLoginDetails, nil
	}
	expires := time.Now().Add(time.Hour)
	rig.client.statusFn = func(
		context.Context,
	) (authn.SessionStatusDetails, error) {
		confirmed := testConfirmedStatus
		confirmed.Expires = &expires
		return confirmed, nil
	}
	err := rig.manager.Login(context.Background())
	require.NoError(t, err)
	_, err = rig.manager.CheckStatus(context.Background())
	require.NoError(t, err)
	require.Equal(
		t,
		StatusAuthenticated,
		rig.manager.CurrentSession().Status,
	)

	// Advance the manager's clock past the expiry
	rig.manager.(*manager).now = func() time.Time {
		return expires.Add(time.Minute)
	}
	require.Equal(t, StatusExpired, rig.manager.CurrentSession().Status)
}

func TestRefreshRestoresExpiredSession(t *testing.T) {
	rig := newTestRig(t)
	rig.client.createFn = func(context.Context) (authn.LoginDetails, error) {
		return testLoginDetails, nil
	}
	expires := time.Now().Add(-time.Minute)
	rig.client.statusFn = func(
		context.Context,
	) (authn.SessionStatusDetails, error) {
		confirmed := testConfirmedStatus
		confirmed.Expires = &expires
		return confirmed, nil
	}
	err := rig.manager.Login(context.Background())
	require.NoError(t, err)
	_, err = rig.manager.CheckStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusExpired, rig.manager.CurrentSession().Status)

	newExpires := time.Now().Add(time.Hour)
	rig.client.refreshFn = func(
		context.Context,
	) (authn.RefreshDetails, error) {
		return authn.RefreshDetails{Expires: &newExpires}, nil
	}
	status, err := rig.manager.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusAuthenticated, status)
	session := rig.manager.CurrentSession()
	require.Equal(t, "u1", session.UserID)
	require.Equal(t, newExpires.Unix(), session.ExpiresAt.Unix())
}

func TestRefreshRejectionResetsToUnauthenticated(t *testing.T) {
	rig := newTestRig(t)
	rig.client.createFn = func(context.Context) (authn.LoginDetails, error) {
		return testLoginDetails, nil
	}
	rig.client.statusFn = func(
		context.Context,
	) (authn.SessionStatusDetails, error) {
		return testConfirmedStatus, nil
	}
	err := rig.manager.Login(context.Background())
	require.NoError(t, err)
	_, err = rig.manager.CheckStatus(context.Background())
	require.NoError(t, err)

	rig.client.refreshFn = func(
		context.Context,
	) (authn.RefreshDetails, error) {
		return authn.RefreshDetails{}, &meta.ErrAuthentication{
			Reason: "session has expired",
		}
	}
	status, err := rig.manager.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusUnauthenticated, status)
	session := rig.reload(t).CurrentSession()
	require.Equal(t, StatusUnauthenticated, session.Status)
}

func TestRefreshNetworkFailureLeavesStateUnchanged(t *testing.T) {
	rig := newTestRig(t)
	rig.client.createFn = func(context.Context) (authn.LoginDetails, error) {
		return testLoginDetails, nil
	}
	rig.client.statusFn = func(
		context.Context,
	) (authn.SessionStatusDetails, error) {
		return testConfirmedStatus, nil
	}
	err := rig.manager.Login(context.Background())
	require.NoError(t, err)
	_, err = rig.manager.CheckStatus(context.Background())
	require.NoError(t, err)

	rig.client.refreshFn = func(
		context.Context,
	) (authn.RefreshDetails, error) {
		return authn.RefreshDetails{}, &meta.ErrConnection{
			Reason: "connection refused",
		}
	}
	status, err := rig.manager.Refresh(context.Background())
	require.Error(t, err)
	require.IsType(t, &ErrNetwork{}, err)
	require.Equal(t, StatusAuthenticated, status)
}

func TestHealthCheckReportsUnknownOnFailure(t *testing.T) {
	rig := newTestRig(t)
	rig.health.getFn = func(context.Context) (system.HealthInfo, error) {
		return system.HealthInfo{}, &meta.ErrConnection{
			Reason: "connection refused",
		}
	}
	healthInfo := rig.manager.HealthCheck(context.Background())
	require.Equal(t, "unknown", healthInfo.Status)
}

func TestHealthCheckPassesThroughServerReport(t *testing.T) {
	rig := newTestRig(t)
	rig.health.getFn = func(context.Context) (system.HealthInfo, error) {
		return system.HealthInfo{
			Status: "ok",
			Auth:   "oidc",
		}, nil
	}
	healthInfo := rig.manager.HealthCheck(context.Background())
	require.Equal(t, "ok", healthInfo.Status)
	require.Equal(t, "oidc", healthInfo.Auth)
}
