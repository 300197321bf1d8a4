package session

import (
	"context"
	"sync"
	"time"

	"github.com/kvittoapp/kvitto/client/localstore"
	"github.com/kvittoapp/kvitto/sdk/authn"
	"github.com/kvittoapp/kvitto/sdk/meta"
	"github.com/kvittoapp/kvitto/sdk/system"
	"github.com/pkg/errors"
)

// sessionKey is the sole key under which the session record lives in the
// user profile collection. The Manager is the only writer of this key.
const sessionKey = "session"

// SessionsClientFactory returns a sessions API client bound to the given
// bearer token. The Manager mints tokens at login time, so it cannot be
// handed a single pre-built client.
type SessionsClientFactory func(apiToken string) authn.SessionsClient

// Manager drives the external-redirect authentication protocol and maintains
// the single authoritative Session record, persisted through the local store.
type Manager interface {
	// Login initiates the external-redirect login workflow: it obtains login
	// details from the API server, durably records the pending session, and
	// hands the authentication URL to the external browser launcher. The
	// session transitions to StatusPendingExternalConfirmation regardless of
	// what the launcher reports, since completion happens out of process; only
	// a complete failure to open any handler yields *ErrLaunchFailed. A
	// re-entrant Login while already pending re-launches the external flow
	// without resetting persisted data.
	Login(ctx context.Context) error
	// CheckStatus asks the API server whether the external login step has
	// completed. It is the single entry point for both completion-detection
	// triggers: polling on app resume and a deep-link callback, if the host
	// platform provides one. A positive answer populates and durably persists
	// an authenticated session; a negative answer leaves state untouched.
	// *ErrNetwork and *ErrInvalidResponse never corrupt the previously
	// persisted session.
	CheckStatus(ctx context.Context) (Status, error)
	// Refresh attempts to silently extend an expired (or soon to expire)
	// session. A definitive rejection resets the session to
	// StatusUnauthenticated; a network failure leaves it untouched.
	Refresh(ctx context.Context) (Status, error)
	// Logout invalidates the server-side session on a best-effort basis,
	// clears the local session, and durably persists the cleared state. With
	// purge set, every local collection is emptied as well.
	Logout(ctx context.Context, purge bool) error
	// CurrentSession returns an immutable snapshot of the latest session,
	// downgrading StatusAuthenticated to StatusExpired when the local clock
	// says the token has lapsed.
	CurrentSession() Session
	// HealthCheck is a read-only diagnostic query against the API server.
	// Failures are non-fatal and reported as status "unknown".
	HealthCheck(ctx context.Context) system.HealthInfo
}

type manager struct {
	store             localstore.Store
	launcher          Launcher
	sessionsClientFor SessionsClientFactory
	healthClient      system.HealthClient
	now               func() time.Time
	mu                sync.Mutex
	session           Session
	// seq increases on every committed state change. Completions of suspended
	// operations are gated on it so a stale confirmation can never overwrite a
	// newer logout.
	seq uint64
}

// NewManager returns a Manager whose session is loaded from the local store,
// which must already be initialized.
func NewManager(
	ctx context.Context,
	store localstore.Store,
	launcher Launcher,
	sessionsClientFor SessionsClientFactory,
	healthClient system.HealthClient,
) (Manager, error) {
	m := &manager{
		store:             store,
		launcher:          launcher,
		sessionsClientFor: sessionsClientFor,
		healthClient:      healthClient,
		now:               time.Now,
		session: Session{
			Status: StatusUnauthenticated,
		},
	}
	persisted := Session{}
	found, err := store.Get(ctx, localstore.UserProfile, sessionKey, &persisted)
	if err != nil {
		return nil, errors.Wrap(err, "error loading persisted session")
	}
	if found {
		m.session = persisted
	}
	return m, nil
}

func (m *manager) Login(ctx context.Context) error {
	m.mu.Lock()
	current := m.session
	m.mu.Unlock()

	authURL := current.AuthURL
	if current.Status != StatusPendingExternalConfirmation || authURL == "" {
		loginDetails, err := m.sessionsClientFor("").Create(ctx)
		if err != nil {
			return m.classify(err)
		}
		now := m.now()
		pending := Session{
			Status:   StatusPendingExternalConfirmation,
			Token:    loginDetails.Token,
			AuthURL:  loginDetails.AuthURL,
			IssuedAt: &now,
		}
		if err := m.commit(ctx, pending); err != nil {
			return err
		}
		authURL = loginDetails.AuthURL
	}

	if err := m.launcher.Open(authURL); err != nil {
		return &ErrLaunchFailed{
			Reason: err.Error(),
		}
	}
	return nil
}

func (m *manager) CheckStatus(ctx context.Context) (Status, error) {
	m.mu.Lock()
	current := m.session
	seq := m.seq
	m.mu.Unlock()

	if current.Token == "" {
		return current.Status, nil
	}

	statusDetails, err := m.sessionsClientFor(current.Token).Status(ctx)
	if err != nil {
		if _, ok := errors.Cause(err).(*meta.ErrAuthentication); ok &&
			current.Status == StatusAuthenticated {
			// Server rejection signal for a previously authenticated session
			expired := current
			expired.Status = StatusExpired
			if err := m.commitIfCurrent(ctx, seq, expired); err != nil {
				return current.Status, err
			}
			return m.CurrentSession().Status, nil
		}
		return current.Status, m.classify(err)
	}

	if !statusDetails.Authenticated {
		if current.Status == StatusAuthenticated {
			// Server-side invalidation destroys the session outright
			if err := m.commitIfCurrent(
				ctx,
				seq,
				Session{Status: StatusUnauthenticated},
			); err != nil {
				return current.Status, err
			}
			return m.CurrentSession().Status, nil
		}
		// Still waiting on the external step
		return current.Status, nil
	}

	if statusDetails.User == nil {
		return current.Status, &ErrInvalidResponse{
			Reason: "server confirmed authentication but sent no user",
		}
	}

	authenticated := Session{
		Status:    StatusAuthenticated,
		Token:     current.Token,
		UserID:    statusDetails.User.ID,
		Email:     statusDetails.User.Email,
		CompanyID: statusDetails.User.CompanyID,
		Role:      statusDetails.User.Role,
		IssuedAt:  current.IssuedAt,
		ExpiresAt: statusDetails.Expires,
	}
	if authenticated.IssuedAt == nil {
		now := m.now()
		authenticated.IssuedAt = &now
	}
	if err := m.commitIfCurrent(ctx, seq, authenticated); err != nil {
		return current.Status, err
	}
	return m.CurrentSession().Status, nil
}

func (m *manager) Refresh(ctx context.Context) (Status, error) {
	m.mu.Lock()
	current := m.session
	seq := m.seq
	m.mu.Unlock()

	if current.Token == "" {
		return current.Status, nil
	}

	refreshDetails, err := m.sessionsClientFor(current.Token).Refresh(ctx)
	if err != nil {
		switch e := errors.Cause(err).(type) {
		case *meta.ErrConnection:
			if e.Malformed {
				return current.Status, &ErrInvalidResponse{Reason: e.Reason}
			}
			return current.Status, &ErrNetwork{Reason: e.Reason}
		default:
			// A definitive rejection: the session is gone for good
			if err := m.commitIfCurrent(
				ctx,
				seq,
				Session{Status: StatusUnauthenticated},
			); err != nil {
				return current.Status, err
			}
			return m.CurrentSession().Status, nil
		}
	}

	refreshed := current
	refreshed.Status = StatusAuthenticated
	refreshed.ExpiresAt = refreshDetails.Expires
	if err := m.commitIfCurrent(ctx, seq, refreshed); err != nil {
		return current.Status, err
	}
	return m.CurrentSession().Status, nil
}

func (m *manager) Logout(ctx context.Context, purge bool) error {
	m.mu.Lock()
	current := m.session
	m.mu.Unlock()

	if current.Token != "" {
		// Even if the server-side session wasn't found and deleted, we still
		// want to move on to destroying local state.
		m.sessionsClientFor(current.Token).Delete(ctx) // nolint: errcheck
	}

	if purge {
		if err := m.store.ClearAll(ctx); err != nil {
			return err
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		m.session = Session{Status: StatusUnauthenticated}
		m.seq++
		return nil
	}

	return m.commit(ctx, Session{Status: StatusUnauthenticated})
}

func (m *manager) CurrentSession() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.Status == StatusAuthenticated &&
		m.session.ExpiresAt != nil &&
		!m.now().Before(*m.session.ExpiresAt) {
		// Expiry is derivable from the persisted record, so the downgrade
		// needs no write of its own.
		m.session.Status = StatusExpired
	}
	return m.session
}

func (m *manager) HealthCheck(ctx context.Context) system.HealthInfo {
	healthInfo, err := m.healthClient.Get(ctx)
	if err != nil {
		return system.HealthInfo{
			Status:  "unknown",
			Message: err.Error(),
		}
	}
	return healthInfo
}

// commit durably persists next as the authoritative session, then publishes
// it in memory. User-initiated transitions (login, logout) commit
// unconditionally.
func (m *manager) commit(ctx context.Context, next Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Put(
		ctx,
		localstore.UserProfile,
		sessionKey,
		next,
	); err != nil {
		return err
	}
	m.session = next
	m.seq++
	return nil
}

// commitIfCurrent is like commit but is a no-op when another operation has
// committed since seq was captured. Completions of suspended operations use
// it so that, e.g., a delayed positive confirmation cannot resurrect a
// session a newer logout already cleared.
func (m *manager) commitIfCurrent(
	ctx context.Context,
	seq uint64,
	next Session,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seq != seq {
		return nil
	}
	if err := m.store.Put(
		ctx,
		localstore.UserProfile,
		sessionKey,
		next,
	); err != nil {
		return err
	}
	m.session = next
	m.seq++
	return nil
}

func (m *manager) classify(err error) error {
	switch e := errors.Cause(err).(type) {
	case *meta.ErrConnection:
		if e.Malformed {
			return &ErrInvalidResponse{Reason: e.Reason}
		}
		return &ErrNetwork{Reason: e.Reason}
	default:
		return err
	}
}
