package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis"
	"github.com/kvittoapp/kvitto/apiserver/internal/authx"
	"github.com/kvittoapp/kvitto/sdk/meta"
	"github.com/pkg/errors"
)

const (
	// pendingSessionTTL bounds how long an unactivated session sticks around
	// waiting for the external authentication workflow to complete.
	pendingSessionTTL = time.Hour
	// expiredSessionGrace keeps an expired-but-activated session queryable past
	// its expiry so that clients retain a window in which a silent refresh can
	// still succeed.
	expiredSessionGrace = 24 * time.Hour
)

type store struct {
	client *redis.Client
}

// NewSessionsStore returns a Redis-based implementation of the
// authx.SessionsStore interface. Sessions are stored under a primary key by
// ID with secondary keys indexing hashed token and hashed OAuth2 state, all
// carrying matching TTLs so abandoned sessions evict themselves.
func NewSessionsStore(client *redis.Client) authx.SessionsStore {
	return &store{
		client: client,
	}
}

func sessionKey(id string) string {
	return fmt.Sprintf("sessions:%s", id)
}

func tokenKey(hashedToken string) string {
	return fmt.Sprintf("sessions:token:%s", hashedToken)
}

func stateKey(hashedOAuth2State string) string {
	return fmt.Sprintf("sessions:state:%s", hashedOAuth2State)
}

func (s *store) Create(_ context.Context, session authx.Session) error {
	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return errors.Wrapf(err, "error marshaling session %q", session.ID)
	}
	pipeline := s.client.TxPipeline()
	pipeline.Set(sessionKey(session.ID), sessionJSON, pendingSessionTTL)
	pipeline.Set(
		tokenKey(session.HashedToken),
		session.ID,
		pendingSessionTTL,
	)
	pipeline.Set(
		stateKey(session.HashedOAuth2State),
		session.ID,
		pendingSessionTTL,
	)
	if _, err := pipeline.Exec(); err != nil {
		return errors.Wrapf(err, "error storing new session %q", session.ID)
	}
	return nil
}

func (s *store) GetByHashedOAuth2State(
	ctx context.Context,
	hashedOAuth2State string,
) (authx.Session, error) {
	return s.getByIndex(ctx, stateKey(hashedOAuth2State))
}

func (s *store) GetByHashedToken(
	ctx context.Context,
	hashedToken string,
) (authx.Session, error) {
	return s.getByIndex(ctx, tokenKey(hashedToken))
}

func (s *store) getByIndex(
	ctx context.Context,
	indexKey string,
) (authx.Session, error) {
	session := authx.Session{}
	id, err := s.client.Get(indexKey).Result()
	if err == redis.Nil {
		return session, &meta.ErrNotFound{
			Type: "Session",
		}
	}
	if err != nil {
		return session, errors.Wrap(err, "error finding session by index")
	}
	return s.get(ctx, id)
}

func (s *store) get(_ context.Context, id string) (authx.Session, error) {
	session := authx.Session{}
	sessionJSON, err := s.client.Get(sessionKey(id)).Result()
	if err == redis.Nil {
		// The index outlived the session record. Treat it as gone.
		return session, &meta.ErrNotFound{
			Type: "Session",
			ID:   id,
		}
	}
	if err != nil {
		return session, errors.Wrapf(err, "error finding session %q", id)
	}
	if err := json.Unmarshal([]byte(sessionJSON), &session); err != nil {
		return session, errors.Wrapf(err, "error decoding session %q", id)
	}
	return session, nil
}

func (s *store) Authenticate(
	ctx context.Context,
	sessionID string,
	userID string,
	expires time.Time,
) error {
	session, err := s.get(ctx, sessionID)
	if err != nil {
		return err
	}
	now := time.Now()
	session.UserID = userID
	session.Authenticated = &now
	session.Expires = &expires
	return s.save(session, time.Until(expires)+expiredSessionGrace)
}

func (s *store) Refresh(
	ctx context.Context,
	sessionID string,
	expires time.Time,
) error {
	session, err := s.get(ctx, sessionID)
	if err != nil {
		return err
	}
	session.Expires = &expires
	return s.save(session, time.Until(expires)+expiredSessionGrace)
}

func (s *store) save(session authx.Session, ttl time.Duration) error {
	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return errors.Wrapf(err, "error marshaling session %q", session.ID)
	}
	pipeline := s.client.TxPipeline()
	pipeline.Set(sessionKey(session.ID), sessionJSON, ttl)
	pipeline.Set(tokenKey(session.HashedToken), session.ID, ttl)
	// The OAuth2 state has served its purpose once a session is activated.
	pipeline.Del(stateKey(session.HashedOAuth2State))
	if _, err := pipeline.Exec(); err != nil {
		return errors.Wrapf(err, "error storing session %q", session.ID)
	}
	return nil
}

func (s *store) Delete(ctx context.Context, sessionID string) error {
	session, err := s.get(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := s.client.Del(
		sessionKey(session.ID),
		tokenKey(session.HashedToken),
		stateKey(session.HashedOAuth2State),
	).Err(); err != nil {
		return errors.Wrapf(err, "error deleting session %q", sessionID)
	}
	return nil
}
