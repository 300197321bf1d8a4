package authx

import "context"

type userContextKey struct{}

type sessionIDContextKey struct{}

// ContextWithUser returns a context.Context that has been augmented with the
// given User.
func ContextWithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// ContextWithSessionID returns a context.Context that has been augmented with
// the given session ID.
func ContextWithSessionID(
	ctx context.Context,
	sessionID string,
) context.Context {
	return context.WithValue(ctx, sessionIDContextKey{}, sessionID)
}

// UserFromContext extracts a User from the given context.Context and returns
// it along with a bool indicating whether one was found.
func UserFromContext(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(userContextKey{}).(User)
	return user, ok
}

// SessionIDFromContext extracts a session ID from the given context.Context.
func SessionIDFromContext(ctx context.Context) string {
	sessionID := ctx.Value(sessionIDContextKey{})
	if sessionID == nil {
		return ""
	}
	return sessionID.(string)
}
