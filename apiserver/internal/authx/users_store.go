package authx

import "context"

// UsersStore is an interface for components that manage persistence of Users.
type UsersStore interface {
	// Create stores the provided User. Implementations MUST return a
	// *meta.ErrConflict if a User having the same email already exists.
	Create(context.Context, User) error
	// Get returns the User having the identifier provided. Implementations
	// MUST return a *meta.ErrNotFound when no such User exists.
	Get(context.Context, string) (User, error)
	// GetByEmail returns the User having the email address provided.
	// Implementations MUST return a *meta.ErrNotFound when no such User
	// exists.
	GetByEmail(context.Context, string) (User, error)
}
