package authx

import (
	"context"

	"github.com/pkg/errors"
)

// UsersService is the specialized interface for managing Users.
type UsersService interface {
	// Get retrieves a single User by identifier.
	Get(context.Context, string) (User, error)
}

type usersService struct {
	store UsersStore
}

// NewUsersService returns a specialized interface for managing Users.
func NewUsersService(store UsersStore) UsersService {
	return &usersService{
		store: store,
	}
}

func (u *usersService) Get(ctx context.Context, id string) (User, error) {
	user, err := u.store.Get(ctx, id)
	if err != nil {
		return user, errors.Wrapf(err, "error retrieving user %q from store", id)
	}
	return user, nil
}
