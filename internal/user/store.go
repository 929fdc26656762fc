package user

import (
	"context"
	"errors"
)

// Store errors. Implementations wrap or return these so the service can map
// them without knowing the driver.
var (
	ErrNotFound       = errors.New("user: not found")
	ErrDuplicateEmail = errors.New("user: duplicate email")
	ErrConstraint     = errors.New("user: constraint violation")
)

// Store is the durable source of truth for users. Implementations stamp
// CreatedAt on Create and UpdatedAt on Create and Update.
type Store interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, req PageRequest) ([]User, int64, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id int64) error
}
