// Package user holds the User resource: the entity, its request and response
// shapes, the store contract and the service that applies the cache policy.
package user

import (
	"time"

	"github.com/uptrace/bun"
)

// Status is the lifecycle state of a user account.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// User is the persisted entity. CreatedAt and UpdatedAt are stamped by the store.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID          int64     `bun:"id,pk,autoincrement"`
	Email       string    `bun:"email,notnull,unique"`
	Password    string    `bun:"password,notnull"`
	Name        string    `bun:"name,notnull"`
	PhoneNumber string    `bun:"phone_number,notnull"`
	Status      Status    `bun:"status,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}

// Activate moves the user to ACTIVE.
func (u *User) Activate() {
	u.Status = StatusActive
}

// Deactivate moves the user to INACTIVE.
func (u *User) Deactivate() {
	u.Status = StatusInactive
}

// IsActive reports whether the account is ACTIVE.
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}
