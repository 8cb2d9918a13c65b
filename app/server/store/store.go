// Package store persists user records and owns password hashing and
// identity lookup.
package store

import (
	"scaffold-api/app/server/password"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

type UserStore struct {
	db       *gorm.DB
	hasher   password.Hasher
	validate *validator.Validate
	now      func() time.Time
}

// New returns a store writing new password hashes with hasher.
func New(db *gorm.DB, hasher password.Hasher) *UserStore {
	return &UserStore{
		db:       db,
		hasher:   hasher,
		validate: newValidator(),
		now:      time.Now,
	}
}
