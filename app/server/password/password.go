// Package password hashes and verifies user passwords.
//
// New hashes are produced by the configured Hasher, while Compare recognises
// every supported format by its prefix, so existing records stay valid after
// the configured algorithm changes.
package password

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

const (
	AlgoBcrypt   = "bcrypt"
	AlgoArgon2id = "argon2id"

	// DefaultBcryptCost is the work factor used for new bcrypt hashes.
	DefaultBcryptCost = 12

	// MaxBytes is the longest password bcrypt accepts, counted in bytes.
	MaxBytes = 72
)

var ErrUnknownHashFormat = errors.New("unknown password hash format")

type Hasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) (bool, error)
}

type Bcrypt struct {
	Cost int
}

func (b Bcrypt) Hash(plain string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(h), nil
}

func (b Bcrypt) Compare(hash, plain string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("bcrypt compare: %w", err)
	}
}

type Argon2id struct {
	Params *argon2id.Params
}

func (a Argon2id) Hash(plain string) (string, error) {
	params := a.Params
	if params == nil {
		params = argon2id.DefaultParams
	}
	h, err := argon2id.CreateHash(plain, params)
	if err != nil {
		return "", fmt.Errorf("argon2id hash: %w", err)
	}
	return h, nil
}

func (a Argon2id) Compare(hash, plain string) (bool, error) {
	match, _, err := argon2id.CheckHash(plain, hash)
	if err != nil {
		return false, fmt.Errorf("argon2id compare: %w", err)
	}
	return match, nil
}

// New returns the hasher registered under name.
func New(name string) (Hasher, error) {
	switch strings.ToLower(name) {
	case "", AlgoBcrypt:
		return Bcrypt{Cost: DefaultBcryptCost}, nil
	case AlgoArgon2id:
		return Argon2id{}, nil
	}
	return nil, fmt.Errorf("unsupported password hasher %q", name)
}

// Compare verifies plain against hash using the algorithm encoded in the hash.
// A mismatch is reported as (false, nil).
func Compare(hash, plain string) (bool, error) {
	switch {
	case strings.HasPrefix(hash, "$argon2id$"):
		return Argon2id{}.Compare(hash, plain)
	case strings.HasPrefix(hash, "$2a$"), strings.HasPrefix(hash, "$2b$"), strings.HasPrefix(hash, "$2y$"):
		return Bcrypt{}.Compare(hash, plain)
	}
	return false, ErrUnknownHashFormat
}
