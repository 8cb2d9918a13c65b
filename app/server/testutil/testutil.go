// Package testutil provides helpers shared by package tests.
package testutil

import (
	"fmt"
	"testing"

	"scaffold-api/app/server/inits"
	"scaffold-api/app/server/password"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// OpenDB opens an isolated in-memory SQLite database with the production
// schema applied. It is closed when the test ends.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := inits.DB("sqlite", dsn, true)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

// FastHasher hashes with the minimum bcrypt cost to keep tests quick.
func FastHasher() password.Hasher {
	return password.Bcrypt{Cost: bcrypt.MinCost}
}
