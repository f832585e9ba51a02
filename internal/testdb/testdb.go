// Package testdb opens isolated in-memory databases for tests.
package testdb

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/alfaphoenix/notio/internal/models"
	"github.com/alfaphoenix/notio/internal/store"
)

// counter gives every database a unique shared-cache name.
var counter atomic.Int64

// New returns a migrated store backed by a fresh sqlite memory database that
// is closed when t finishes.
func New(t testing.TB) *store.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:notio_test_%d?mode=memory&cache=shared&_foreign_keys=on", counter.Add(1))
	st, err := store.Open(store.Config{Driver: store.DriverSQLite, DSN: dsn, MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate in-memory database: %v", err)
	}
	return st
}

// User creates a user named name with email name@example.com. The password
// hash is a placeholder; use the auth package to create users that log in.
func User(t testing.TB, st *store.Store, name string) models.User {
	t.Helper()

	user := models.User{Username: name, Email: name + "@example.com", PasswordHash: "x"}
	if err := st.CreateUser(context.Background(), &user); err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	return user
}
