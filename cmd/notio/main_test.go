package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestMigrateAndAddUser(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", filepath.Join(t.TempDir(), "notio.db"))
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("LOG_LEVEL", "error")

	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}

	out, err := run("migrate")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, "schema is up to date") {
		t.Fatalf("unexpected migrate output %q", out)
	}

	out, err = run("user", "add", "--username", "alice", "--email", "alice@x.com", "--password", "pw")
	if err != nil {
		t.Fatalf("user add: %v", err)
	}
	if !strings.Contains(out, "user alice created with id 1") {
		t.Fatalf("unexpected user add output %q", out)
	}

	if _, err := run("user", "add", "--username", "alice", "--email", "other@x.com", "--password", "pw"); err == nil {
		t.Fatal("expected duplicate username to fail")
	}
	if _, err := run("user", "add", "--username", "bob"); err == nil {
		t.Fatal("expected missing flags to fail")
	}
}
