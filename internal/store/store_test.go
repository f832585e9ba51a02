package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alfaphoenix/notio/internal/models"
	"github.com/alfaphoenix/notio/internal/store"
	"github.com/alfaphoenix/notio/internal/testdb"
)

func TestOpenRejectsMissingDSNAndUnknownDriver(t *testing.T) {
	if _, err := store.Open(store.Config{Driver: store.DriverPostgres}); err == nil {
		t.Fatal("expected error for empty DSN")
	}
	if _, err := store.Open(store.Config{Driver: "oracle", DSN: "x"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestEnsureTagsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := testdb.New(t)

	first, err := st.EnsureTags(ctx, []string{"go", "Go", "db"})
	if err != nil {
		t.Fatalf("EnsureTags: %v", err)
	}
	second, err := st.EnsureTags(ctx, []string{"db", "go", "Go"})
	if err != nil {
		t.Fatalf("EnsureTags again: %v", err)
	}
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("expected 3 tags twice, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("tag %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}

	all, err := st.Tags(ctx)
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 stored tags, got %d", len(all))
	}
}

func TestEnsureTagsConcurrentSameName(t *testing.T) {
	ctx := context.Background()
	st := testdb.New(t)

	var wg sync.WaitGroup
	errCh := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := st.EnsureTags(ctx, []string{"race"}); err != nil {
				errCh <- err
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("EnsureTags: %v", err)
	}

	all, err := st.Tags(ctx)
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	if len(all) != 1 || all[0].Name != "race" {
		t.Fatalf("expected one tag named race, got %+v", all)
	}
}

func TestUpsertShareKeepsSingleGrant(t *testing.T) {
	ctx := context.Background()
	st := testdb.New(t)
	alice := testdb.User(t, st, "alice")
	bob := testdb.User(t, st, "bob")

	note := models.Note{Title: "A", Content: "B", OwnerID: alice.ID}
	if err := st.CreateNote(ctx, &note, nil); err != nil {
		t.Fatalf("CreateNote: %v", err)
	}

	first := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	grant := models.ShareGrant{NoteID: note.ID, SharedUserID: bob.ID, Permission: models.PermissionView, SharedAt: first}
	if err := st.UpsertShare(ctx, &grant); err != nil {
		t.Fatalf("UpsertShare: %v", err)
	}

	later := first.Add(time.Hour)
	regrant := models.ShareGrant{NoteID: note.ID, SharedUserID: bob.ID, Permission: models.PermissionEdit, SharedAt: later}
	if err := st.UpsertShare(ctx, &regrant); err != nil {
		t.Fatalf("UpsertShare again: %v", err)
	}

	grants, err := st.SharesForNote(ctx, note.ID)
	if err != nil {
		t.Fatalf("SharesForNote: %v", err)
	}
	if len(grants) != 1 {
		t.Fatalf("expected one grant, got %d", len(grants))
	}
	if grants[0].Permission != models.PermissionEdit {
		t.Fatalf("expected edit permission, got %s", grants[0].Permission)
	}
	if !grants[0].SharedAt.Equal(later) {
		t.Fatalf("expected sharing time %v, got %v", later, grants[0].SharedAt)
	}
	if regrant.ID != grant.ID {
		t.Fatalf("expected regrant to reuse grant %d, got %d", grant.ID, regrant.ID)
	}
}

func TestDeleteNoteCascades(t *testing.T) {
	ctx := context.Background()
	st := testdb.New(t)
	alice := testdb.User(t, st, "alice")
	bob := testdb.User(t, st, "bob")

	note := models.Note{Title: "A", Content: "B", OwnerID: alice.ID}
	if err := st.CreateNote(ctx, &note, []string{"one", "two"}); err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	grant := models.ShareGrant{NoteID: note.ID, SharedUserID: bob.ID, Permission: models.PermissionView, SharedAt: time.Now()}
	if err := st.UpsertShare(ctx, &grant); err != nil {
		t.Fatalf("UpsertShare: %v", err)
	}

	deleted, err := st.DeleteNote(ctx, bob.ID, note.ID)
	if err != nil || deleted {
		t.Fatalf("non-owner delete: deleted=%v err=%v", deleted, err)
	}

	deleted, err = st.DeleteNote(ctx, alice.ID, note.ID)
	if err != nil || !deleted {
		t.Fatalf("owner delete: deleted=%v err=%v", deleted, err)
	}

	if _, err := st.Note(ctx, note.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	grants, err := st.SharesForNote(ctx, note.ID)
	if err != nil || len(grants) != 0 {
		t.Fatalf("expected no grants, got %d (%v)", len(grants), err)
	}
	count, err := st.NoteTagCount(ctx, note.ID)
	if err != nil || count != 0 {
		t.Fatalf("expected no tag associations, got %d (%v)", count, err)
	}
	tags, err := st.Tags(ctx)
	if err != nil || len(tags) != 2 {
		t.Fatalf("expected orphan tags to persist, got %d (%v)", len(tags), err)
	}
}

func TestUpdateNoteReplacesTagsAndKeepsOwner(t *testing.T) {
	ctx := context.Background()
	st := testdb.New(t)
	alice := testdb.User(t, st, "alice")

	note := models.Note{Title: "A", Content: "B", OwnerID: alice.ID}
	if err := st.CreateNote(ctx, &note, []string{"old"}); err != nil {
		t.Fatalf("CreateNote: %v", err)
	}

	title := "A2"
	modified := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	err := st.UpdateNote(ctx, note.ID, store.NotePatch{
		Title:       &title,
		Tags:        []string{"new", "newer"},
		ReplaceTags: true,
		ModifiedAt:  modified,
	})
	if err != nil {
		t.Fatalf("UpdateNote: %v", err)
	}

	got, err := st.Note(ctx, note.ID)
	if err != nil {
		t.Fatalf("Note: %v", err)
	}
	if got.Title != "A2" || got.Content != "B" || got.OwnerID != alice.ID {
		t.Fatalf("unexpected note after update: %+v", got)
	}
	if !got.UpdatedAt.Equal(modified) {
		t.Fatalf("expected modification time %v, got %v", modified, got.UpdatedAt)
	}
	names := got.TagNames()
	if len(names) != 2 || names[0] != "new" || names[1] != "newer" {
		t.Fatalf("unexpected tags %v", names)
	}

	if err := st.UpdateNote(ctx, 9999, store.NotePatch{ModifiedAt: modified}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing note, got %v", err)
	}
}

func TestUpdateNoteReplacesTagsTwice(t *testing.T) {
	ctx := context.Background()
	st := testdb.New(t)
	alice := testdb.User(t, st, "alice")

	note := models.Note{Title: "A", Content: "B", OwnerID: alice.ID}
	if err := st.CreateNote(ctx, &note, []string{"a", "b"}); err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	for _, tags := range [][]string{{"b", "c"}, {"c"}, {}} {
		err := st.UpdateNote(ctx, note.ID, store.NotePatch{Tags: tags, ReplaceTags: true, ModifiedAt: time.Now()})
		if err != nil {
			t.Fatalf("UpdateNote(%v): %v", tags, err)
		}
		count, err := st.NoteTagCount(ctx, note.ID)
		if err != nil {
			t.Fatalf("NoteTagCount: %v", err)
		}
		if count != int64(len(tags)) {
			t.Fatalf("tags %v: expected %d associations, got %d", tags, len(tags), count)
		}
	}
}

func TestUpdateNoteChecksOwnerAndGrant(t *testing.T) {
	ctx := context.Background()
	st := testdb.New(t)
	alice := testdb.User(t, st, "alice")
	bob := testdb.User(t, st, "bob")

	note := models.Note{Title: "A", Content: "B", OwnerID: alice.ID}
	if err := st.CreateNote(ctx, &note, nil); err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	content := "changed"
	patch := func(owner, editor uint) store.NotePatch {
		return store.NotePatch{Content: &content, ModifiedAt: time.Now(), OwnerID: owner, EditorID: editor}
	}

	if err := st.UpdateNote(ctx, note.ID, patch(bob.ID, 0)); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("non-owner: expected ErrNotFound, got %v", err)
	}
	if err := st.UpdateNote(ctx, note.ID, patch(0, bob.ID)); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("no grant: expected ErrNotFound, got %v", err)
	}

	grant := models.ShareGrant{NoteID: note.ID, SharedUserID: bob.ID, Permission: models.PermissionView, SharedAt: time.Now()}
	if err := st.UpsertShare(ctx, &grant); err != nil {
		t.Fatalf("UpsertShare: %v", err)
	}
	if err := st.UpdateNote(ctx, note.ID, patch(0, bob.ID)); !errors.Is(err, store.ErrNotEditable) {
		t.Fatalf("view grant: expected ErrNotEditable, got %v", err)
	}
	got, err := st.Note(ctx, note.ID)
	if err != nil {
		t.Fatalf("Note: %v", err)
	}
	if got.Content != "B" {
		t.Fatalf("rejected edit changed content to %q", got.Content)
	}

	upgrade := models.ShareGrant{NoteID: note.ID, SharedUserID: bob.ID, Permission: models.PermissionEdit, SharedAt: time.Now()}
	if err := st.UpsertShare(ctx, &upgrade); err != nil {
		t.Fatalf("UpsertShare: %v", err)
	}
	if err := st.UpdateNote(ctx, note.ID, patch(0, bob.ID)); err != nil {
		t.Fatalf("edit grant: %v", err)
	}
	if err := st.UpdateNote(ctx, note.ID, patch(alice.ID, 0)); err != nil {
		t.Fatalf("owner: %v", err)
	}
}

func TestCreateUserConflict(t *testing.T) {
	ctx := context.Background()
	st := testdb.New(t)
	testdb.User(t, st, "alice")

	dup := models.User{Username: "alice", Email: "other@example.com", PasswordHash: "x"}
	if err := st.CreateUser(ctx, &dup); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if _, err := st.UserByEmail(ctx, "nobody@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionsAndTelegramLinks(t *testing.T) {
	ctx := context.Background()
	st := testdb.New(t)
	alice := testdb.User(t, st, "alice")
	bob := testdb.User(t, st, "bob")

	now := time.Now()
	session := models.Session{UserID: alice.ID, Token: "tok", StartedAt: now, ExpiresAt: now.Add(time.Hour)}
	if err := st.CreateSession(ctx, &session); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	got, err := st.SessionByToken(ctx, "tok")
	if err != nil || got.User.Username != "alice" || !got.Active(now) {
		t.Fatalf("SessionByToken: %+v %v", got, err)
	}
	ended, err := st.EndSession(ctx, "tok", now)
	if err != nil || !ended {
		t.Fatalf("EndSession: %v %v", ended, err)
	}
	if ended, _ := st.EndSession(ctx, "tok", now); ended {
		t.Fatal("expected second EndSession to report false")
	}

	if err := st.LinkTelegram(ctx, 42, alice.ID); err != nil {
		t.Fatalf("LinkTelegram: %v", err)
	}
	if err := st.LinkTelegram(ctx, 42, bob.ID); err != nil {
		t.Fatalf("LinkTelegram relink: %v", err)
	}
	user, err := st.TelegramUser(ctx, 42)
	if err != nil || user.ID != bob.ID {
		t.Fatalf("TelegramUser: %+v %v", user, err)
	}
}
