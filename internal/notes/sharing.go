package notes

import (
	"context"
	"strings"

	"github.com/alfaphoenix/notio/internal/errs"
	"github.com/alfaphoenix/notio/internal/events"
	"github.com/alfaphoenix/notio/internal/models"
)

// errDeniedEdit is returned when a grant only allows viewing.
var errDeniedEdit = errs.Denied("you do not have permission to edit this note")

// ShareParams names the note, the target user and the granted level.
type ShareParams struct {
	NoteID     uint
	Email      string
	Permission string
}

// Share grants the user registered with params.Email access to a note owned
// by actor. Sharing the same pair again overwrites permission and time.
func (s *Service) Share(ctx context.Context, actor models.Identity, params ShareParams) (models.ShareGrant, error) {
	email := strings.TrimSpace(params.Email)
	if params.NoteID == 0 || email == "" || params.Permission == "" {
		return models.ShareGrant{}, errs.Invalid("note_id, shared_user_email, and permission are required")
	}
	permission, ok := models.ParsePermission(params.Permission)
	if !ok {
		return models.ShareGrant{}, errs.Invalid("invalid permission type")
	}

	target, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return models.ShareGrant{}, err
	}
	note, err := s.store.NoteByOwner(ctx, actor.UserID, params.NoteID)
	if err != nil {
		return models.ShareGrant{}, notFound(err, "note not found")
	}

	grant := models.ShareGrant{
		NoteID:       note.ID,
		SharedUserID: target.ID,
		Permission:   permission,
		SharedAt:     s.now(),
	}
	if err := s.store.UpsertShare(ctx, &grant); err != nil {
		return models.ShareGrant{}, err
	}
	grant.Note = note
	grant.SharedUser = target

	s.publish(ctx, events.Event{
		Type:       events.NoteShared,
		NoteID:     note.ID,
		ActorID:    actor.UserID,
		TargetID:   target.ID,
		Permission: string(permission),
	})
	return grant, nil
}

// Unshare removes the grant of a note owned by actor to the user registered
// with email.
func (s *Service) Unshare(ctx context.Context, actor models.Identity, noteID uint, email string) error {
	email = strings.TrimSpace(email)
	if noteID == 0 || email == "" {
		return errs.Invalid("note_id and shared_user_email are required")
	}

	target, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if _, err := s.store.NoteByOwner(ctx, actor.UserID, noteID); err != nil {
		return notFound(err, "note not found")
	}
	deleted, err := s.store.DeleteShare(ctx, noteID, target.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return errs.NotFound("note is not shared with %s", email)
	}

	s.publish(ctx, events.Event{Type: events.NoteUnshared, NoteID: noteID, ActorID: actor.UserID, TargetID: target.ID})
	return nil
}

// ListSharedWithMe returns every grant targeting actor, with the note, its
// tags and its owner loaded.
func (s *Service) ListSharedWithMe(ctx context.Context, actor models.Identity) ([]models.ShareGrant, error) {
	return s.store.SharesForUser(ctx, actor.UserID)
}

// AuthorizeSharedEdit checks that actor holds an edit grant on noteID.
func (s *Service) AuthorizeSharedEdit(ctx context.Context, actor models.Identity, noteID uint) error {
	grant, err := s.store.Share(ctx, noteID, actor.UserID)
	if err != nil {
		return notFound(err, "shared note not found")
	}
	if !grant.Permission.CanEdit() {
		return errDeniedEdit
	}
	return nil
}

// EditShared applies patch to a note shared with actor under edit
// permission. The grant is checked before the patch is validated and again
// inside the write transaction. The note's owner is left unchanged.
func (s *Service) EditShared(ctx context.Context, actor models.Identity, noteID uint, patch Patch) error {
	update, err := s.prepare(patch)
	if err != nil {
		if authErr := s.AuthorizeSharedEdit(ctx, actor, noteID); authErr != nil {
			return authErr
		}
		return err
	}
	update.EditorID = actor.UserID
	return s.write(ctx, actor, noteID, update, "shared note not found")
}
