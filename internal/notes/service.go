package notes

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/alfaphoenix/notio/internal/errs"
	"github.com/alfaphoenix/notio/internal/events"
	"github.com/alfaphoenix/notio/internal/models"
	"github.com/alfaphoenix/notio/internal/store"
)

const maxTitleLength = 255

// UserFinder resolves share targets by email.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// Service answers what a user can see and do with notes.
type Service struct {
	store  *store.Store
	users  UserFinder
	events events.Publisher
	log    zerolog.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sends note events to p.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithLogger sets the logger used for failures that do not fail a request.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a notes service on top of st. Share targets are looked
// up through users.
func NewService(st *store.Store, users UserFinder, opts ...Option) *Service {
	s := &Service{
		store:  st,
		users:  users,
		events: events.Nop{},
		log:    zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateParams holds the fields of a new note.
type CreateParams struct {
	Title   string
	Content string
	Tags    []string
}

// Patch is a partial note update. Nil fields are left unchanged; a non-nil
// Tags replaces the whole tag set.
type Patch struct {
	Title   *string
	Content *string
	Tags    *[]string
}

// ListOwn returns the actor's notes, newest first.
func (s *Service) ListOwn(ctx context.Context, actor models.Identity) ([]models.Note, error) {
	return s.store.NotesByOwner(ctx, actor.UserID)
}

// Create saves a new note owned by actor.
func (s *Service) Create(ctx context.Context, actor models.Identity, params CreateParams) (models.Note, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" || strings.TrimSpace(params.Content) == "" {
		return models.Note{}, errs.Invalid("title and content are required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return models.Note{}, errs.Invalid("title is longer than %d characters", maxTitleLength)
	}
	tags, err := NormalizeTags(params.Tags)
	if err != nil {
		return models.Note{}, err
	}

	now := s.now()
	note := models.Note{
		Title:     title,
		Content:   params.Content,
		OwnerID:   actor.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateNote(ctx, &note, tags); err != nil {
		return models.Note{}, err
	}

	s.publish(ctx, events.Event{Type: events.NoteCreated, NoteID: note.ID, ActorID: actor.UserID})
	return note, nil
}

// AuthorizeOwnEdit checks that actor owns the note with noteID.
func (s *Service) AuthorizeOwnEdit(ctx context.Context, actor models.Identity, noteID uint) error {
	if _, err := s.store.NoteByOwner(ctx, actor.UserID, noteID); err != nil {
		return notFound(err, "note not found")
	}
	return nil
}

// EditOwn applies patch to a note owned by actor. Ownership is checked
// before the patch is validated.
func (s *Service) EditOwn(ctx context.Context, actor models.Identity, noteID uint, patch Patch) error {
	update, err := s.prepare(patch)
	if err != nil {
		if authErr := s.AuthorizeOwnEdit(ctx, actor, noteID); authErr != nil {
			return authErr
		}
		return err
	}
	update.OwnerID = actor.UserID
	return s.write(ctx, actor, noteID, update, "note not found")
}

// DeleteOwn removes a note owned by actor together with its tag
// associations and share grants.
func (s *Service) DeleteOwn(ctx context.Context, actor models.Identity, noteID uint) error {
	deleted, err := s.store.DeleteNote(ctx, actor.UserID, noteID)
	if err != nil {
		return err
	}
	if !deleted {
		return errs.NotFound("note not found or not authorized to delete")
	}

	s.publish(ctx, events.Event{Type: events.NoteDeleted, NoteID: noteID, ActorID: actor.UserID})
	return nil
}

// prepare validates patch and turns it into a store update.
func (s *Service) prepare(patch Patch) (store.NotePatch, error) {
	update := store.NotePatch{ModifiedAt: s.now()}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return store.NotePatch{}, errs.Invalid("title must not be empty")
		}
		if utf8.RuneCountInString(title) > maxTitleLength {
			return store.NotePatch{}, errs.Invalid("title is longer than %d characters", maxTitleLength)
		}
		update.Title = &title
	}
	if patch.Content != nil {
		if strings.TrimSpace(*patch.Content) == "" {
			return store.NotePatch{}, errs.Invalid("content must not be empty")
		}
		update.Content = patch.Content
	}
	if patch.Tags != nil {
		tags, err := NormalizeTags(*patch.Tags)
		if err != nil {
			return store.NotePatch{}, err
		}
		update.Tags = tags
		update.ReplaceTags = true
	}
	return update, nil
}

// write stores update in one transaction that also checks the ownership or
// grant it carries.
func (s *Service) write(ctx context.Context, actor models.Identity, noteID uint, update store.NotePatch, missing string) error {
	err := s.store.UpdateNote(ctx, noteID, update)
	switch {
	case errors.Is(err, store.ErrNotEditable):
		return errDeniedEdit
	case err != nil:
		return notFound(err, missing)
	}

	s.publish(ctx, events.Event{Type: events.NoteUpdated, NoteID: noteID, ActorID: actor.UserID})
	return nil
}

// publish sends event after a committed change. Failures are logged only.
func (s *Service) publish(ctx context.Context, event events.Event) {
	event.At = s.now()
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).
			Str("event", event.Type).
			Uint("note_id", event.NoteID).
			Msg("publish note event")
	}
}

// notFound turns store.ErrNotFound into a client-facing not found error.
func notFound(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return errs.NotFound("%s", msg)
	}
	return err
}
