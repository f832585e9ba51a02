package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/alfaphoenix/notio/internal/auth"
	"github.com/alfaphoenix/notio/internal/errs"
	"github.com/alfaphoenix/notio/internal/models"
	"github.com/alfaphoenix/notio/internal/notes"
	"github.com/alfaphoenix/notio/internal/store"
)

// ErrMissingToken is returned by Start when no bot token is configured.
var ErrMissingToken = errors.New("BOT_TOKEN is not set")

// TelegramBot serves notes over Telegram chat commands.
type TelegramBot struct {
	token string
	notes *notes.Service
	users *auth.Directory
	store *store.Store
	log   zerolog.Logger
}

// NewTelegramBot creates a bot working on the same services as the API.
func NewTelegramBot(token string, svc *notes.Service, users *auth.Directory, st *store.Store, log zerolog.Logger) *TelegramBot {
	return &TelegramBot{token: token, notes: svc, users: users, store: st, log: log}
}

// Start polls for updates until ctx is done.
func (b *TelegramBot) Start(ctx context.Context) error {
	if b.token == "" {
		return ErrMissingToken
	}

	api, err := tgbotapi.NewBotAPI(b.token)
	if err != nil {
		return err
	}
	api.Debug = false
	b.log.Info().Str("account", api.Self.UserName).Msg("telegram bot authorized")

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30
	updates := api.GetUpdatesChan(updateConfig)
	defer api.StopReceivingUpdates()

	for {
		select {
		case update := <-updates:
			if update.Message == nil || update.Message.From == nil {
				continue
			}
			reply := b.handleMessage(ctx, update.Message.From.ID, strings.TrimSpace(update.Message.Text))
			if _, err := api.Send(tgbotapi.NewMessage(update.Message.Chat.ID, reply)); err != nil {
				b.log.Warn().Err(err).Int64("chat_id", update.Message.Chat.ID).Msg("send telegram message")
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// handleMessage routes one chat command and returns the reply.
func (b *TelegramBot) handleMessage(ctx context.Context, telegramID int64, text string) string {
	if text == "" {
		return "Send a command. Use /help to see them all."
	}
	fields := strings.Fields(text)
	command := fields[0]

	switch command {
	case "/start":
		return startMessage()
	case "/help":
		return helpMessage()
	case "/login":
		return b.handleLogin(ctx, telegramID, fields)
	default:
		return b.handleAuthorized(ctx, telegramID, command, text, fields)
	}
}

// handleLogin links the chat user to the account with the given credentials.
func (b *TelegramBot) handleLogin(ctx context.Context, telegramID int64, fields []string) string {
	if len(fields) < 3 {
		return "Usage: /login <username> <password>"
	}
	user, err := b.users.Authenticate(ctx, fields[1], fields[2])
	if err != nil {
		return b.failure(err)
	}
	if err := b.store.LinkTelegram(ctx, telegramID, user.ID); err != nil {
		return b.failure(err)
	}
	return fmt.Sprintf("Logged in as %s.", user.Username)
}

// handleAuthorized runs the commands that need a linked account.
func (b *TelegramBot) handleAuthorized(ctx context.Context, telegramID int64, command, text string, fields []string) string {
	user, err := b.store.TelegramUser(ctx, telegramID)
	if errors.Is(err, store.ErrNotFound) {
		return "Log in first: /login <username> <password>"
	}
	if err != nil {
		return b.failure(err)
	}
	actor := models.IdentityOf(user)

	switch command {
	case "/add":
		return b.handleAdd(ctx, actor, strings.TrimSpace(strings.TrimPrefix(text, command)))
	case "/list":
		list, err := b.notes.ListOwn(ctx, actor)
		if err != nil {
			return b.failure(err)
		}
		if len(list) == 0 {
			return "You have no notes yet. Add one with /add."
		}
		return formatNotes(list)
	case "/shared":
		grants, err := b.notes.ListSharedWithMe(ctx, actor)
		if err != nil {
			return b.failure(err)
		}
		if len(grants) == 0 {
			return "Nothing is shared with you."
		}
		return formatShared(grants)
	case "/share":
		if len(fields) < 4 {
			return "Usage: /share <note_id> <email> <view|edit>"
		}
		id, ok := parseID(fields[1])
		if !ok {
			return "Note id must be a positive number."
		}
		grant, err := b.notes.Share(ctx, actor, notes.ShareParams{NoteID: id, Email: fields[2], Permission: fields[3]})
		if err != nil {
			return b.failure(err)
		}
		return fmt.Sprintf("Note #%d shared with %s (%s).", id, grant.SharedUser.Email, grant.Permission)
	case "/unshare":
		if len(fields) < 3 {
			return "Usage: /unshare <note_id> <email>"
		}
		id, ok := parseID(fields[1])
		if !ok {
			return "Note id must be a positive number."
		}
		if err := b.notes.Unshare(ctx, actor, id, fields[2]); err != nil {
			return b.failure(err)
		}
		return fmt.Sprintf("Note #%d is no longer shared with %s.", id, fields[2])
	case "/delete":
		if len(fields) < 2 {
			return "Usage: /delete <note_id>"
		}
		id, ok := parseID(fields[1])
		if !ok {
			return "Note id must be a positive number."
		}
		if err := b.notes.DeleteOwn(ctx, actor, id); err != nil {
			return b.failure(err)
		}
		return fmt.Sprintf("Note #%d deleted.", id)
	default:
		return "Unknown command. Use /help."
	}
}

// handleAdd creates a note from "title | content #tag ...". Trailing words
// starting with # become tags.
func (b *TelegramBot) handleAdd(ctx context.Context, actor models.Identity, payload string) string {
	title, rest, ok := strings.Cut(payload, "|")
	if !ok {
		return "Usage: /add <title> | <content> [#tag ...]"
	}
	words := strings.Fields(rest)
	end := len(words)
	for end > 0 && strings.HasPrefix(words[end-1], "#") {
		end--
	}
	tags := make([]string, 0, len(words)-end)
	for _, word := range words[end:] {
		tags = append(tags, strings.TrimPrefix(word, "#"))
	}

	note, err := b.notes.Create(ctx, actor, notes.CreateParams{
		Title:   title,
		Content: strings.Join(words[:end], " "),
		Tags:    tags,
	})
	if err != nil {
		return b.failure(err)
	}
	return fmt.Sprintf("Note #%d saved.", note.ID)
}

// failure turns err into a reply. Client errors are shown as is; anything
// else is logged.
func (b *TelegramBot) failure(err error) string {
	for _, kind := range []error{errs.ErrInvalidInput, errs.ErrUnauthenticated, errs.ErrPermissionDenied, errs.ErrNotFound, errs.ErrConflict} {
		if errors.Is(err, kind) {
			return errs.Message(err)
		}
	}
	b.log.Error().Err(err).Msg("telegram command failed")
	return "Something went wrong. Try again later."
}

// parseID parses a positive note id.
func parseID(value string) (uint, bool) {
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// formatNotes lists notes one per line with their tags.
func formatNotes(list []models.Note) string {
	lines := make([]string, 0, len(list)+1)
	lines = append(lines, "Your notes:")
	for _, note := range list {
		lines = append(lines, noteLine(note.ID, note.Title, note.TagNames()))
	}
	return strings.Join(lines, "\n")
}

// formatShared lists shared notes with their owner and permission.
func formatShared(grants []models.ShareGrant) string {
	lines := make([]string, 0, len(grants)+1)
	lines = append(lines, "Shared with you:")
	for _, grant := range grants {
		line := noteLine(grant.Note.ID, grant.Note.Title, grant.Note.TagNames())
		lines = append(lines, fmt.Sprintf("%s from %s (%s)", line, grant.Note.Owner.Email, grant.Permission))
	}
	return strings.Join(lines, "\n")
}

// noteLine renders one note as "id. title [tags]".
func noteLine(id uint, title string, tags []string) string {
	line := fmt.Sprintf("%d. %s", id, title)
	if len(tags) > 0 {
		line += " [" + strings.Join(tags, ", ") + "]"
	}
	return line
}

// startMessage is the reply to /start.
func startMessage() string {
	return "Hi! I keep your Notio notes. Type /help for the list of commands."
}

// helpMessage lists the bot commands.
func helpMessage() string {
	return strings.Join([]string{
		"Commands:",
		"/login <username> <password> - link this chat to your account",
		"/add <title> | <content> [#tag ...] - add a note",
		"/list - your notes",
		"/shared - notes shared with you",
		"/share <note_id> <email> <view|edit> - share a note",
		"/unshare <note_id> <email> - stop sharing a note",
		"/delete <note_id> - delete a note",
		"/help - this help",
	}, "\n")
}
