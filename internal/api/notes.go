package api

import (
	"encoding/xml"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/alfaphoenix/notio/internal/errs"
	"github.com/alfaphoenix/notio/internal/models"
	"github.com/alfaphoenix/notio/internal/notes"
)

type noteView struct {
	NoteID           uint      `json:"note_id"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	CreationDate     time.Time `json:"creation_date"`
	LastModification time.Time `json:"last_modification"`
	Tags             []string  `json:"tags"`
}

type sharedNoteView struct {
	SharedNoteID     uint      `json:"shared_note_id"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	Tags             []string  `json:"tags"`
	SharedBy         string    `json:"shared_by"`
	Permission       string    `json:"permission"`
	LastModification time.Time `json:"last_modification"`
}

type createNoteRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// noteXML is the XML form of a new note. The root element name is not
// checked.
type noteXML struct {
	Title   string   `xml:"title"`
	Content string   `xml:"content"`
	Tags    []string `xml:"tags>tag"`
}

type patchNoteRequest struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags"`
}

type shareRequest struct {
	NoteID     uint   `json:"note_id"`
	Email      string `json:"shared_user_email"`
	Permission string `json:"permission"`
}

// viewOf converts a note to its JSON form.
func viewOf(note models.Note) noteView {
	return noteView{
		NoteID:           note.ID,
		Title:            note.Title,
		Content:          note.Content,
		CreationDate:     note.CreatedAt,
		LastModification: note.UpdatedAt,
		Tags:             note.TagNames(),
	}
}

// sharedViewOf converts a grant to the JSON form of a shared note.
func sharedViewOf(grant models.ShareGrant) sharedNoteView {
	return sharedNoteView{
		SharedNoteID:     grant.Note.ID,
		Title:            grant.Note.Title,
		Content:          grant.Note.Content,
		Tags:             grant.Note.TagNames(),
		SharedBy:         grant.Note.Owner.Email,
		Permission:       string(grant.Permission),
		LastModification: grant.Note.UpdatedAt,
	}
}

// handleListNotes returns the actor's notes, newest first.
func (a *API) handleListNotes(w http.ResponseWriter, r *http.Request, actor models.Identity) {
	list, err := a.notes.ListOwn(r.Context(), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]noteView, 0, len(list))
	for _, note := range list {
		views = append(views, viewOf(note))
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": views, "count": len(views)})
}

// handleCreateNote creates a note from a JSON or XML body.
func (a *API) handleCreateNote(w http.ResponseWriter, r *http.Request, actor models.Identity) {
	params, err := decodeNote(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	note, err := a.notes.Create(r.Context(), actor, params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Note created successfully", "note_id": note.ID})
}

// decodeNote reads a new note as XML when the content type says so and as
// JSON otherwise.
func decodeNote(w http.ResponseWriter, r *http.Request) (notes.CreateParams, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if !strings.HasSuffix(mediaType, "/xml") && !strings.HasSuffix(mediaType, "+xml") {
		var payload createNoteRequest
		if err := decodeJSON(w, r, &payload); err != nil {
			return notes.CreateParams{}, err
		}
		return notes.CreateParams(payload), nil
	}

	var payload noteXML
	if err := xml.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&payload); err != nil {
		return notes.CreateParams{}, errs.Invalid("invalid XML format")
	}
	return notes.CreateParams(payload), nil
}

// handleEditNote applies a partial update to one of the actor's notes.
func (a *API) handleEditNote(w http.ResponseWriter, r *http.Request, actor models.Identity) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.notes.AuthorizeOwnEdit(r.Context(), actor, id); err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := decodePatch(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.notes.EditOwn(r.Context(), actor, id, patch); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Note updated successfully")
}

// handleDeleteNote removes one of the actor's notes.
func (a *API) handleDeleteNote(w http.ResponseWriter, r *http.Request, actor models.Identity) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.notes.DeleteOwn(r.Context(), actor, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Note deleted successfully.")
}

// handleShare grants another user access to one of the actor's notes.
func (a *API) handleShare(w http.ResponseWriter, r *http.Request, actor models.Identity) {
	var payload shareRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}
	grant, err := a.notes.Share(r.Context(), actor, notes.ShareParams(payload))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, fmt.Sprintf("Note successfully shared with %s with %s permission.",
		grant.SharedUser.Email, grant.Permission))
}

// handleUnshare withdraws a grant on one of the actor's notes.
func (a *API) handleUnshare(w http.ResponseWriter, r *http.Request, actor models.Identity) {
	var payload shareRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.notes.Unshare(r.Context(), actor, payload.NoteID, payload.Email); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, fmt.Sprintf("Note is no longer shared with %s.", strings.TrimSpace(payload.Email)))
}

// handleListShared returns the notes shared with the actor.
func (a *API) handleListShared(w http.ResponseWriter, r *http.Request, actor models.Identity) {
	grants, err := a.notes.ListSharedWithMe(r.Context(), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]sharedNoteView, 0, len(grants))
	for _, grant := range grants {
		views = append(views, sharedViewOf(grant))
	}
	writeJSON(w, http.StatusOK, map[string]any{"shared_notes": views, "count": len(views)})
}

// handleEditShared applies a partial update to a note shared with the actor.
// The grant is checked before the body is read.
func (a *API) handleEditShared(w http.ResponseWriter, r *http.Request, actor models.Identity) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.notes.AuthorizeSharedEdit(r.Context(), actor, id); err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := decodePatch(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.notes.EditShared(r.Context(), actor, id, patch); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Shared note updated successfully")
}

// decodePatch reads a partial note update from the JSON body.
func decodePatch(w http.ResponseWriter, r *http.Request) (notes.Patch, error) {
	var payload patchNoteRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		return notes.Patch{}, err
	}
	return notes.Patch(payload), nil
}
