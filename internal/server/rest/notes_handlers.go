package rest

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/server/services"
)

type noteResponse struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Username  string    `json:"username"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type createNoteRequest struct {
	User  string `json:"user" validate:"required"`
	Title string `json:"title" validate:"required"`
	Text  string `json:"text" validate:"required"`
}

type updateNoteRequest struct {
	ID        string `json:"id" validate:"required"`
	User      string `json:"user" validate:"required"`
	Title     string `json:"title" validate:"required"`
	Text      string `json:"text" validate:"required"`
	Completed *bool  `json:"completed" validate:"required"`
}

func (s *HTTPServer) handleListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := s.notes.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := make([]noteResponse, 0, len(notes))
	for _, n := range notes {
		resp = append(resp, noteResponse{
			ID:        n.ID,
			User:      n.UserID,
			Username:  n.Username,
			Title:     n.Title,
			Text:      n.Text,
			Completed: n.Completed,
			CreatedAt: n.CreatedAt,
			UpdatedAt: n.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req createNoteRequest
	if err := decode(w, r, &req, "All fields are required"); err != nil {
		s.writeError(w, r, err)
		return
	}

	if _, err := s.notes.Create(r.Context(), services.NoteInput{UserID: req.User, Title: req.Title, Text: req.Text}); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "New note created")
}

func (s *HTTPServer) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	var req updateNoteRequest
	if err := decode(w, r, &req, "All fields are required"); err != nil {
		s.writeError(w, r, err)
		return
	}

	note, err := s.notes.Update(r.Context(), services.NoteInput{
		ID:        req.ID,
		UserID:    req.User,
		Title:     req.Title,
		Text:      req.Text,
		Completed: *req.Completed,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, fmt.Sprintf("'%s' updated", note.Title))
}

func (s *HTTPServer) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := decode(w, r, &req, "Note ID required"); err != nil {
		s.writeError(w, r, err)
		return
	}

	note, err := s.notes.Delete(r.Context(), req.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, fmt.Sprintf("Note '%s' with ID %s deleted", note.Title, note.ID))
}
