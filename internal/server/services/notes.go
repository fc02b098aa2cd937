package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/dbx"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/repomanager"
)

// NoteInput is the payload for NoteService.Create and NoteService.Update.
// ID and Completed are ignored by Create.
type NoteInput struct {
	ID        string
	UserID    string
	Title     string
	Text      string
	Completed bool
}

// NoteService manages notes.
type NoteService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewNoteService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *NoteService {
	return &NoteService{db: db, repomanager: m, logger: logger}
}

// List returns every note with its owner's username.
func (s *NoteService) List(ctx context.Context) ([]*models.Note, error) {
	notes, err := s.repomanager.Notes(s.db).List(ctx)
	if err != nil {
		s.logger.Error(ctx, "error listing notes", "error", err)
		return nil, common.ErrorInternal
	}
	if len(notes) == 0 {
		return nil, common.NewValidationError("No notes found")
	}
	return notes, nil
}

// Create assigns a new note to an existing user.
func (s *NoteService) Create(ctx context.Context, in NoteInput) (*models.Note, error) {
	if in.UserID == "" || in.Title == "" || in.Text == "" {
		return nil, common.NewValidationError("All fields are required")
	}

	var created *models.Note
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Users(tx).GetByID(ctx, in.UserID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.NewValidationError("User not found")
			}
			return err
		}
		n, err := s.repomanager.Notes(tx).Create(ctx, &models.Note{UserID: in.UserID, Title: in.Title, Text: in.Text})
		if err != nil {
			return err
		}
		created = n
		return nil
	})
	if err != nil {
		return nil, s.mapWriteError(ctx, "error creating note", "User not found", err)
	}

	s.logger.Info(ctx, "note created", "id", created.ID, "user_id", created.UserID)
	return created, nil
}

// Update rewrites an existing note.
func (s *NoteService) Update(ctx context.Context, in NoteInput) (*models.Note, error) {
	if in.ID == "" || in.UserID == "" || in.Title == "" || in.Text == "" {
		return nil, common.NewValidationError("All fields are required")
	}

	note := &models.Note{ID: in.ID, UserID: in.UserID, Title: in.Title, Text: in.Text, Completed: in.Completed}
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Notes(tx).GetByID(ctx, in.ID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.NewValidationError("Note not found")
			}
			return err
		}
		if _, err := s.repomanager.Users(tx).GetByID(ctx, in.UserID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.NewValidationError("User not found")
			}
			return err
		}
		return s.repomanager.Notes(tx).Update(ctx, note)
	})
	if err != nil {
		return nil, s.mapWriteError(ctx, "error updating note", "Note not found", err)
	}
	return note, nil
}

// Delete removes a note and returns what was deleted.
func (s *NoteService) Delete(ctx context.Context, id string) (*models.Note, error) {
	if id == "" {
		return nil, common.NewValidationError("Note ID required")
	}

	title, err := s.repomanager.Notes(s.db).Delete(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewValidationError("Note not found")
		}
		s.logger.Error(ctx, "error deleting note", "error", err)
		return nil, common.ErrorInternal
	}
	return &models.Note{ID: id, Title: title}, nil
}

func (s *NoteService) mapWriteError(ctx context.Context, msg, notFound string, err error) error {
	var ve *common.ValidationError
	switch {
	case errors.As(err, &ve):
		return ve
	case errors.Is(err, common.ErrorAlreadyExist):
		return common.NewConflictError("Duplicate note title")
	case errors.Is(err, common.ErrorNotFound):
		return common.NewValidationError(notFound)
	}
	s.logger.Error(ctx, msg, "error", err)
	return common.ErrorInternal
}
