// Package notes manages a user's collection of encrypted notes.
package notes

import (
	"context"
	"errors"
	"fmt"

	"github.com/TheMichaelB/notevault/internal/events"
	"github.com/TheMichaelB/notevault/internal/models"
)

// Authenticator resolves a username and password to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (models.User, error)
}

// Service authenticates the caller before touching their notes. The same
// password unlocks the account and keys the records.
type Service struct {
	users  Authenticator
	repo   *Repository
	logger *events.Logger
}

// NewService creates a notes service.
func NewService(users Authenticator, repo *Repository, logger *events.Logger) *Service {
	return &Service{
		users:  users,
		repo:   repo,
		logger: logger.WithField("service", "notes"),
	}
}

func (s *Service) login(ctx context.Context, username, password string) (models.User, error) {
	user, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		return models.User{}, fmt.Errorf("authenticate: %w", err)
	}
	return user, nil
}

// AddNote creates and stores a new note.
func (s *Service) AddNote(ctx context.Context, username, password, title, content string) (models.Note, error) {
	user, err := s.login(ctx, username, password)
	if err != nil {
		return models.Note{}, err
	}

	note := models.NewNote(title, content)
	if err := s.repo.SaveNote(ctx, user, password, note); err != nil {
		return models.Note{}, fmt.Errorf("add note: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": user.ID,
		"note_id": note.ID,
	}).Info("Note added")

	return note, nil
}

// EditNote replaces the title and content of an existing note.
func (s *Service) EditNote(ctx context.Context, username, password, noteID, title, content string) (models.Note, error) {
	user, err := s.login(ctx, username, password)
	if err != nil {
		return models.Note{}, err
	}

	note, err := s.repo.LoadNote(ctx, user, password, noteID)
	if err != nil {
		return models.Note{}, fmt.Errorf("load note: %w", err)
	}

	note = note.WithTitle(title).WithContent(content)
	if err := s.repo.SaveNote(ctx, user, password, note); err != nil {
		return models.Note{}, fmt.Errorf("save note: %w", err)
	}

	return note, nil
}

// ListNotes returns every readable note and the records that failed.
func (s *Service) ListNotes(ctx context.Context, username, password string) ([]models.Note, []LoadFailure, error) {
	user, err := s.login(ctx, username, password)
	if err != nil {
		return nil, nil, err
	}

	notes, failures, err := s.repo.LoadAll(ctx, user, password)
	if err != nil {
		return nil, nil, fmt.Errorf("list notes: %w", err)
	}

	for _, f := range failures {
		s.logger.WithFields(map[string]interface{}{
			"user_id":  user.ID,
			"location": f.Location,
			"kind":     models.KindOf(f.Err).Code(),
		}).Warn("Skipped unreadable note")
	}

	return notes, failures, nil
}

// ShowNote returns a single note.
func (s *Service) ShowNote(ctx context.Context, username, password, noteID string) (models.Note, error) {
	user, err := s.login(ctx, username, password)
	if err != nil {
		return models.Note{}, err
	}

	return s.repo.LoadNote(ctx, user, password, noteID)
}

// RemoveNote deletes a single note.
func (s *Service) RemoveNote(ctx context.Context, username, password, noteID string) error {
	user, err := s.login(ctx, username, password)
	if err != nil {
		return err
	}

	return s.repo.DeleteNote(ctx, user, noteID)
}

// PasswordUpdater stores a new verifier for an existing user.
type PasswordUpdater interface {
	Upsert(ctx context.Context, user models.User, password string) error
}

// ErrUnreadableNotes stops a password change that would drop notes.
var ErrUnreadableNotes = errors.New("some notes could not be read")

// ChangePassword re-encrypts every note under newPassword and then replaces
// the account verifier. It refuses to run when any record fails to load,
// since those records could never be opened again. When either step fails
// the notes are written back under oldPassword.
func (s *Service) ChangePassword(ctx context.Context, updater PasswordUpdater, username, oldPassword, newPassword string) error {
	user, err := s.login(ctx, username, oldPassword)
	if err != nil {
		return err
	}

	all, failures, err := s.repo.LoadAll(ctx, user, oldPassword)
	if err != nil {
		return fmt.Errorf("load notes: %w", err)
	}
	if len(failures) > 0 {
		return fmt.Errorf("%w: %d record(s), first: %v", ErrUnreadableNotes, len(failures), failures[0])
	}

	if err := s.repo.SaveAll(ctx, user, newPassword, all); err != nil {
		return s.restore(ctx, user, oldPassword, all, fmt.Errorf("re-encrypt notes: %w", err))
	}
	if err := updater.Upsert(ctx, user, newPassword); err != nil {
		return s.restore(ctx, user, oldPassword, all, fmt.Errorf("update password: %w", err))
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": user.ID,
		"notes":   len(all),
	}).Info("Password changed")

	return nil
}

// restore writes notes back under the password the account still accepts.
func (s *Service) restore(ctx context.Context, user models.User, password string, all []models.Note, cause error) error {
	logger := s.logger.WithField("user_id", user.ID).WithError(cause)
	if err := s.repo.SaveAll(context.WithoutCancel(ctx), user, password, all); err != nil {
		logger.WithField("restore_error", err.Error()).Error("Failed to restore notes after password change")
		return errors.Join(cause, fmt.Errorf("restore notes: %w", err))
	}
	logger.Warn("Password change rolled back")
	return cause
}
