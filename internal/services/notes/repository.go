package notes

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/TheMichaelB/notevault/internal/events"
	"github.com/TheMichaelB/notevault/internal/models"
	"github.com/TheMichaelB/notevault/internal/storage"
	"github.com/TheMichaelB/notevault/internal/vault"
)

// RecordExt is the file extension of a note record.
const RecordExt = ".vault"

// ErrInvalidNoteID reports a note id that is not a UUID.
var ErrInvalidNoteID = errors.New("invalid note id")

// LoadFailure describes one record that LoadAll could not open.
type LoadFailure struct {
	Location string
	NoteID   string
	Err      error
}

func (f LoadFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.Location, f.Err)
}

// Repository stores each user's notes as one vault record per note under
// <userID>/<noteID>.vault.
type Repository struct {
	blobs  storage.BlobStore
	vault  *vault.Store
	logger *events.Logger
}

// NewRepository creates a note repository. blobs must be the store the
// vault store writes through.
func NewRepository(blobs storage.BlobStore, store *vault.Store, logger *events.Logger) *Repository {
	return &Repository{
		blobs:  blobs,
		vault:  store,
		logger: logger.WithField("component", "note_repository"),
	}
}

// Location returns the record path of a note.
func Location(userID, noteID string) string {
	return path.Join(userID, noteID+RecordExt)
}

func checkNoteID(noteID string) error {
	if _, err := uuid.Parse(noteID); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidNoteID, noteID)
	}
	return nil
}

// SaveNote writes a single note.
func (r *Repository) SaveNote(ctx context.Context, user models.User, password string, note models.Note) error {
	if err := checkNoteID(note.ID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.vault.Save(password, note, Location(user.ID, note.ID))
}

// LoadNote reads a single note. A record whose content belongs to another
// note id is reported as tampered.
func (r *Repository) LoadNote(ctx context.Context, user models.User, password, noteID string) (models.Note, error) {
	if err := checkNoteID(noteID); err != nil {
		return models.Note{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.Note{}, err
	}

	location := Location(user.ID, noteID)
	note, err := r.vault.Load(password, location)
	if err != nil {
		return models.Note{}, err
	}
	if note.ID != noteID {
		return models.Note{}, models.NewVaultError(models.KindTampered, "load", location, nil)
	}

	return note, nil
}

// DeleteNote removes a note record.
func (r *Repository) DeleteNote(ctx context.Context, user models.User, noteID string) error {
	if err := checkNoteID(noteID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	location := Location(user.ID, noteID)
	exists, err := r.blobs.Exists(location)
	if err != nil {
		return models.NewVaultError(models.KindIO, "delete", location, err)
	}
	if !exists {
		return models.NewVaultError(models.KindIO, "delete", location, storage.ErrNotFound)
	}

	if err := r.blobs.Delete(location); err != nil {
		return models.NewVaultError(models.KindIO, "delete", location, err)
	}
	return nil
}

// NoteIDs lists the ids of the user's stored records.
func (r *Repository) NoteIDs(ctx context.Context, user models.User) ([]string, error) {
	files, err := r.blobs.ListDir(user.ID)
	if err != nil {
		return nil, models.NewVaultError(models.KindIO, "list", user.ID, err)
	}

	var ids []string
	for _, f := range files {
		if f.IsDir {
			continue
		}
		name := path.Base(f.Path)
		if !strings.HasSuffix(name, RecordExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, RecordExt))
	}

	return ids, ctx.Err()
}

// SaveAll replaces the user's stored notes with notes. Every note is written
// before records absent from notes are removed, so a failed save never
// loses a note that was stored before.
func (r *Repository) SaveAll(ctx context.Context, user models.User, password string, notes []models.Note) error {
	logger := r.logger.WithFields(map[string]interface{}{
		"user_id": user.ID,
		"count":   len(notes),
	})

	keep := make(map[string]bool, len(notes))
	for _, note := range notes {
		if err := r.SaveNote(ctx, user, password, note); err != nil {
			return fmt.Errorf("save note %s: %w", note.ID, err)
		}
		keep[note.ID] = true
	}

	ids, err := r.NoteIDs(ctx, user)
	if err != nil {
		return err
	}

	removed := 0
	for _, id := range ids {
		if keep[id] {
			continue
		}
		location := Location(user.ID, id)
		if err := r.blobs.Delete(location); err != nil {
			return models.NewVaultError(models.KindIO, "delete", location, err)
		}
		removed++
	}

	logger.WithField("removed", removed).Info("Saved notes")
	return nil
}

// LoadAll opens every record of the user. Records that fail to load are
// returned as failures and do not stop the others. Notes are ordered by
// creation time.
func (r *Repository) LoadAll(ctx context.Context, user models.User, password string) ([]models.Note, []LoadFailure, error) {
	ids, err := r.NoteIDs(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	var (
		notes    []models.Note
		failures []LoadFailure
	)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		note, err := r.LoadNote(ctx, user, password, id)
		if err != nil {
			failures = append(failures, LoadFailure{Location: Location(user.ID, id), NoteID: id, Err: err})
			continue
		}
		notes = append(notes, note)
	}

	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].CreatedAt.Before(notes[j].CreatedAt)
	})

	r.logger.WithFields(map[string]interface{}{
		"user_id":  user.ID,
		"loaded":   len(notes),
		"failures": len(failures),
	}).Debug("Loaded notes")

	return notes, failures, nil
}
