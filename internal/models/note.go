package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Note is a single private note. It is a value type: the With* methods
// return modified copies and never change the receiver.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewNote creates a note with a fresh UUID.
func NewNote(title, content string) Note {
	now := time.Now().UTC()
	return Note{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// WithTitle returns a copy with the title replaced.
func (n Note) WithTitle(title string) Note {
	n.Title = title
	n.UpdatedAt = time.Now().UTC()
	return n
}

// WithContent returns a copy with the content replaced.
func (n Note) WithContent(content string) Note {
	n.Content = content
	n.UpdatedAt = time.Now().UTC()
	return n
}

// Validate checks the note structure.
func (n Note) Validate() error {
	if strings.TrimSpace(n.ID) == "" {
		return fmt.Errorf("note ID is required")
	}

	if _, err := uuid.Parse(n.ID); err != nil {
		return fmt.Errorf("note ID must be a UUID: %w", err)
	}

	if n.CreatedAt.IsZero() {
		return fmt.Errorf("created_at timestamp is required")
	}

	if n.UpdatedAt.Before(n.CreatedAt) {
		return fmt.Errorf("updated_at cannot be before created_at")
	}

	return nil
}

func (n Note) String() string {
	return fmt.Sprintf("Note{id=%q, title=%q, createdAt=%s, updatedAt=%s}",
		n.ID, n.Title, n.CreatedAt.Format(time.RFC3339), n.UpdatedAt.Format(time.RFC3339))
}
