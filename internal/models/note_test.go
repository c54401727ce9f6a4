package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/notevault/internal/models"
)

func TestNewNote(t *testing.T) {
	note := models.NewNote("Secret content", "This should be encrypted")

	assert.NotEmpty(t, note.ID)
	assert.Equal(t, "Secret content", note.Title)
	assert.Equal(t, "This should be encrypted", note.Content)
	assert.False(t, note.CreatedAt.IsZero())
	assert.Equal(t, note.CreatedAt, note.UpdatedAt)
	assert.NoError(t, note.Validate())

	other := models.NewNote("Secret content", "This should be encrypted")
	assert.NotEqual(t, note.ID, other.ID)
}

func TestNoteWithersCopy(t *testing.T) {
	original := models.NewNote("Title", "Body")
	time.Sleep(time.Millisecond)

	renamed := original.WithTitle("New title")
	assert.Equal(t, "Title", original.Title)
	assert.Equal(t, "New title", renamed.Title)
	assert.Equal(t, original.ID, renamed.ID)
	assert.True(t, renamed.UpdatedAt.After(original.UpdatedAt))

	edited := original.WithContent("New body")
	assert.Equal(t, "Body", original.Content)
	assert.Equal(t, "New body", edited.Content)
	assert.Equal(t, original.CreatedAt, edited.CreatedAt)
}

func TestNoteValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(n models.Note) models.Note
		wantErr string
	}{
		{
			name:   "valid",
			modify: func(n models.Note) models.Note { return n },
		},
		{
			name:    "missing id",
			modify:  func(n models.Note) models.Note { n.ID = ""; return n },
			wantErr: "note ID is required",
		},
		{
			name:    "non uuid id",
			modify:  func(n models.Note) models.Note { n.ID = "not-a-uuid"; return n },
			wantErr: "note ID must be a UUID",
		},
		{
			name:    "missing created_at",
			modify:  func(n models.Note) models.Note { n.CreatedAt = time.Time{}; return n },
			wantErr: "created_at timestamp is required",
		},
		{
			name: "updated before created",
			modify: func(n models.Note) models.Note {
				n.UpdatedAt = n.CreatedAt.Add(-time.Hour)
				return n
			},
			wantErr: "updated_at cannot be before created_at",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.modify(models.NewNote("t", "c")).Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNoteJSONKeepsTimestamps(t *testing.T) {
	note := models.NewNote("Title", "Body")

	data, err := json.Marshal(note)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"created_at"`)

	var decoded models.Note
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, note.CreatedAt.Equal(decoded.CreatedAt))
	assert.True(t, note.UpdatedAt.Equal(decoded.UpdatedAt))
	assert.Equal(t, note.ID, decoded.ID)
}
