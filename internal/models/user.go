package models

import (
	"fmt"
	"strings"
	"time"
)

// User identifies the owner of a set of notes. Passwords never live on
// this struct; they are passed per call.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate validates the user structure.
func (u *User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("user ID is required")
	}

	if strings.TrimSpace(u.Username) == "" {
		return fmt.Errorf("username is required")
	}

	return nil
}

func (u User) String() string {
	return fmt.Sprintf("User{id=%q, username=%q}", u.ID, u.Username)
}
