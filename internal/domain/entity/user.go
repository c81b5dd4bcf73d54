package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User владеет заявками; его ID служит ownerId во всех операциях.
type User struct {
	ID           uuid.UUID
	Email        string
	DisplayName  string
	PasswordHash string
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewUser(email, displayName, passwordHash string) *User {
	now := time.Now().UTC()
	email = strings.ToLower(strings.TrimSpace(email))
	if strings.TrimSpace(displayName) == "" {
		displayName = strings.Split(email, "@")[0]
	}
	return &User{
		ID:           uuid.New(),
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (u *User) MarkLoggedIn() {
	now := time.Now().UTC()
	u.LastLoginAt = &now
}
