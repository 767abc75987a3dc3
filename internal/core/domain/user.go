package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	RoleStudent = "STUDENT"
	RoleSeller  = "SELLER"
	RoleAdmin   = "ADMIN"
)

// User is a marketplace account.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasRole reports whether the user holds role (case-insensitive).
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}
