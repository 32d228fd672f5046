package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleYoung    Role = "young"
	RoleProvider Role = "provider"
)

func (r Role) Valid() bool {
	return r == RoleYoung || r == RoleProvider
}

// DefaultLocation is assigned at registration when none is given.
const DefaultLocation = "Lomé, Togo"

// DefaultBio returns the bio a freshly registered account starts with.
func DefaultBio(role Role) string {
	if role == RoleProvider {
		return "Porteur de projet utilisant YŌVO HUB"
	}
	return "Jeune talent passionné utilisant YŌVO HUB"
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Photo        *string   `json:"-"` // object key in storage
	PhotoURL     string    `json:"photo_url,omitempty"`
	Bio          string    `json:"bio"`
	Location     string    `json:"location"`
	Phone        *string   `json:"phone,omitempty"`
	WhatsApp     *string   `json:"whatsapp,omitempty"`
	Skills       []string  `json:"skills"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Bio          string
	Location     string
	Phone        *string
	WhatsApp     *string
	Skills       []string
}

// UpdateProfileParams carries a partial update; nil fields are left unchanged.
type UpdateProfileParams struct {
	Name     *string
	Bio      *string
	Location *string
	Phone    *string
	WhatsApp *string
	Skills   []string
}

type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}
