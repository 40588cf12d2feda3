package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleDoctor       Role = "doctor"
	RoleReceptionist Role = "receptionist"
)

// Valid reports whether r is one of the two staff roles.
func (r Role) Valid() bool {
	return r == RoleDoctor || r == RoleReceptionist
}

// User is a staff member: a doctor or a front-desk receptionist.
type User struct {
	ID             uuid.UUID `db:"id" json:"id"`
	Role           Role      `db:"role" json:"role"`
	Name           string    `db:"name" json:"name"`
	Email          string    `db:"email" json:"email"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	Specialization *string   `db:"specialization" json:"specialization,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

type SignupRequest struct {
	Role           string `json:"role" binding:"required,oneof=doctor receptionist"`
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=6"`
	Specialization string `json:"specialization"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
