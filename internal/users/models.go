package users

import "time"

// User represents a registered account. PasswordHash and RefreshToken never
// leave the service.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser is the signup payload.
type NewUser struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Phone    string `json:"phone" validate:"required,min=10"`
}

// UpdateUser is the profile-update payload. Empty fields keep their current
// value.
type UpdateUser struct {
	Name  string `json:"name" validate:"omitempty,min=2"`
	Phone string `json:"phone" validate:"omitempty,min=10"`
}
