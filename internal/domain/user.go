package domain

import "time"

// Role represents a user's authorization level
type Role string

const (
	RoleUser      Role = "user"
	RoleOrganiser Role = "organiser"
	RoleAdmin     Role = "admin"
)

// User is an account in the user module. PasswordHash is a bcrypt hash and
// never leaves the service layer.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Claims are the authenticated identity extracted from a JWT.
type Claims struct {
	UserID string
	Email  string
	Role   Role
}
