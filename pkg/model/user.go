package model

import "time"

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleIntern Role = "INTERN"
)

type User struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Email     string    `json:"email" bson:"email"`
	Name      string    `json:"name" bson:"name"`
	InternID  string    `json:"intern_id,omitempty" bson:"intern_id,omitempty"`
	Role      Role      `json:"role" bson:"role"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, InternID: u.InternID}
}

// UserSummary is the slice of a user exposed next to bookings.
type UserSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	InternID string `json:"intern_id,omitempty"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	FullName string `json:"full_name" validate:"required,min=2,max=120"`
	InternID string `json:"intern_id" validate:"required,intern_id"`
}

type SignInResult struct {
	User      *User     `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
