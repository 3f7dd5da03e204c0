package dto

import (
	"time"

	"identity_backend/internal/feature/users/domain/entity"
)

// UserRes is the public view of a user. It never carries the password hash.
type UserRes struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	FullName  *string   `json:"fullName,omitempty"`
	Birthday  *string   `json:"birthday,omitempty"`
}

// NewUserRes builds a UserRes from a user entity.
func NewUserRes(u *entity.User) UserRes {
	res := UserRes{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
	if u.FullName != nil && *u.FullName != "" {
		res.FullName = u.FullName
	}
	if u.BirthDate != nil {
		b := u.BirthDate.Format(BirthdayLayout)
		res.Birthday = &b
	}
	return res
}

// ErrorRes is the body of every error response.
type ErrorRes struct {
	Error string `json:"error"`
}
