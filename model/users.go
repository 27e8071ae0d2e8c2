package model

import "time"

type Role string

const (
	RoleStaff   Role = "staff"
	RoleStudent Role = "student"
)

type User struct {
	Username     string    `bson:"username" json:"username"`
	Role         Role      `bson:"role" json:"role"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	TOTPSecret   string    `bson:"totp_secret,omitempty" json:"-"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// Claims is what the auth middleware puts on the request context.
type Claims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}
