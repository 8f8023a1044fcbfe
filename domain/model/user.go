package model

import (
	"time"

	"github.com/golang-jwt/jwt"
)

// User is an account on this service (not a platform identity).
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	UserName  string    `json:"user_name"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserClaims is the JWT payload carried by API callers.
type UserClaims struct {
	UserName string `json:"user_name"`
	jwt.StandardClaims
}
