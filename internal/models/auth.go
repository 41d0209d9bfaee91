package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims is the token payload supplied by the authentication boundary.
type JWTClaims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
