package types

import "github.com/golang-jwt/jwt/v4"

type Claims struct {
	UserID uint `json:"id"`
	Role   Role `json:"role"`
	jwt.RegisteredClaims
}
