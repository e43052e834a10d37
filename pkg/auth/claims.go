package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// IdentityClaims is the JWT payload minted by the accounts system. The API
// only reads user_id; everything else is standard registered claims.
type IdentityClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
