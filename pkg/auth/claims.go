package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	Username string
	IsAdmin  bool
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to clients. The admin
// flag travels in the token so the ledger receives an explicit actor context
// on every call instead of reading ambient session state.
type AccessTokenClaims struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	IsAdmin  bool      `json:"is_admin"`
	jwt.RegisteredClaims
}
