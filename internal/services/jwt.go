package services

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTClaims carries the tenant identity so downstream layers never have to
// re-read the user row to learn org or role.
type JWTClaims struct {
	OrgID uuid.UUID `json:"org_id"`
	Role  string    `json:"role"`
	jwt.RegisteredClaims
}
