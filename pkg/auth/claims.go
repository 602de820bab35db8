package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/printdesk/printdesk-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID     uuid.UUID
	Role       enums.UserRole
	CustomerID *uuid.UUID
	JTI        string
}

// AccessTokenClaims represents the typed JWT issued to staff clients.
// CustomerID is only set for tokens scoped to a single customer account.
type AccessTokenClaims struct {
	UserID     uuid.UUID      `json:"user_id"`
	Role       enums.UserRole `json:"role"`
	CustomerID *uuid.UUID     `json:"customer_id,omitempty"`
	jwt.RegisteredClaims
}
