package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the available roles for route authorisation.
type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleManager  UserRole = "MANAGER"
	RoleLecturer UserRole = "LECTURER"
)

// JWTClaims represents the JWT payload issued by the identity provider.
type JWTClaims struct {
	UserID         string   `json:"user_id"`
	OrganisationID string   `json:"organisation_id"`
	Role           UserRole `json:"role"`
	Email          string   `json:"email"`
	jwt.RegisteredClaims
}

// Actor identifies the caller and the organisation an operation is scoped to.
type Actor struct {
	UserID         string
	OrganisationID string
}
