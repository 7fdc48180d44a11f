package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
	appErrors "github.com/SMTech-UK/workload-wizard-sub001/pkg/errors"
)

// TokenConfig configures access token validation.
type TokenConfig struct {
	Secret   string
	Issuer   string
	Audience []string
}

// TokenService validates HS256 access tokens issued by the identity provider.
type TokenService struct {
	cfg TokenConfig
}

// NewTokenService constructs the service.
func NewTokenService(cfg TokenConfig) *TokenService {
	return &TokenService{cfg: cfg}
}

// ValidateToken parses and validates an access token returning the claims. Tokens must name
// both a subject and an organisation.
func (s *TokenService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if !s.audienceAllowed(claims.Audience) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token audience")
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" || claims.OrganisationID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token is missing identity claims")
	}
	return claims, nil
}

func (s *TokenService) audienceAllowed(audience jwt.ClaimStrings) bool {
	if len(s.cfg.Audience) == 0 {
		return true
	}
	for _, want := range s.cfg.Audience {
		for _, got := range audience {
			if want == got {
				return true
			}
		}
	}
	return false
}
