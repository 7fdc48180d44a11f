package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
	appErrors "github.com/SMTech-UK/workload-wizard-sub001/pkg/errors"
)

func signToken(t *testing.T, method jwt.SigningMethod, secret string, claims *models.JWTClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func validClaims() *models.JWTClaims {
	now := time.Now()
	return &models.JWTClaims{
		OrganisationID: "org-1",
		Role:           models.RoleManager,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "workload-idp",
			Audience:  jwt.ClaimStrings{"workload-api"},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
}

func TestTokenServiceValidate(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Issuer: "workload-idp", Audience: []string{"workload-api"}})

	claims, err := svc.ValidateToken(signToken(t, jwt.SigningMethodHS256, "secret", validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "org-1", claims.OrganisationID)
}

func TestTokenServiceRejects(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Issuer: "workload-idp", Audience: []string{"workload-api"}})

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	noOrg := validClaims()
	noOrg.OrganisationID = ""
	wrongAud := validClaims()
	wrongAud.Audience = jwt.ClaimStrings{"other"}
	wrongIss := validClaims()
	wrongIss.Issuer = "someone-else"

	cases := map[string]string{
		"expired":        signToken(t, jwt.SigningMethodHS256, "secret", expired),
		"missing org":    signToken(t, jwt.SigningMethodHS256, "secret", noOrg),
		"wrong audience": signToken(t, jwt.SigningMethodHS256, "secret", wrongAud),
		"wrong issuer":   signToken(t, jwt.SigningMethodHS256, "secret", wrongIss),
		"wrong secret":   signToken(t, jwt.SigningMethodHS256, "other", validClaims()),
		"wrong method":   signToken(t, jwt.SigningMethodHS512, "secret", validClaims()),
		"garbage":        "not-a-token",
	}
	for name, token := range cases {
		_, err := svc.ValidateToken(token)
		assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized), name)
	}
}
