package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("org-1", "org-1/workload_2025.csv")
	require.NoError(t, err)

	file, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "org-1", file.OwnerID)
	assert.Equal(t, "org-1/workload_2025.csv", file.Path)
	assert.True(t, expiresAt.Equal(file.ExpiresAt))
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	token, _, err := signer.Generate("org-1", "report.csv")
	require.NoError(t, err)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = signer.Parse(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("org-1", "report.csv")
	require.NoError(t, err)

	other := NewSignedURLSigner("other", time.Hour)
	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = signer.Parse("org-2" + token[len("org-1"):])
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = signer.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
