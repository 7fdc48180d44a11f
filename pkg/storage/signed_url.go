package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidToken reports a malformed or tampered download token.
	ErrInvalidToken = errors.New("invalid download token")
	// ErrTokenExpired reports a correctly signed token past its expiry.
	ErrTokenExpired = errors.New("download token expired")
)

// SignedFile is the content of a download token.
type SignedFile struct {
	OwnerID   string
	Path      string
	ExpiresAt time.Time
}

// SignedURLSigner creates and validates HMAC-signed download tokens.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate returns a token binding ownerID to relPath until the TTL elapses.
// Token layout: owner.expiry.base64(path).hex(hmac).
func (s *SignedURLSigner) Generate(ownerID, relPath string) (string, time.Time, error) {
	if ownerID == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("owner and path required")
	}
	if strings.Contains(ownerID, ".") {
		return "", time.Time{}, fmt.Errorf("owner must not contain '.'")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	token := strings.Join([]string{ownerID, ts, encodedPath, s.sign(ownerID, ts, encodedPath)}, ".")
	return token, expiresAt, nil
}

// Parse validates a token and returns what it grants.
func (s *SignedURLSigner) Parse(token string) (*SignedFile, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return nil, ErrInvalidToken
	}
	ownerID, ts, encodedPath, signature := parts[0], parts[1], parts[2], parts[3]
	if !hmac.Equal([]byte(s.sign(ownerID, ts, encodedPath)), []byte(signature)) {
		return nil, ErrInvalidToken
	}
	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}
	rawPath, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return nil, ErrInvalidToken
	}
	file := &SignedFile{OwnerID: ownerID, Path: string(rawPath), ExpiresAt: time.Unix(expUnix, 0)}
	if s.now().After(file.ExpiresAt) {
		return nil, ErrTokenExpired
	}
	return file, nil
}

func (s *SignedURLSigner) sign(ownerID, ts, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(ownerID + "|" + ts + "|" + encodedPath))
	return hex.EncodeToString(mac.Sum(nil))
}
