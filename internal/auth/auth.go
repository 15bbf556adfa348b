// Package auth issues and checks credentials: bcrypt password hashes, short
// HS256 access tokens and opaque refresh tokens.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"jobgate-appointment-api/internal/model"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour

	issuer       = "jobgate"
	refreshBytes = 32
)

var ErrBadToken = errors.New("invalid token")

// accepted signing algorithms; anything else, including "none", is refused
var parser = jwt.NewParser(
	jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	jwt.WithIssuer(issuer),
	jwt.WithExpirationRequired(),
	jwt.WithLeeway(5*time.Second),
)

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// Claims identify the caller. The user type rides along so interceptors do
// not need a database round trip.
type Claims struct {
	UserID   string         `json:"uid"`
	UserType model.UserType `json:"typ"`
	jwt.RegisteredClaims
}

func MakeToken(uid string, typ model.UserType, secret string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   uid,
		UserType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken verifies raw and returns its claims. Every failure wraps
// ErrBadToken.
func ParseToken(raw, secret string) (*Claims, error) {
	var claims Claims
	tok, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadToken, err)
	}
	if !tok.Valid || claims.UserID == "" {
		return nil, ErrBadToken
	}
	return &claims, nil
}

// GenerateRefreshToken returns the raw token for the client and the hash to
// store.
func GenerateRefreshToken() (raw, hash string, err error) {
	buf := make([]byte, refreshBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("refresh token: %w", err)
	}
	raw = hex.EncodeToString(buf)
	return raw, HashRefreshToken(raw), nil
}

func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
