package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"jobgate-appointment-api/internal/model"
)

const secret = "test-secret"

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("testpass123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "testpass123") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "wrongpassword") {
		t.Error("wrong password accepted")
	}
}

func TestAccessTokenClaims(t *testing.T) {
	tok, err := MakeToken("user-1", model.UserUniversityStaff, secret)
	if err != nil {
		t.Fatalf("make token: %v", err)
	}

	claims, err := ParseToken(tok, secret)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("uid mismatch: %s", claims.UserID)
	}
	if claims.UserType != model.UserUniversityStaff {
		t.Errorf("type mismatch: %s", claims.UserType)
	}
	if claims.Issuer != "jobgate" || claims.Subject != "user-1" {
		t.Errorf("unexpected registered claims: %+v", claims.RegisteredClaims)
	}

	diff := time.Until(claims.ExpiresAt.Time)
	if diff < 14*time.Minute || diff > 16*time.Minute {
		t.Errorf("expected ~15min expiry, got %v", diff)
	}
}

func TestAlgorithmConfusion(t *testing.T) {
	tok, _ := MakeToken("uid", model.UserTalent, secret)
	if _, err := ParseToken(tok, secret); err != nil {
		t.Fatalf("valid token failed: %v", err)
	}

	if _, err := ParseToken(tok, "wrong-secret"); err == nil {
		t.Fatal("expected error for wrong secret")
	}
	if _, err := ParseToken("not.a.token", secret); err == nil {
		t.Fatal("expected error for garbage token")
	}

	// unsigned token must be refused
	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "uid"})
	raw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := ParseToken(raw, secret); !errors.Is(err, ErrBadToken) {
		t.Fatalf("expected ErrBadToken for alg none, got %v", err)
	}
}

func TestForeignIssuer(t *testing.T) {
	c := Claims{
		UserID: "uid",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	raw, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
	if _, err := ParseToken(raw, secret); !errors.Is(err, ErrBadToken) {
		t.Fatalf("expected ErrBadToken, got %v", err)
	}

	// no expiry at all
	c.Issuer = issuer
	c.ExpiresAt = nil
	raw, _ = jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
	if _, err := ParseToken(raw, secret); err == nil {
		t.Fatal("expected error for token without expiry")
	}
}

func TestExpiredToken(t *testing.T) {
	c := Claims{
		UserID: "uid",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	raw, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
	if _, err := ParseToken(raw, secret); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestRefreshTokenGeneration(t *testing.T) {
	raw, hash, err := GenerateRefreshToken()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(raw) != 64 { // 32 bytes hex = 64 chars
		t.Errorf("expected 64 char raw token, got %d", len(raw))
	}
	if len(hash) != 64 {
		t.Errorf("expected 64 char hash, got %d", len(hash))
	}
	if HashRefreshToken(raw) != hash {
		t.Error("hash mismatch")
	}

	other, _, _ := GenerateRefreshToken()
	if other == raw {
		t.Error("tokens should be random")
	}
}
