package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"sasbridge/internal/domain"
)

const testSecret = "unit-test-secret"

func TestIssueAndVerifyToken(t *testing.T) {
	now := time.Date(2025, time.May, 1, 12, 0, 0, 0, time.UTC)
	user := &domain.User{ID: "user-1", Email: "a@example.com"}

	token, err := IssueToken(testSecret, user, now)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	claims, err := VerifyToken(testSecret, token, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.Sub != "user-1" {
		t.Fatalf("sub = %q, want user-1", claims.Sub)
	}
	if claims.Exp != now.Add(TokenLifetime).Unix() {
		t.Fatalf("exp = %d, want %d", claims.Exp, now.Add(TokenLifetime).Unix())
	}
}

func TestVerifyTokenExpired(t *testing.T) {
	now := time.Date(2025, time.May, 1, 12, 0, 0, 0, time.UTC)
	token, err := IssueToken(testSecret, &domain.User{ID: "user-1"}, now)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	// One second past expiry must fail.
	_, err = VerifyToken(testSecret, token, now.Add(TokenLifetime+time.Second))
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	// Exactly at expiry the token is still accepted.
	if _, err := VerifyToken(testSecret, token, now.Add(TokenLifetime)); err != nil {
		t.Fatalf("token at exact expiry rejected: %v", err)
	}
}

func TestVerifyTokenTampered(t *testing.T) {
	now := time.Now()
	token, err := IssueToken(testSecret, &domain.User{ID: "user-1"}, now)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", token},
		{"truncated", token[:len(token)-2]},
		{"not a jwt", "garbage"},
		{"swapped payload", swapPayload(t, token)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secret := testSecret
			if tt.name == "wrong secret" {
				secret = "other-secret"
			}
			if _, err := VerifyToken(secret, tt.token, now); err == nil {
				t.Fatal("expected verification to fail")
			}
		})
	}
}

func swapPayload(t *testing.T, token string) string {
	t.Helper()
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %s", token)
	}
	other, err := SignToken(testSecret, TokenClaims{Sub: "attacker", Exp: time.Now().Add(time.Hour).Unix()})
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}
	return parts[0] + "." + strings.Split(other, ".")[1] + "." + parts[2]
}

func TestGenerateAPIKey(t *testing.T) {
	a, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}
	b, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}
	if a == b {
		t.Fatal("two generated keys are identical")
	}
	if !LooksLikeAPIKey(a) {
		t.Fatalf("generated key %q missing prefix", a)
	}
	if len(a) < 40 {
		t.Fatalf("generated key suspiciously short: %d chars", len(a))
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword("correct horse battery staple", hash) {
		t.Fatal("correct password rejected")
	}
	if VerifyPassword("wrong password", hash) {
		t.Fatal("wrong password accepted")
	}
	if _, err := HashPassword("short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}
