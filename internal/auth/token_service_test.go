package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokenService("test-secret", time.Minute)

	token, err := tokens.Generate("operator")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := tokens.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Login != "operator" {
		t.Fatalf("expected login operator, got %q", claims.Login)
	}
}

func TestTokenRejectsEmptyLogin(t *testing.T) {
	tokens := NewTokenService("test-secret", time.Minute)
	if _, err := tokens.Generate(""); err == nil {
		t.Fatalf("expected error for empty login")
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenService("secret-a", time.Minute)
	verifier := NewTokenService("secret-b", time.Minute)

	token, err := issuer.Generate("operator")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := verifier.Validate(token); err == nil {
		t.Fatalf("expected validation failure across secrets")
	}
}

func TestTokenRejectsExpired(t *testing.T) {
	tokens := NewTokenService("test-secret", time.Minute)
	tokens.expiresIn = -time.Minute

	token, err := tokens.Generate("operator")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := tokens.Validate(token); err == nil {
		t.Fatalf("expected expired token to fail validation")
	}
}

func TestTokenRejectsGarbage(t *testing.T) {
	tokens := NewTokenService("test-secret", time.Minute)
	if _, err := tokens.Validate("not-a-token"); err == nil {
		t.Fatalf("expected error for malformed token")
	}
}
