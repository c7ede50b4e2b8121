package jwt

import (
	"testing"
	"time"
)

const testSecret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(42, "resident", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	payload, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if payload.UserID != 42 || payload.Role != "resident" {
		t.Fatalf("claims do not round-trip: %+v", payload)
	}
	if payload.Issuer != TokenIssuer {
		t.Fatalf("wrong issuer: %q", payload.Issuer)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken(42, "resident", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := ParseToken(token, "other-secret"); err == nil {
		t.Fatalf("token signed with a different secret must be rejected")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken(42, "resident", testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := ParseToken(token, testSecret); err == nil {
		t.Fatalf("expired token must be rejected")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	if _, err := ParseToken("not.a.token", testSecret); err == nil {
		t.Fatalf("malformed token must be rejected")
	}
}
