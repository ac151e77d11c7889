package auth

import (
	"testing"
	"time"
)

func TestNewTokenIssuer_Validation(t *testing.T) {
	if _, err := NewTokenIssuer(nil, "periop", time.Hour); err == nil {
		t.Error("expected error for empty key")
	}
	if _, err := NewTokenIssuer(testSigningKey, "periop", 0); err == nil {
		t.Error("expected error for zero ttl")
	}
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer(testSigningKey, "periop", 24*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	token, err := issuer.Issue("user-42", "a@b.c", []string{RoleClinician})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	c, err := runJWT(t, JWTConfig{SigningKey: testSigningKey, Issuer: "periop"}, "Bearer "+token)
	if err != nil {
		t.Fatalf("issued token rejected: %v", err)
	}
	if got := UserIDFromContext(c.Request().Context()); got != "user-42" {
		t.Errorf("expected user-42, got %q", got)
	}
	if issuer.TTL() != 24*time.Hour {
		t.Errorf("unexpected ttl %s", issuer.TTL())
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer, _ := NewTokenIssuer(testSigningKey, "", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := issuer.Issue("user-42", "", nil)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	_, err = runJWT(t, JWTConfig{SigningKey: testSigningKey}, "Bearer "+token)
	if err == nil {
		t.Error("expected expired token to be rejected")
	}
}
