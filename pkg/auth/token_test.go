package auth

import (
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer("shared-secret", TokenOptions{})
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	token, err := issuer.Issue("user-1", "a@x.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "a@x.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		t.Fatalf("expected iat and exp claims")
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != TokenTTL {
		t.Fatalf("unexpected lifetime: got %v want %v", got, TokenTTL)
	}
}

func TestTokenIssuerRejectsOtherSecret(t *testing.T) {
	signing, _ := NewTokenIssuer("secret-a", TokenOptions{})
	verifying, _ := NewTokenIssuer("secret-b", TokenOptions{})

	token, err := signing.Issue("user-1", "a@x.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifying.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token for foreign secret, got %v", err)
	}
}

func TestTokenIssuerRejectsExpiredToken(t *testing.T) {
	issuedAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := issuedAt
	issuer, err := NewTokenIssuer("shared-secret", TokenOptions{Now: func() time.Time { return clock }})
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	token, err := issuer.Issue("user-1", "a@x.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	clock = issuedAt.Add(TokenTTL - time.Minute)
	if _, err := issuer.Verify(token); err != nil {
		t.Fatalf("expected token valid before expiry: %v", err)
	}
	clock = issuedAt.Add(TokenTTL + time.Minute)
	if _, err := issuer.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
}

func TestTokenIssuerRejectsUnsignedAlgorithm(t *testing.T) {
	issuer, _ := NewTokenIssuer("shared-secret", TokenOptions{})
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := issuer.Verify(token); err == nil {
		t.Fatalf("expected alg=none token to fail")
	}
}

func TestNewTokenIssuerRequiresSecret(t *testing.T) {
	if _, err := NewTokenIssuer("  ", TokenOptions{}); !errors.Is(err, ErrTokenSecretRequired) {
		t.Fatalf("expected secret required error, got %v", err)
	}
}
