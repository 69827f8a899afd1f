package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the lifetime of every session token.
const TokenTTL = 24 * time.Hour

var (
	ErrTokenSecretRequired = errors.New("token secret required")
	ErrInvalidToken        = errors.New("invalid token")
)

// Claims is the payload carried by a session token.
type Claims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenOptions configures a TokenIssuer.
type TokenOptions struct {
	// Leeway tolerates clock skew when validating exp/iat.
	Leeway time.Duration
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// TokenIssuer signs and verifies HS256 session tokens with a shared secret.
// Tokens are stateless; there is no revocation.
type TokenIssuer struct {
	secret []byte
	leeway time.Duration
	now    func() time.Time
}

// NewTokenIssuer builds an issuer for the given shared secret.
func NewTokenIssuer(secret string, opts TokenOptions) (*TokenIssuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrTokenSecretRequired
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{
		secret: []byte(secret),
		leeway: opts.Leeway,
		now:    now,
	}, nil
}

// Issue signs a token for the user that expires TokenTTL after issuance.
func (i *TokenIssuer) Issue(userID, email string) (string, error) {
	issuedAt := i.now().UTC().Truncate(time.Second)
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry and returns the claims.
func (i *TokenIssuer) Verify(token string) (Claims, error) {
	claims := Claims{}
	token = strings.TrimSpace(token)
	if token == "" {
		return claims, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(i.leeway),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || strings.TrimSpace(claims.UserID) == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
