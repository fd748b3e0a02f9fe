package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionMaxAge is how long an issued session token stays valid.
const DefaultSessionMaxAge = 7 * 24 * time.Hour

// TokenConfig bundles the configuration required to build a TokenCodec.
type TokenConfig struct {
	Secret string
	Issuer string
	Clock  func() time.Time
}

type sessionClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies stateless, signed session tokens. A token carries only the user
// id and its issue time; age is checked against the caller's max age at verification.
type TokenCodec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewTokenCodec constructs a TokenCodec. The secret is required.
func NewTokenCodec(cfg TokenConfig) (*TokenCodec, error) {
	if cfg.Secret == "" {
		return nil, errors.New("session: secret must be provided")
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &TokenCodec{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		now:    now,
	}, nil
}

// Issue signs a token bound to userID.
func (c *TokenCodec) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("session: user id is required")
	}

	claims := &sessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   c.issuer,
			IssuedAt: jwt.NewNumericDate(c.now()),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("session: sign token: %w", err)
	}
	return signed, nil
}

// Verify returns the embedded user id when the token is authentic and no older than maxAge.
// Expired, tampered and malformed tokens are indistinguishable to the caller.
func (c *TokenCodec) Verify(token string, maxAge time.Duration) (string, bool) {
	claims, err := c.parse(token, maxAge)
	if err != nil {
		return "", false
	}
	return claims.UserID, true
}

func (c *TokenCodec) parse(token string, maxAge time.Duration) (*sessionClaims, error) {
	if token == "" {
		return nil, errors.New("session: token is empty")
	}
	if maxAge <= 0 {
		maxAge = DefaultSessionMaxAge
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithIssuedAt(),
	)

	var claims sessionClaims
	if _, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	}); err != nil {
		return nil, fmt.Errorf("session: parse token: %w", err)
	}

	if claims.IssuedAt == nil {
		return nil, errors.New("session: missing issued-at")
	}
	if c.now().Sub(claims.IssuedAt.Time) > maxAge {
		return nil, jwt.ErrTokenExpired
	}
	if c.issuer != "" && claims.Issuer != c.issuer {
		return nil, errors.New("session: invalid issuer")
	}
	if claims.UserID == "" {
		return nil, errors.New("session: missing user id claim")
	}
	return &claims, nil
}
