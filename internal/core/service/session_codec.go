package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/agentdex/platform/internal/core/domain"
)

// SessionTTL is the lifetime of an issued session token.
const SessionTTL = 7 * 24 * time.Hour

type sessionClaims struct {
	UserID   string      `json:"uid"`
	Email    string      `json:"email"`
	Nickname string      `json:"nickname"`
	Role     domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// JWTSessionCodec signs session tokens with HS256.
type JWTSessionCodec struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

type SessionCodecOption func(*JWTSessionCodec)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) SessionCodecOption {
	return func(c *JWTSessionCodec) { c.now = now }
}

func WithTTL(ttl time.Duration) SessionCodecOption {
	return func(c *JWTSessionCodec) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func NewJWTSessionCodec(secret, issuer, audience string, opts ...SessionCodecOption) (*JWTSessionCodec, error) {
	if secret == "" {
		return nil, errors.New("session codec: secret is required")
	}
	c := &JWTSessionCodec{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      SessionTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *JWTSessionCodec) Issue(id domain.Identity) (string, error) {
	now := c.now()
	claims := sessionClaims{
		UserID:   id.UserID,
		Email:    id.Email,
		Nickname: id.Nickname,
		Role:     id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify decodes token. Every failure (signature, issuer, audience, expiry,
// missing subject) is reported as ErrInvalidToken.
func (c *JWTSessionCodec) Verify(token string) (domain.Identity, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)

	claims := &sessionClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil || !parsed.Valid || claims.UserID == "" {
		return domain.Identity{}, domain.ErrInvalidToken
	}

	return domain.Identity{
		UserID:   claims.UserID,
		Email:    claims.Email,
		Nickname: claims.Nickname,
		Role:     claims.Role,
	}, nil
}
