package auth

import (
	"errors"
	"fmt"
	"time"

	"socialql/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTTL is fixed; expired tokens require a new login.
const TokenTTL = time.Hour

// ErrInvalidToken covers bad signatures, malformed payloads and expired tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the signed session payload.
type Claims struct {
	UserID   string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies session tokens with a server-held secret.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

// NewTokenCodec returns a codec for secret. now may be nil to use time.Now.
func NewTokenCodec(secret string, now func() time.Time) *TokenCodec {
	if now == nil {
		now = time.Now
	}
	return &TokenCodec{secret: []byte(secret), now: now}
}

// Issue signs a token for id valid for TokenTTL.
func (c *TokenCodec) Issue(id models.Identity) (string, error) {
	if len(c.secret) == 0 {
		return "", fmt.Errorf("token secret not configured")
	}
	now := c.now()
	claims := Claims{
		UserID:   id.ID,
		Email:    id.Email,
		Username: id.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify checks signature and expiry and returns the embedded identity.
func (c *TokenCodec) Verify(tokenString string) (models.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return models.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" || claims.Username == "" {
		return models.Identity{}, fmt.Errorf("%w: missing identity claims", ErrInvalidToken)
	}
	return models.Identity{ID: claims.UserID, Email: claims.Email, Username: claims.Username}, nil
}
