// Package auth issues and verifies identity tokens. A token's subject is the
// caller's decimal messaging-platform id; profile fields ride along as claims.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/starford/telenote/internal/apperr"
	"github.com/starford/telenote/internal/models"
)

// Issuer is the iss claim of every token.
const Issuer = "telenote"

// ErrInvalidToken is returned for any token that fails verification. It wraps
// apperr.ErrUnauthorized.
var ErrInvalidToken = fmt.Errorf("invalid token: %w", apperr.ErrUnauthorized)

// Claims carries the identity profile.
type Claims struct {
	Username     string `json:"username,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
	Timezone     string `json:"timezone,omitempty"`
	jwt.RegisteredClaims
}

// Tokens signs and parses HS256 identity tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// New creates a token codec. A non-positive ttl defaults to 24h.
func New(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for id.
func (a *Tokens) Issue(id models.Identity) (string, error) {
	if err := id.Validate(); err != nil {
		return "", apperr.Validation(err)
	}
	now := a.now()
	claims := &Claims{
		Username:     id.Username,
		FirstName:    id.FirstName,
		LastName:     id.LastName,
		LanguageCode: id.LanguageCode,
		Timezone:     id.Timezone,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id.ExternalID, 10),
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Parse verifies a token and returns the identity it carries.
func (a *Tokens) Parse(token string) (models.Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Identity{}, fmt.Errorf("%w: expired", ErrInvalidToken)
		}
		return models.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	extID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || extID <= 0 {
		return models.Identity{}, fmt.Errorf("%w: subject %q is not an external id", ErrInvalidToken, claims.Subject)
	}
	return models.Identity{
		ExternalID:   extID,
		Username:     claims.Username,
		FirstName:    claims.FirstName,
		LastName:     claims.LastName,
		LanguageCode: claims.LanguageCode,
		Timezone:     claims.Timezone,
	}, nil
}
