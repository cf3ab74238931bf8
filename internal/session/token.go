// Package session issues and verifies resume tokens. A resume token is a
// short-lived signed reference to a saved registration draft; it carries no
// attendee data, only the registration id.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	id "cornerstone/pkg/domain"
	dErrors "cornerstone/pkg/domain-errors"
)

const issuer = "cornerstone"

// Manager signs and verifies resume tokens with an HMAC key.
type Manager struct {
	key []byte
	ttl time.Duration
}

func NewManager(key []byte, ttl time.Duration) *Manager {
	return &Manager{key: key, ttl: ttl}
}

type resumeClaims struct {
	jwt.RegisteredClaims
}

// Issue creates a resume token for the given registration.
func (m *Manager) Issue(registrationID id.RegistrationID) (string, error) {
	now := time.Now().UTC()
	claims := resumeClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   registrationID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.key)
	if err != nil {
		return "", fmt.Errorf("sign resume token: %w", err)
	}
	return signed, nil
}

// Verify parses a resume token and returns the registration id it refers to.
func (m *Manager) Verify(token string) (id.RegistrationID, error) {
	var claims resumeClaims
	parsed, err := jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return m.key, nil
		},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return id.RegistrationID{}, dErrors.New(dErrors.CodeInvalidState, "resume token has expired")
		}
		return id.RegistrationID{}, dErrors.New(dErrors.CodeInvalidInput, "resume token is not valid")
	}
	if !parsed.Valid {
		return id.RegistrationID{}, dErrors.New(dErrors.CodeInvalidInput, "resume token is not valid")
	}

	registrationID, err := id.ParseRegistrationID(claims.Subject)
	if err != nil {
		return id.RegistrationID{}, dErrors.New(dErrors.CodeInvalidInput, "resume token subject is not a registration id")
	}
	return registrationID, nil
}
