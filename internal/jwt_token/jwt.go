// Package jwttoken signs and reads the session cookie. The cookie holds an
// HS256 JWT whose subject is the wizard session ID.
package jwttoken

import (
	"crypto/sha256"
	"errors"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"

	id "ivory/pkg/domain"
	dErrors "ivory/pkg/domain-errors"
)

const (
	issuer  = "ivory"
	keyInfo = "ivory/session-cookie/v1"
)

// SessionClaims are the claims of a session cookie.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// SessionTokens issues and validates session cookie tokens.
type SessionTokens struct {
	signingKey []byte
	lifetime   time.Duration
}

// NewSessionTokens derives the signing key from secret with HKDF, so the
// configured secret is never used as a MAC key directly.
func NewSessionTokens(secret string, lifetime time.Duration) (*SessionTokens, error) {
	if secret == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "session secret is required")
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, err
	}
	return &SessionTokens{signingKey: key, lifetime: lifetime}, nil
}

// Issue signs a token for sid valid for the configured lifetime from now.
func (s *SessionTokens) Issue(sid id.SessionID, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sid.String(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
		},
	})
	return token.SignedString(s.signingKey)
}

// Parse validates tokenString at now and returns its session ID.
func (s *SessionTokens) Parse(tokenString string, now time.Time) (id.SessionID, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return id.SessionID{}, dErrors.New(dErrors.CodeUnauthorized, "session has expired")
		}
		return id.SessionID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid session token")
	}
	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid {
		return id.SessionID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid session token")
	}
	return id.ParseSessionID(claims.Subject)
}
