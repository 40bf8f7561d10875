// Package auth issues and validates the bearer tokens that identify an
// owner. The token subject is the owner id.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingSubject   = errors.New("missing subject in claims")
)

// TokenService signs HS256 tokens.
type TokenService struct {
	secret     []byte
	issuer     string
	expiration time.Duration
	now        func() time.Time
}

// NewTokenService creates a TokenService.
func NewTokenService(secret, issuer string, expiration time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		issuer:     issuer,
		expiration: expiration,
		now:        time.Now,
	}
}

// Issue returns a token for ownerID and its expiry.
func (s *TokenService) Issue(ownerID string) (string, time.Time, error) {
	if ownerID == "" {
		return "", time.Time{}, ErrMissingSubject
	}
	now := s.now()
	expires := now.Add(s.expiration)
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   ownerID,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// Parse validates tokenString and returns the owner id.
func (s *TokenService) Parse(tokenString string) (string, error) {
	opts := []jwt.ParserOption{jwt.WithTimeFunc(s.now)}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return "", ErrTokenNotYetValid
		}
		return "", ErrInvalidToken
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrMissingSubject
	}
	return claims.Subject, nil
}
