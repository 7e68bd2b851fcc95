// Package auth signs and checks the server's own tokens: the session token
// handed to browsers and terminal clients, and the short-lived pending token
// that carries a verified identity into registration.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/sheetsync/internal/common"
	"github.com/dmitrijs2005/sheetsync/internal/identity"
)

// Purpose keeps a pending token from being accepted as a session.
type Purpose string

const (
	PurposeSession Purpose = "session"
	PurposePending Purpose = "pending"
)

// Claims are the registered claims plus the identity payload.
type Claims struct {
	jwt.RegisteredClaims
	Purpose Purpose          `json:"pur"`
	User    identity.Payload `json:"usr"`
}

func GenerateToken(p identity.Payload, purpose Purpose, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Purpose: purpose,
		User:    p,
	})

	return token.SignedString(secretKey)
}

// ParseToken returns the payload of a valid token of the given purpose.
// Expired tokens yield common.ErrTokenExpired and any other failure
// common.ErrInvalidToken.
func ParseToken(tokenString string, purpose Purpose, secretKey []byte) (identity.Payload, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return identity.Payload{}, common.ErrTokenExpired
		}
		return identity.Payload{}, common.ErrInvalidToken
	}

	if !token.Valid || claims.Purpose != purpose {
		return identity.Payload{}, common.ErrInvalidToken
	}

	return claims.User, nil
}
