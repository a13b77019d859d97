// Package auth issues and parses the session tokens handed out by the
// identity server.
package auth

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophwalk/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "gophwalk"

// Claims carries the user id in Subject and a unique token id in ID, so a
// single token can be revoked on sign-out.
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 token for userID that expires after validity.
func GenerateToken(userID string, secretKey []byte, validity time.Duration, now time.Time) (string, *Claims, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secretKey)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// ParseToken checks the signature, algorithm, issuer and expiry of
// tokenString. Any failure is reported as common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return secretKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
