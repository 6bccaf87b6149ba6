package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/ougirez/cancensus/internal/pkg/constants"
)

const RoleAdmin = "admin"

// AuthTokenWrapper is the payload of a proxy API token.
type AuthTokenWrapper struct {
	Role string `json:"role"`
	jwt.StandardClaims
}

// GenerateAuthToken signs an admin token with secret, valid for ttl.
func GenerateAuthToken(secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("%w: empty signing secret", constants.ErrInvalidParameter)
	}

	now := time.Now()
	claims := &AuthTokenWrapper{
		Role: RoleAdmin,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
			Issuer:    constants.AppDirName,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseAuthToken verifies token against signingKey. Any failure, including
// an expired token, is ErrUnauthorized.
func ParseAuthToken(token, signingKey string) (*AuthTokenWrapper, error) {
	if signingKey == "" {
		return nil, constants.ErrUnauthorized
	}

	claims := &AuthTokenWrapper{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(signingKey), nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, fmt.Errorf("%w: token expired", constants.ErrUnauthorized)
		}
		return nil, fmt.Errorf("%w: %s", constants.ErrUnauthorized, err.Error())
	}
	if !parsed.Valid {
		return nil, constants.ErrUnauthorized
	}

	return claims, nil
}
