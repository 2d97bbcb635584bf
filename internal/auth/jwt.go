package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// ParseToken extracts staff identity claims from a bearer token signed with
// the shared secret. Claims: staff_id (number), role (string).
func ParseToken(secret, tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Claims{}, err
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Claims{}, errors.New("invalid token claims")
	}
	staffID, ok := mc["staff_id"].(float64)
	if !ok {
		return Claims{}, errors.New("token missing staff_id")
	}
	role, ok := mc["role"].(string)
	if !ok {
		return Claims{}, errors.New("token missing role")
	}
	return Claims{StaffID: int64(staffID), Role: role}, nil
}

// SignToken issues a token for the given claims; used by tests and dev
// tooling, never by the API itself.
func SignToken(secret string, c Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"staff_id": c.StaffID,
		"role":     c.Role,
	})
	return token.SignedString([]byte(secret))
}
