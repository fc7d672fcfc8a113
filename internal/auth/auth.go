// Package auth verifies the storefront's session tokens and exposes the
// current user to the rest of the stack.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization token required")
)

// User is the authenticated shopper. Checkout cannot start without one.
type User struct {
	ID    string
	Email string
}

// Claims are the JWT claims carried by a storefront session token.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 session tokens issued by the auth backend.
type Verifier struct {
	secretKey []byte
}

func NewVerifier(secretKey string) *Verifier {
	return &Verifier{secretKey: []byte(secretKey)}
}

// Verify parses and validates the token, returning the user it identifies.
// The subject claim holds the user ID.
func (v *Verifier) Verify(tokenString string) (User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secretKey, nil
	})
	if err != nil {
		return User{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return User{}, ErrInvalidToken
	}

	return User{ID: claims.Subject, Email: claims.Email}, nil
}
