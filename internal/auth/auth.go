// Package auth issues and validates the admin token that gates the
// destructive endpoints. There is a single admin identity; teams never
// authenticate.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrInvalidToken       = errors.New("auth: invalid token")
)

const tokenTTL = 12 * time.Hour

type Service struct {
	jwtSecret []byte
	adminHash string
}

// NewService takes the signing secret and the bcrypt hash of the admin
// password. An empty hash disables admin login entirely.
func NewService(secret, adminHash string) *Service {
	return &Service{jwtSecret: []byte(secret), adminHash: adminHash}
}

// HashPassword produces a bcrypt hash suitable for the
// ADMIN_PASSWORD_HASH setting.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

// Login checks the admin password and returns a signed token.
func (s *Service) Login(password string) (string, error) {
	if s.adminHash == "" {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.adminHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"exp": time.Now().Add(tokenTTL).Unix(),
	})
	return token.SignedString(s.jwtSecret)
}

// ValidateToken checks a bearer token and returns its subject.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	subject, ok := claims["sub"].(string)
	if !ok {
		return "", ErrInvalidToken
	}
	return subject, nil
}
