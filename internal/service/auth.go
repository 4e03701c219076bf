package service

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/tony-c3a/tony-mission-control/internal/config"
)

var ErrBadCredentials = errors.New("wrong username or password")

// AuthService checks the single configured dashboard user and issues tokens.
type AuthService struct {
	cfg config.AuthConfig
}

func NewAuthService(cfg config.AuthConfig) *AuthService { return &AuthService{cfg: cfg} }

func (s *AuthService) Enabled() bool { return s.cfg.Secret != "" }

func (s *AuthService) Login(username, password string) (string, error) {
	if !s.Enabled() {
		return "", errors.New("auth is not configured")
	}
	if subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.Username)) != 1 {
		return "", ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(password)) != nil {
		return "", ErrBadCredentials
	}
	return s.Issue(username)
}

func (s *AuthService) Issue(username string) (string, error) {
	ttl := s.cfg.TokenTTL.Duration
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": username,
		"exp": time.Now().Add(ttl).Unix(),
	}).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}
