package service

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrInvalidToken       = errors.New("invalid token")
)

// AuthService is the login stub. It is a mock, not an access-control
// system: any non-empty credentials are accepted, unknown users are
// registered on first login, and nothing in the API is gated by the
// resulting token. Users live in memory only.
type AuthService struct {
	mu        sync.Mutex
	users     map[string]string // username -> bcrypt hash
	jwtSecret string
}

func NewAuthService(jwtSecret string) *AuthService {
	return &AuthService{
		users:     make(map[string]string),
		jwtSecret: jwtSecret,
	}
}

// Login returns a signed token for any non-empty credentials. The first
// login registers the user; later logins must present the same password.
func (s *AuthService) Login(username, password string) (string, error) {
	if username == "" || password == "" {
		return "", ErrMissingCredentials
	}

	s.mu.Lock()
	hash, ok := s.users[username]
	if !ok {
		h, err := bcrypt.GenerateFromPassword([]byte(password), 8)
		if err != nil {
			s.mu.Unlock()
			return "", err
		}
		s.users[username] = string(h)
		hash = string(h)
	}
	s.mu.Unlock()

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", ErrInvalidToken
	}

	claims := jwt.MapClaims{
		"username": username,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
		"iat":      time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ParseToken validates a token and returns the username it carries.
func (s *AuthService) ParseToken(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	username, ok := claims["username"].(string)
	if !ok {
		return "", ErrInvalidToken
	}
	return username, nil
}
