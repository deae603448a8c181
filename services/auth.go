package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ananke-board/ananke/database"
)

// Token lifetime matches the session cookie max-age.
const tokenTTL = 24 * time.Hour

var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService issues and verifies the signed session tokens carried in
// the auth cookie and in the websocket handshake.
type AuthService struct {
	jwtSecret []byte
}

func NewAuthService(jwtSecret string) *AuthService {
	return &AuthService{jwtSecret: []byte(jwtSecret)}
}

// CreateToken generates a session JWT for a user. The {id, name, role}
// trio baked into the claims is what every later permission check runs
// against; role edits made while a session is live do not reach into
// already-issued tokens.
func (s *AuthService) CreateToken(user *database.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":                user.ID,
		"name":              user.DisplayName(),
		"role":              user.Role,
		"is_setup_complete": user.IsSetupComplete,
		"exp":               time.Now().Add(tokenTTL).Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// VerifyToken verifies a session JWT and returns the identity it carries.
func (s *AuthService) VerifyToken(tokenString string) (UserContext, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return UserContext{}, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return UserContext{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return UserContext{}, errors.New("invalid token claims")
	}

	id, ok := claims["id"].(float64)
	if !ok {
		return UserContext{}, errors.New("id claim missing")
	}
	name, ok := claims["name"].(string)
	if !ok {
		return UserContext{}, errors.New("name claim missing")
	}
	role, ok := claims["role"].(string)
	if !ok {
		return UserContext{}, errors.New("role claim missing")
	}

	return UserContext{ID: int64(id), Name: name, Role: Role(role)}, nil
}

// HashPassword hashes a password for storage.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a stored hash against a login attempt.
func (s *AuthService) CheckPassword(hash, password string) error {
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}
