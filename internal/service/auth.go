package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/arcadehq/tictactoe-backend/internal/apperror"
)

const tokenLifetime = 24 * time.Hour

// AuthService issues tokens at login and verifies the proof tokens clients
// attach to socket requests.
type AuthService interface {
	GenerateToken(userID, email string) (string, error)
	VerifyToken(token string) (string, error)
}

type authService struct {
	secretKey string
}

func NewAuthService(secretKey string) AuthService {
	return &authService{
		secretKey: secretKey,
	}
}

func (that *authService) GenerateToken(userID, email string) (string, error) {
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"exp":   time.Now().Add(tokenLifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(that.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// VerifyToken returns the stable user id carried by a valid token. Any
// parse or signature failure maps to ErrInvalidIdentity so callers report
// a single classified error to the client.
func (that *authService) VerifyToken(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method %v", apperror.ErrInvalidIdentity, t.Header["alg"])
		}

		return []byte(that.secretKey), nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperror.ErrInvalidIdentity, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", apperror.ErrInvalidIdentity
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", apperror.ErrInvalidIdentity
	}

	return sub, nil
}
