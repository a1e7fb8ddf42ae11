package stub

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/winnerx0/jille-client/internal/model"
)

// TokenIssuer mints and verifies the stub's access tokens and pairs
// them with rotating refresh tokens from the store.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	store  *Store
}

func NewTokenIssuer(secret string, ttl time.Duration, store *Store) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, store: store}
}

// Issue mints a fresh access/refresh pair for a user.
func (i *TokenIssuer) Issue(userID uuid.UUID) (model.AuthTokens, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return model.AuthTokens{}, fmt.Errorf("sign access token: %w", err)
	}
	return model.AuthTokens{
		AccessToken:  access,
		RefreshToken: i.store.IssueRefresh(userID),
	}, nil
}

// Verify checks an access token and returns its subject.
func (i *TokenIssuer) Verify(token string) (uuid.UUID, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(sub)
}

// Rotate consumes a refresh token and issues a fresh pair. The consumed
// token can never be used again.
func (i *TokenIssuer) Rotate(refreshToken string) (model.AuthTokens, error) {
	userID, next, err := i.store.RotateRefresh(refreshToken)
	if err != nil {
		return model.AuthTokens{}, err
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return model.AuthTokens{}, fmt.Errorf("sign access token: %w", err)
	}
	return model.AuthTokens{AccessToken: access, RefreshToken: next}, nil
}

// Middleware authenticates the Bearer token and stores the caller's
// user ID in request locals. 401 covers both missing and expired
// credentials; permission checks downstream answer with 403.
func (i *TokenIssuer) Middleware(c fiber.Ctx) error {
	header := c.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "missing bearer token"})
	}

	userID, err := i.Verify(token)
	if err != nil {
		msg := "invalid token"
		if errors.Is(err, jwt.ErrTokenExpired) {
			msg = "token expired"
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": msg})
	}

	c.Locals("userID", userID.String())
	return c.Next()
}
