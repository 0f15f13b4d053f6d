package middleware

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"profilegraph/internal/config"
	"profilegraph/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// TokenIssuer is the "iss" claim minted and accepted by the API.
	TokenIssuer = "profilegraph-api"
	// TokenAudience is the "aud" claim minted and accepted by the API.
	TokenAudience = "profilegraph-client"
)

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

var (
	errMissingToken = errors.New("authorization required")
	errBadHeader    = errors.New("invalid authorization header format")
	errBadToken     = errors.New("invalid or expired token")
	errBadSubject   = errors.New("invalid user ID in token")
)

// IssueToken signs an HS256 token whose subject is userID.
func IssueToken(secret string, userID uint, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": TokenIssuer,
		"aud": TokenAudience,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates tokenString and returns the user id in its subject.
func ParseToken(secret, tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errBadToken
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return 0, errBadToken
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return 0, errBadSubject
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return 0, errBadSubject
	}
	return uint(userID), nil
}

// bearerToken extracts the token from "Bearer <token>".
func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", errMissingToken
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", errBadHeader
	}
	return parts[1], nil
}

func authenticate(c *fiber.Ctx) error {
	tokenString, err := bearerToken(c)
	if err != nil {
		return err
	}
	userID, err := ParseToken(cfg.JWTSecret, tokenString)
	if err != nil {
		return err
	}

	c.Locals("userID", userID)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, userID))
	return nil
}

func unauthorized(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, fiber.StatusUnauthorized,
		models.NewUnauthenticatedError(err.Error()))
}

// AuthRequired rejects requests without a valid bearer token.
func AuthRequired(c *fiber.Ctx) error {
	if err := authenticate(c); err != nil {
		return unauthorized(c, err)
	}
	return c.Next()
}

// OptionalAuth lets anonymous requests through but rejects a presented
// token that fails validation.
func OptionalAuth(c *fiber.Ctx) error {
	err := authenticate(c)
	if errors.Is(err, errMissingToken) {
		return c.Next()
	}
	if err != nil {
		return unauthorized(c, err)
	}
	return c.Next()
}

// UserID returns the authenticated user id, if any.
func UserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("userID").(uint)
	return id, ok && id != 0
}
