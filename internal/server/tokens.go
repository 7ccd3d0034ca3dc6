package server

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"codelearn/internal/cache"
	"codelearn/internal/middleware"
	"codelearn/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer     = "codelearn-api"
	tokenAudience   = "codelearn-client"
	defaultTokenTTL = 7 * 24 * time.Hour
)

// tokenClaims is what AuthRequired extracts from a verified token.
type tokenClaims struct {
	UserID    uint
	JTI       string
	ExpiresAt time.Time
}

func (s *Server) tokenTTL() time.Duration {
	if ttl := time.Duration(s.config.JWTTTLHours) * time.Hour; ttl > 0 {
		return ttl
	}
	return defaultTokenTTL
}

// generateToken signs an HS256 token whose subject is userID. Each token
// carries a fresh jti so logout can revoke it alone.
func (s *Server) generateToken(userID uint) (string, error) {
	if s.config.JWTSecret == "" {
		return "", errors.New("JWT secret not configured")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    tokenIssuer,
		Audience:  jwt.ClaimStrings{tokenAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL())),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.JWTSecret))
}

// parseToken verifies signature, expiry, issuer and audience.
func (s *Server) parseToken(raw string) (*tokenClaims, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return []byte(s.config.JWTSecret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || userID == 0 {
		return nil, models.NewUnauthorizedError("Invalid user ID in token")
	}
	out := &tokenClaims{UserID: uint(userID), JTI: claims.ID}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func bearerToken(c *fiber.Ctx) string {
	scheme, token, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
	if !ok || scheme != "Bearer" {
		return ""
	}
	return strings.TrimSpace(token)
}

// isRevoked checks the logout blacklist. Without Redis nothing is revoked.
func (s *Server) isRevoked(ctx context.Context, jti string) bool {
	if jti == "" || s.redis == nil {
		return false
	}
	n, err := s.redis.Exists(ctx, cache.TokenBlacklistKey(jti)).Result()
	if err != nil {
		middleware.Logger.WarnContext(ctx, "blacklist lookup failed", slog.String("error", err.Error()))
		return false
	}
	return n > 0
}

// authenticate resolves the bearer token of c into claims.
func (s *Server) authenticate(c *fiber.Ctx) (*tokenClaims, error) {
	raw := bearerToken(c)
	if raw == "" {
		return nil, models.NewUnauthorizedError("Authorization required")
	}
	claims, err := s.parseToken(raw)
	if err != nil {
		return nil, err
	}
	if s.isRevoked(c.UserContext(), claims.JTI) {
		return nil, models.NewUnauthorizedError("Token has been revoked")
	}
	return claims, nil
}

// AuthRequired rejects requests without a valid, unrevoked bearer token and
// exposes the caller through currentUserID.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := s.authenticate(c)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		c.Locals("userID", claims.UserID)
		c.Locals("tokenClaims", claims)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), claims.UserID))
		return c.Next()
	}
}

// optionalUserID is the caller of a public route, or 0 for anonymous and
// invalid tokens.
func (s *Server) optionalUserID(c *fiber.Ctx) uint {
	claims, err := s.authenticate(c)
	if err != nil {
		return 0
	}
	return claims.UserID
}
