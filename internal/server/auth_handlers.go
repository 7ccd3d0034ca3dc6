package server

import (
	"log/slog"
	"time"

	"codelearn/internal/cache"
	"codelearn/internal/middleware"
	"codelearn/internal/models"
	"codelearn/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /api/auth/register
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Name       string `json:"name"`
		Email      string `json:"email"`
		Password   string `json:"password"`
		College    string `json:"college"`
		Department string `json:"department"`
		Year       int    `json:"year"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	user, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		College:    req.College,
		Department: req.Department,
		Year:       req.Year,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return s.respondError(c, models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	user, err := s.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return s.respondError(c, err)
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return s.respondError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Logout handles POST /api/auth/logout. The token's jti is blacklisted until
// the token would have expired anyway.
func (s *Server) Logout(c *fiber.Ctx) error {
	claims, _ := c.Locals("tokenClaims").(*tokenClaims)
	if claims == nil || claims.JTI == "" {
		return c.JSON(fiber.Map{"message": "Logged out"})
	}

	ttl := time.Until(claims.ExpiresAt)
	if s.redis == nil {
		middleware.Logger.WarnContext(c.UserContext(), "logout without redis, token stays valid until expiry")
	} else if ttl > 0 {
		if err := s.redis.Set(c.UserContext(), cache.TokenBlacklistKey(claims.JTI), "1", ttl).Err(); err != nil {
			middleware.Logger.ErrorContext(c.UserContext(), "failed to blacklist token", slog.String("error", err.Error()))
			return s.respondError(c, models.NewInternalError(err))
		}
	}

	return c.JSON(fiber.Map{"message": "Logged out"})
}

// GetMe handles GET /api/auth/me
func (s *Server) GetMe(c *fiber.Ctx) error {
	user, err := s.userService.GetUserByID(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateProfile handles PUT /api/auth/profile
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var req struct {
		Name       *string  `json:"name"`
		College    *string  `json:"college"`
		Department *string  `json:"department"`
		Year       *int     `json:"year"`
		Bio        *string  `json:"bio"`
		Avatar     *string  `json:"avatar"`
		Skills     []string `json:"skills"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:     currentUserID(c),
		Name:       req.Name,
		College:    req.College,
		Department: req.Department,
		Year:       req.Year,
		Bio:        req.Bio,
		Avatar:     req.Avatar,
		Skills:     req.Skills,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(user)
}
