package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	checkHealthy     = "healthy"
	checkUnhealthy   = "unhealthy"
	checkUnavailable = "unavailable"

	readinessTimeout = 5 * time.Second
)

// LivenessCheck handles GET /health/live.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "up", "time": time.Now()})
}

func (s *Server) checkDatabase(ctx context.Context) string {
	if s.db == nil {
		return checkUnavailable
	}
	sqlDB, err := s.db.DB()
	if err != nil || sqlDB.PingContext(ctx) != nil {
		return checkUnhealthy
	}
	return checkHealthy
}

func (s *Server) checkRedis(ctx context.Context) string {
	switch {
	case s.redis == nil:
		return checkUnavailable
	case s.redis.Ping(ctx).Err() != nil:
		return checkUnhealthy
	}
	return checkHealthy
}

// ReadinessCheck handles GET /health/ready. The database is required; Redis
// only backs caches and the logout blacklist, so losing it reports
// "degraded" with a 200.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	checks := fiber.Map{
		"database": s.checkDatabase(ctx),
		"redis":    s.checkRedis(ctx),
	}

	code, status := fiber.StatusOK, checkHealthy
	switch {
	case checks["database"] != checkHealthy:
		code, status = fiber.StatusServiceUnavailable, checkUnhealthy
	case checks["redis"] != checkHealthy:
		status = "degraded"
	}

	return c.Status(code).JSON(fiber.Map{
		"version": apiVersion,
		"status":  status,
		"checks":  checks,
		"time":    time.Now(),
	})
}
