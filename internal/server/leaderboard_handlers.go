package server

import (
	"net/url"

	"codelearn/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetGlobalLeaderboard handles GET /api/leaderboard/global
func (s *Server) GetGlobalLeaderboard(c *fiber.Ctx) error {
	board, err := s.leaderboardService.Global(c.UserContext(), s.optionalUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(board)
}

// GetCollegeLeaderboard handles GET /api/leaderboard/college
func (s *Server) GetCollegeLeaderboard(c *fiber.Ctx) error {
	board, err := s.leaderboardService.College(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(board)
}

// GetDepartmentLeaderboard handles GET /api/leaderboard/department/:department
func (s *Server) GetDepartmentLeaderboard(c *fiber.Ctx) error {
	department, err := url.PathUnescape(c.Params("department"))
	if err != nil {
		return s.respondError(c, models.NewValidationError("Invalid department"))
	}
	board, err := s.leaderboardService.Department(c.UserContext(), currentUserID(c), department)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(board)
}

// GetGroupLeaderboard handles GET /api/leaderboard/groups
func (s *Server) GetGroupLeaderboard(c *fiber.Ctx) error {
	groups, err := s.leaderboardService.Groups(c.UserContext())
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(groups)
}
