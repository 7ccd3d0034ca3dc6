package server

import (
	"time"

	"codelearn/internal/models"
	"codelearn/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetContests handles GET /api/contests
func (s *Server) GetContests(c *fiber.Ctx) error {
	page := parsePagination(c, 50)
	contests, err := s.contestService.ListContests(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(contests)
}

// GetOrganizedContests handles GET /api/contests/organizer/:userId
func (s *Server) GetOrganizedContests(c *fiber.Ctx) error {
	organizerID, err := pathID(c, "userId")
	if err != nil {
		return s.respondError(c, err)
	}
	page := parsePagination(c, 50)
	contests, err := s.contestService.ListByOrganizer(c.UserContext(), organizerID, page.Limit, page.Offset)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(contests)
}

// GetContest handles GET /api/contests/:id
func (s *Server) GetContest(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	contest, err := s.contestService.GetContest(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(contest)
}

// GetStandings handles GET /api/contests/:id/standings
func (s *Server) GetStandings(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	standings, err := s.contestService.Standings(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(standings)
}

// CreateContest handles POST /api/contests
func (s *Server) CreateContest(c *fiber.Ctx) error {
	var req struct {
		Title       string    `json:"title"`
		Description string    `json:"description"`
		StartTime   time.Time `json:"start_time"`
		Duration    int       `json:"duration"`
		Problems    []struct {
			Title       string            `json:"title"`
			Description string            `json:"description"`
			Difficulty  models.Difficulty `json:"difficulty"`
			Points      int               `json:"points"`
			TestCases   []models.TestCase `json:"test_cases"`
		} `json:"problems"`
		GroupIDs []uint `json:"group_ids"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	in := service.CreateContestInput{
		CreatorID:   currentUserID(c),
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		Duration:    req.Duration,
		GroupIDs:    req.GroupIDs,
	}
	for _, p := range req.Problems {
		in.Problems = append(in.Problems, service.ProblemInput{
			Title:       p.Title,
			Description: p.Description,
			Difficulty:  p.Difficulty,
			Points:      p.Points,
			TestCases:   p.TestCases,
		})
	}

	contest, err := s.contestService.CreateContest(c.UserContext(), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(contest)
}

// SubmitSolution handles POST /api/contests/:id/submit
func (s *Server) SubmitSolution(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	var req struct {
		ProblemIndex *int   `json:"problem_index"`
		Code         string `json:"code"`
		Language     string `json:"language"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}
	if req.ProblemIndex == nil {
		return s.respondError(c, models.NewValidationError("problem_index is required"))
	}

	submission, err := s.contestService.Submit(c.UserContext(), service.SubmitInput{
		ContestID:    id,
		UserID:       currentUserID(c),
		ProblemIndex: *req.ProblemIndex,
		Code:         req.Code,
		Language:     req.Language,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":    "Solution submitted successfully",
		"submission": submission,
	})
}

// RefreshContestStatus handles PUT /api/contests/:id/status
func (s *Server) RefreshContestStatus(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	contest, err := s.contestService.RefreshStatus(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(contest)
}

// DeleteContest handles DELETE /api/contests/:id
func (s *Server) DeleteContest(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	if err := s.contestService.DeleteContest(c.UserContext(), id, currentUserID(c)); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Contest deleted successfully"})
}
