package server

import (
	"codelearn/internal/models"
	"codelearn/internal/service"

	"github.com/gofiber/fiber/v2"
)

type postRequest struct {
	Title      string            `json:"title"`
	Problem    string            `json:"problem"`
	Code       string            `json:"code"`
	Language   string            `json:"language"`
	Tags       []string          `json:"tags"`
	Difficulty models.Difficulty `json:"difficulty"`
}

// GetPosts handles GET /api/posts
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	posts, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		Language:   c.Query("language"),
		Difficulty: models.Difficulty(c.Query("difficulty")),
		Search:     c.Query("search"),
		SortBy:     c.Query("sort_by"),
		Limit:      page.Limit,
		Offset:     page.Offset,
		ViewerID:   s.optionalUserID(c),
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(posts)
}

// GetUserPosts handles GET /api/posts/user/:userId
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	authorID, err := pathID(c, "userId")
	if err != nil {
		return s.respondError(c, err)
	}
	page := parsePagination(c, 20)

	posts, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		AuthorID: authorID,
		Limit:    page.Limit,
		Offset:   page.Offset,
		ViewerID: s.optionalUserID(c),
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}

	post, err := s.postService.GetPost(c.UserContext(), id, s.optionalUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		AuthorID:   currentUserID(c),
		Title:      req.Title,
		Problem:    req.Problem,
		Code:       req.Code,
		Language:   req.Language,
		Tags:       req.Tags,
		Difficulty: req.Difficulty,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID:     currentUserID(c),
		PostID:     id,
		Title:      req.Title,
		Problem:    req.Problem,
		Code:       req.Code,
		Language:   req.Language,
		Tags:       req.Tags,
		Difficulty: req.Difficulty,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	if err := s.postService.DeletePost(c.UserContext(), id, currentUserID(c)); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}

// TogglePostLike handles PUT /api/posts/:id/like
func (s *Server) TogglePostLike(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	res, err := s.postService.ToggleLike(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(res)
}
