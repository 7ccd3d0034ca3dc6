package server

import (
	"codelearn/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetDiscussion handles GET /api/discussions/:postId
func (s *Server) GetDiscussion(c *fiber.Ctx) error {
	postID, err := pathID(c, "postId")
	if err != nil {
		return s.respondError(c, err)
	}
	d, err := s.discussionService.GetDiscussion(c.UserContext(), postID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(d)
}

// AddComment handles POST /api/discussions/:postId/comment
func (s *Server) AddComment(c *fiber.Ctx) error {
	postID, err := pathID(c, "postId")
	if err != nil {
		return s.respondError(c, err)
	}
	var req struct {
		Content  string `json:"content"`
		Code     string `json:"code"`
		Language string `json:"language"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	d, err := s.discussionService.AddComment(c.UserContext(), service.AddCommentInput{
		PostID:   postID,
		UserID:   currentUserID(c),
		Content:  req.Content,
		Code:     req.Code,
		Language: req.Language,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(d)
}

// AddReply handles POST /api/discussions/:postId/comment/:commentId/reply
func (s *Server) AddReply(c *fiber.Ctx) error {
	postID, err := pathID(c, "postId")
	if err != nil {
		return s.respondError(c, err)
	}
	commentID, err := pathID(c, "commentId")
	if err != nil {
		return s.respondError(c, err)
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	d, err := s.discussionService.AddReply(c.UserContext(), service.AddReplyInput{
		PostID:    postID,
		CommentID: commentID,
		UserID:    currentUserID(c),
		Content:   req.Content,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(d)
}

// ToggleCommentLike handles PUT /api/discussions/:postId/comment/:commentId/like
func (s *Server) ToggleCommentLike(c *fiber.Ctx) error {
	postID, err := pathID(c, "postId")
	if err != nil {
		return s.respondError(c, err)
	}
	commentID, err := pathID(c, "commentId")
	if err != nil {
		return s.respondError(c, err)
	}
	d, err := s.discussionService.ToggleCommentLike(c.UserContext(), postID, commentID, currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(d)
}

// DeleteComment handles DELETE /api/discussions/:postId/comment/:commentId
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	postID, err := pathID(c, "postId")
	if err != nil {
		return s.respondError(c, err)
	}
	commentID, err := pathID(c, "commentId")
	if err != nil {
		return s.respondError(c, err)
	}
	d, err := s.discussionService.DeleteComment(c.UserContext(), postID, commentID, currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(d)
}
