package server

import (
	"codelearn/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyGroups handles GET /api/groups
func (s *Server) GetMyGroups(c *fiber.Ctx) error {
	groups, err := s.groupService.ListMyGroups(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(groups)
}

// GetPublicGroups handles GET /api/groups/all
func (s *Server) GetPublicGroups(c *fiber.Ctx) error {
	page := parsePagination(c, 50)
	groups, err := s.groupService.ListPublicGroups(c.UserContext(), s.optionalUserID(c), page.Limit, page.Offset)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(groups)
}

// GetOwnedGroups handles GET /api/groups/owner/:userId
func (s *Server) GetOwnedGroups(c *fiber.Ctx) error {
	ownerID, err := pathID(c, "userId")
	if err != nil {
		return s.respondError(c, err)
	}
	page := parsePagination(c, 50)
	groups, err := s.groupService.ListByOwner(c.UserContext(), ownerID, s.optionalUserID(c), page.Limit, page.Offset)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(groups)
}

// GetGroup handles GET /api/groups/:id
func (s *Server) GetGroup(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	group, err := s.groupService.GetGroup(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(group)
}

// CreateGroup handles POST /api/groups
func (s *Server) CreateGroup(c *fiber.Ctx) error {
	var req struct {
		Name          string   `json:"name"`
		Description   string   `json:"description"`
		IsPrivate     bool     `json:"is_private"`
		AllowedEmails []string `json:"allowed_emails"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	group, err := s.groupService.CreateGroup(c.UserContext(), service.CreateGroupInput{
		CreatorID:     currentUserID(c),
		Name:          req.Name,
		Description:   req.Description,
		IsPrivate:     req.IsPrivate,
		AllowedEmails: req.AllowedEmails,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(group)
}

// JoinGroup handles POST /api/groups/:id/join
func (s *Server) JoinGroup(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	var req struct {
		InviteCode string `json:"invite_code"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c)
		}
	}

	group, err := s.groupService.JoinGroup(c.UserContext(), service.JoinGroupInput{
		GroupID:    id,
		UserID:     currentUserID(c),
		InviteCode: req.InviteCode,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(group)
}

// LeaveGroup handles DELETE /api/groups/:id/leave
func (s *Server) LeaveGroup(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	if err := s.groupService.LeaveGroup(c.UserContext(), id, currentUserID(c)); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Left group successfully"})
}

// DeleteGroup handles DELETE /api/groups/:id
func (s *Server) DeleteGroup(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	if err := s.groupService.DeleteGroup(c.UserContext(), id, currentUserID(c)); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Group deleted successfully"})
}
