package service

import (
	"context"
	"strings"

	"codelearn/internal/cache"
	"codelearn/internal/models"
	"codelearn/internal/observability"
	"codelearn/internal/repository"
	"codelearn/internal/validation"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.opentelemetry.io/otel/attribute"
)

// GroupService manages study groups and their rosters.
type GroupService struct {
	repos *repository.Repos
	tx    repository.Transactor
}

type CreateGroupInput struct {
	CreatorID     uint
	Name          string
	Description   string
	IsPrivate     bool
	AllowedEmails []string
}

type JoinGroupInput struct {
	GroupID    uint
	UserID     uint
	InviteCode string
}

func NewGroupService(repos *repository.Repos, tx repository.Transactor) *GroupService {
	return &GroupService{repos: repos, tx: tx}
}

// newInviteCode returns 12 lowercase hex characters.
func newInviteCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func (s *GroupService) CreateGroup(ctx context.Context, in CreateGroupInput) (*models.Group, error) {
	name := strings.TrimSpace(in.Name)
	if err := validation.ValidateTitle("name", name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, models.NewValidationError("description is required")
	}

	allowed := make([]string, 0, len(in.AllowedEmails))
	for _, e := range in.AllowedEmails {
		e = validation.NormalizeEmail(e)
		if e == "" {
			continue
		}
		if err := validation.ValidateEmail(e); err != nil {
			return nil, models.NewValidationError("allowed_emails: " + err.Error())
		}
		allowed = append(allowed, e)
	}

	group := &models.Group{
		Name:          name,
		Slug:          slug.Make(name),
		Description:   strings.TrimSpace(in.Description),
		CreatorID:     in.CreatorID,
		InviteCode:    newInviteCode(),
		AllowedEmails: allowed,
		IsPrivate:     in.IsPrivate,
		Version:       1,
		Members: []models.GroupMember{
			{UserID: in.CreatorID, Role: models.GroupRoleAdmin},
		},
	}
	if err := s.repos.Groups.Create(ctx, group); err != nil {
		return nil, err
	}
	cache.Invalidate(ctx, cache.GroupLeaderboardKey)
	return s.repos.Groups.GetByID(ctx, group.ID)
}

// GetGroup returns the group with its roster. Non-members do not see the invite code.
func (s *GroupService) GetGroup(ctx context.Context, id, viewerID uint) (*models.Group, error) {
	group, err := s.repos.Groups.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return group.Redacted(viewerID), nil
}

// ListMyGroups returns the caller's groups, newest first.
func (s *GroupService) ListMyGroups(ctx context.Context, userID uint) ([]models.Group, error) {
	return s.repos.Groups.ListForUser(ctx, userID)
}

// ListPublicGroups returns non-private groups, newest first.
func (s *GroupService) ListPublicGroups(ctx context.Context, viewerID uint, limit, offset int) ([]*models.Group, error) {
	groups, err := s.repos.Groups.ListPublic(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Group, 0, len(groups))
	for i := range groups {
		out = append(out, groups[i].Redacted(viewerID))
	}
	return out, nil
}

// ListByOwner returns the groups ownerID created, private ones included.
// Invite codes stay hidden from viewers outside each group.
func (s *GroupService) ListByOwner(ctx context.Context, ownerID, viewerID uint, limit, offset int) ([]*models.Group, error) {
	if _, err := s.repos.Users.GetByID(ctx, ownerID); err != nil {
		return nil, err
	}
	groups, err := s.repos.Groups.ListByCreator(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Group, 0, len(groups))
	for i := range groups {
		out = append(out, groups[i].Redacted(viewerID))
	}
	return out, nil
}

// JoinGroup appends the caller to the roster. The first failing check wins:
// membership, invite code, then email allow-list.
func (s *GroupService) JoinGroup(ctx context.Context, in JoinGroupInput) (*models.Group, error) {
	ctx, span := observability.StartSpan(ctx, "group", "join",
		attribute.Int64("group.id", int64(in.GroupID)),
		attribute.Int64("user.id", int64(in.UserID)),
	)
	var err error
	defer func() { observability.EndSpan(span, err) }()

	err = retryOnConflict(ctx, "Group", func() error {
		return s.tx.Transaction(ctx, func(tx *repository.Repos) error {
			group, err := tx.Groups.GetByID(ctx, in.GroupID)
			if err != nil {
				return err
			}
			if group.HasMember(in.UserID) {
				return models.NewBusinessRuleError("Already a member of this group")
			}
			if group.IsPrivate && in.InviteCode != group.InviteCode {
				return models.NewBusinessRuleError("Invalid invite code")
			}
			user, err := tx.Users.GetByID(ctx, in.UserID)
			if err != nil {
				return err
			}
			if !group.AllowsEmail(validation.NormalizeEmail(user.Email)) {
				return models.NewBusinessRuleError("Your email is not allowed to join this group")
			}

			if err := tx.Groups.BumpVersion(ctx, group.ID, group.Version); err != nil {
				return err
			}
			if err := tx.Groups.AddMember(ctx, &models.GroupMember{
				GroupID: group.ID,
				UserID:  in.UserID,
				Role:    models.GroupRoleMember,
			}); err != nil {
				return err
			}
			return notify(ctx, tx, &models.Notification{
				UserID:      group.CreatorID,
				ActorID:     in.UserID,
				Type:        models.NotificationGroupJoined,
				RelatedType: "group",
				RelatedID:   group.ID,
			}, group.Name)
		})
	})
	if err != nil {
		return nil, err
	}
	cache.Invalidate(ctx, cache.GroupLeaderboardKey)
	return s.repos.Groups.GetByID(ctx, in.GroupID)
}

// LeaveGroup removes the caller from the roster. The creator cannot leave.
func (s *GroupService) LeaveGroup(ctx context.Context, groupID, userID uint) error {
	err := retryOnConflict(ctx, "Group", func() error {
		return s.tx.Transaction(ctx, func(tx *repository.Repos) error {
			group, err := tx.Groups.GetByID(ctx, groupID)
			if err != nil {
				return err
			}
			if group.CreatorID == userID {
				return models.NewBusinessRuleError("Creator cannot leave the group. Delete it instead.")
			}
			if !group.HasMember(userID) {
				return models.NewBusinessRuleError("You are not a member of this group")
			}
			if err := tx.Groups.BumpVersion(ctx, group.ID, group.Version); err != nil {
				return err
			}
			_, err = tx.Groups.RemoveMember(ctx, group.ID, userID)
			return err
		})
	})
	if err != nil {
		return err
	}
	cache.Invalidate(ctx, cache.GroupLeaderboardKey)
	return nil
}

// DeleteGroup removes the group and every membership. Creator only. Contest
// standings the group appeared in are dropped from the cache.
func (s *GroupService) DeleteGroup(ctx context.Context, groupID, userID uint) error {
	var contestIDs []uint
	err := retryOnConflict(ctx, "Group", func() error {
		return s.tx.Transaction(ctx, func(tx *repository.Repos) error {
			group, err := tx.Groups.GetByID(ctx, groupID)
			if err != nil {
				return err
			}
			if group.CreatorID != userID {
				return models.NewUnauthorizedError("Only the group creator can delete this group")
			}
			if err := tx.Groups.BumpVersion(ctx, group.ID, group.Version); err != nil {
				return err
			}
			if contestIDs, err = tx.Contests.IDsForGroup(ctx, group.ID); err != nil {
				return err
			}
			return tx.Groups.Delete(ctx, group.ID)
		})
	})
	if err != nil {
		return err
	}
	cache.Invalidate(ctx, cache.GroupLeaderboardKey)
	for _, id := range contestIDs {
		cache.InvalidateStandings(ctx, id)
	}
	return nil
}
