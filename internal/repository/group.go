package repository

import (
	"context"

	"codelearn/internal/models"

	"gorm.io/gorm"
)

// GroupRepository defines persistence operations for groups and their rosters.
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id uint) (*models.Group, error)
	ListForUser(ctx context.Context, userID uint) ([]models.Group, error)
	ListPublic(ctx context.Context, limit, offset int) ([]models.Group, error)
	ListByCreator(ctx context.Context, creatorID uint, limit, offset int) ([]models.Group, error)
	BumpVersion(ctx context.Context, id, version uint) error
	AddMember(ctx context.Context, member *models.GroupMember) error
	RemoveMember(ctx context.Context, groupID, userID uint) (bool, error)
	Delete(ctx context.Context, id uint) error
	AddScore(ctx context.Context, id uint, points int) error
	ExistingIDs(ctx context.Context, ids []uint) ([]uint, error)
}

type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository returns a new GroupRepository implementation.
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

// Create inserts the group together with its initial roster.
func (r *groupRepository) Create(ctx context.Context, group *models.Group) error {
	if err := r.db.WithContext(ctx).Create(group).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *groupRepository) withRoster(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Creator", publicUser).
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("group_members.id ASC")
		}).
		Preload("Members.User", publicUser)
}

func (r *groupRepository) GetByID(ctx context.Context, id uint) (*models.Group, error) {
	var group models.Group
	if err := r.withRoster(r.db.WithContext(ctx)).First(&group, id).Error; err != nil {
		return nil, notFoundOr(err, "Group", id)
	}
	return &group, nil
}

// ListForUser returns the groups userID belongs to, newest first.
func (r *groupRepository) ListForUser(ctx context.Context, userID uint) ([]models.Group, error) {
	groups := []models.Group{}
	memberOf := r.db.Model(&models.GroupMember{}).Select("group_id").Where("user_id = ?", userID)
	err := r.withRoster(r.db.WithContext(ctx)).
		Where("id IN (?)", memberOf).
		Order("created_at DESC, id DESC").
		Find(&groups).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return groups, nil
}

// ListPublic returns non-private groups, newest first.
func (r *groupRepository) ListPublic(ctx context.Context, limit, offset int) ([]models.Group, error) {
	groups := []models.Group{}
	err := r.withRoster(r.db.WithContext(ctx)).
		Where("is_private = ?", false).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&groups).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return groups, nil
}

// ListByCreator returns the groups creatorID owns, private ones included,
// newest first.
func (r *groupRepository) ListByCreator(ctx context.Context, creatorID uint, limit, offset int) ([]models.Group, error) {
	groups := []models.Group{}
	err := r.withRoster(r.db.WithContext(ctx)).
		Where("creator_id = ?", creatorID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&groups).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return groups, nil
}

func (r *groupRepository) BumpVersion(ctx context.Context, id, version uint) error {
	return bumpVersion(ctx, r.db, &models.Group{}, id, version)
}

func (r *groupRepository) AddMember(ctx context.Context, member *models.GroupMember) error {
	if err := r.db.WithContext(ctx).Create(member).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewBusinessRuleError("Already a member of this group")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// RemoveMember reports whether a roster row was deleted.
func (r *groupRepository) RemoveMember(ctx context.Context, groupID, userID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMember{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Delete removes the roster and then the group. Callers run it in a transaction.
func (r *groupRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("group_id = ?", id).Delete(&models.GroupMember{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	res := db.Delete(&models.Group{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Group", id)
	}
	return nil
}

func (r *groupRepository) AddScore(ctx context.Context, id uint, points int) error {
	rows, err := increment(ctx, r.db, &models.Group{}, "group_score", id, points)
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.NewNotFoundError("Group", id)
	}
	return nil
}

// ExistingIDs returns the subset of ids that name existing groups.
func (r *groupRepository) ExistingIDs(ctx context.Context, ids []uint) ([]uint, error) {
	found := []uint{}
	if len(ids) == 0 {
		return found, nil
	}
	if err := r.db.WithContext(ctx).Model(&models.Group{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return found, nil
}
