package repository

import (
	"context"
	"errors"

	"codelearn/internal/models"

	"gorm.io/gorm"
)

// UserScope restricts a user ranking. Empty fields match everyone.
type UserScope struct {
	College    string
	Department string
}

func (s UserScope) apply(db *gorm.DB) *gorm.DB {
	if s.College != "" {
		db = db.Where("college = ?", s.College)
	}
	if s.Department != "" {
		db = db.Where("department = ?", s.Department)
	}
	return db
}

// LeaderboardRepository runs the read-only ranking queries. Ties on score are
// broken by id so ranks are stable.
type LeaderboardRepository interface {
	TopUsers(ctx context.Context, scope UserScope, limit int) ([]models.User, error)
	UserRank(ctx context.Context, scope UserScope, userID uint) (int, bool, error)
	TopGroups(ctx context.Context, limit int) ([]models.Group, error)
}

type leaderboardRepository struct {
	db *gorm.DB
}

// NewLeaderboardRepository returns a new LeaderboardRepository implementation.
func NewLeaderboardRepository(db *gorm.DB) LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

func (r *leaderboardRepository) TopUsers(ctx context.Context, scope UserScope, limit int) ([]models.User, error) {
	users := []models.User{}
	err := scope.apply(r.db.WithContext(ctx).Model(&models.User{})).
		Select(models.PublicUserColumns).
		Order("coding_score DESC, id ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// UserRank returns the 1-based position of userID within scope. The boolean
// is false when the user falls outside the scope.
func (r *leaderboardRepository) UserRank(ctx context.Context, scope UserScope, userID uint) (int, bool, error) {
	var user models.User
	err := scope.apply(r.db.WithContext(ctx).Model(&models.User{})).
		Select("id", "coding_score").
		Where("id = ?", userID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, models.NewInternalError(err)
	}

	var ahead int64
	err = scope.apply(r.db.WithContext(ctx).Model(&models.User{})).
		Where("(coding_score > ? OR (coding_score = ? AND id < ?))", user.CodingScore, user.CodingScore, user.ID).
		Count(&ahead).Error
	if err != nil {
		return 0, false, models.NewInternalError(err)
	}
	return int(ahead) + 1, true, nil
}

func (r *leaderboardRepository) TopGroups(ctx context.Context, limit int) ([]models.Group, error) {
	groups := []models.Group{}
	err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("group_members.id ASC")
		}).
		Preload("Members.User", publicUser).
		Order("group_score DESC, id ASC").
		Limit(limit).
		Find(&groups).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return groups, nil
}
