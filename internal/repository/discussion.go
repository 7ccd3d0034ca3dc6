package repository

import (
	"context"
	"errors"

	"codelearn/internal/models"

	"gorm.io/gorm"
)

// DiscussionRepository defines persistence operations for post discussions.
type DiscussionRepository interface {
	GetOrCreate(ctx context.Context, postID uint) (*models.Discussion, error)
	Load(ctx context.Context, postID uint) (*models.Discussion, error)
	BumpVersion(ctx context.Context, id, version uint) error
	GetComment(ctx context.Context, discussionID, commentID uint) (*models.Comment, error)
	AddComment(ctx context.Context, comment *models.Comment) error
	AddReply(ctx context.Context, reply *models.Reply) error
	IsCommentLiked(ctx context.Context, userID, commentID uint) (bool, error)
	LikeComment(ctx context.Context, userID, commentID uint) error
	UnlikeComment(ctx context.Context, userID, commentID uint) error
	DeleteComment(ctx context.Context, commentID uint) error
	DeleteByPostID(ctx context.Context, postID uint) error
}

type discussionRepository struct {
	db *gorm.DB
}

// NewDiscussionRepository returns a new DiscussionRepository implementation.
func NewDiscussionRepository(db *gorm.DB) DiscussionRepository {
	return &discussionRepository{db: db}
}

// GetOrCreate returns the bare discussion row for postID, creating it on
// first access. A concurrent creator wins and its row is returned.
func (r *discussionRepository) GetOrCreate(ctx context.Context, postID uint) (*models.Discussion, error) {
	var d models.Discussion
	err := r.db.WithContext(ctx).Where("post_id = ?", postID).First(&d).Error
	if err == nil {
		return &d, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewInternalError(err)
	}

	d = models.Discussion{PostID: postID, Version: 1}
	if err := r.db.WithContext(ctx).Omit("Comments").Create(&d).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, models.ErrVersionConflict
		}
		return nil, models.NewInternalError(err)
	}
	return &d, nil
}

// Load returns the full thread: comments and replies in insertion order,
// with authors and comment likes.
func (r *discussionRepository) Load(ctx context.Context, postID uint) (*models.Discussion, error) {
	var d models.Discussion
	err := r.db.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.id ASC")
		}).
		Preload("Comments.User", publicUser).
		Preload("Comments.Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("replies.id ASC")
		}).
		Preload("Comments.Replies.User", publicUser).
		Where("post_id = ?", postID).
		First(&d).Error
	if err != nil {
		return nil, notFoundOr(err, "Discussion", postID)
	}

	if len(d.Comments) == 0 {
		return &d, nil
	}
	ids := make([]uint, 0, len(d.Comments))
	byID := make(map[uint]*models.Comment, len(d.Comments))
	for i := range d.Comments {
		c := &d.Comments[i]
		c.Likes = []uint{}
		ids = append(ids, c.ID)
		byID[c.ID] = c
	}

	var likes []models.CommentLike
	if err := r.db.WithContext(ctx).
		Where("comment_id IN ?", ids).
		Order("created_at ASC, user_id ASC").
		Find(&likes).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, l := range likes {
		c := byID[l.CommentID]
		c.Likes = append(c.Likes, l.UserID)
	}
	return &d, nil
}

func (r *discussionRepository) BumpVersion(ctx context.Context, id, version uint) error {
	return bumpVersion(ctx, r.db, &models.Discussion{}, id, version)
}

func (r *discussionRepository) GetComment(ctx context.Context, discussionID, commentID uint) (*models.Comment, error) {
	var c models.Comment
	err := r.db.WithContext(ctx).
		Where("id = ? AND discussion_id = ?", commentID, discussionID).
		First(&c).Error
	if err != nil {
		return nil, notFoundOr(err, "Comment", commentID)
	}
	return &c, nil
}

func (r *discussionRepository) AddComment(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Omit("User", "Replies").Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *discussionRepository) AddReply(ctx context.Context, reply *models.Reply) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(reply).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *discussionRepository) IsCommentLiked(ctx context.Context, userID, commentID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CommentLike{}).
		Where("user_id = ? AND comment_id = ?", userID, commentID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *discussionRepository) LikeComment(ctx context.Context, userID, commentID uint) error {
	if err := r.db.WithContext(ctx).Create(&models.CommentLike{CommentID: commentID, UserID: userID}).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.ErrVersionConflict
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *discussionRepository) UnlikeComment(ctx context.Context, userID, commentID uint) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND comment_id = ?", userID, commentID).
		Delete(&models.CommentLike{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// DeleteComment removes a comment with its replies and likes.
func (r *discussionRepository) DeleteComment(ctx context.Context, commentID uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("comment_id = ?", commentID).Delete(&models.Reply{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	if err := db.Where("comment_id = ?", commentID).Delete(&models.CommentLike{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	res := db.Delete(&models.Comment{}, commentID)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", commentID)
	}
	return nil
}

// DeleteByPostID removes a post's whole thread, if one was ever created.
func (r *discussionRepository) DeleteByPostID(ctx context.Context, postID uint) error {
	db := r.db.WithContext(ctx)
	discussionIDs := db.Model(&models.Discussion{}).Select("id").Where("post_id = ?", postID)
	commentIDs := db.Model(&models.Comment{}).Select("id").Where("discussion_id IN (?)", discussionIDs)

	if err := db.Where("comment_id IN (?)", commentIDs).Delete(&models.Reply{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	if err := db.Where("comment_id IN (?)", commentIDs).Delete(&models.CommentLike{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	if err := db.Where("discussion_id IN (?)", discussionIDs).Delete(&models.Comment{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	if err := db.Where("post_id = ?", postID).Delete(&models.Discussion{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
