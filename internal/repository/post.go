package repository

import (
	"context"
	"strings"

	"codelearn/internal/models"

	"gorm.io/gorm"
)

// PostSort selects the ordering of post lists.
type PostSort string

const (
	PostSortNewest  PostSort = "newest"
	PostSortPopular PostSort = "popular"
)

// PostFilter narrows post lists. Zero values match everything.
type PostFilter struct {
	Language   string
	Difficulty models.Difficulty
	Search     string
	AuthorID   uint
	Sort       PostSort
	Limit      int
	Offset     int
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error)
	List(ctx context.Context, filter PostFilter, viewerID uint) ([]*models.Post, error)
	IncrementViews(ctx context.Context, id uint) error
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	BumpVersion(ctx context.Context, id, version uint) error
	IsLiked(ctx context.Context, userID, postID uint) (bool, error)
	Like(ctx context.Context, userID, postID uint) error
	Unlike(ctx context.Context, userID, postID uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit("Author").Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// withLikeCount selects the like count alongside the post columns so it can drive ordering.
func withLikeCount(db *gorm.DB) *gorm.DB {
	return db.Select("posts.*, (SELECT COUNT(*) FROM post_likes WHERE post_likes.post_id = posts.id) AS likes_count")
}

func (r *postRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error) {
	var post models.Post
	err := withLikeCount(r.db.WithContext(ctx)).
		Preload("Author", publicUser).
		First(&post, id).Error
	if err != nil {
		return nil, notFoundOr(err, "Post", id)
	}
	if err := r.attachLikes(ctx, []*models.Post{&post}, viewerID); err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter, viewerID uint) ([]*models.Post, error) {
	posts := []*models.Post{}
	q := withLikeCount(r.db.WithContext(ctx)).Preload("Author", publicUser)

	if filter.Language != "" {
		q = q.Where("posts.language = ?", filter.Language)
	}
	if filter.Difficulty != "" {
		q = q.Where("posts.difficulty = ?", filter.Difficulty)
	}
	if filter.AuthorID != 0 {
		q = q.Where("posts.author_id = ?", filter.AuthorID)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("(LOWER(posts.title) LIKE ? OR LOWER(posts.problem) LIKE ?)", like, like)
	}

	switch filter.Sort {
	case PostSortPopular:
		q = q.Order("likes_count DESC, posts.views DESC, posts.created_at DESC, posts.id DESC")
	default:
		q = q.Order("posts.created_at DESC, posts.id DESC")
	}

	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	if err := q.Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := r.attachLikes(ctx, posts, viewerID); err != nil {
		return nil, err
	}
	return posts, nil
}

// attachLikes fills Likes, LikesCount and Liked from post_likes in one query.
func (r *postRepository) attachLikes(ctx context.Context, posts []*models.Post, viewerID uint) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
		p.Likes = []uint{}
	}

	var likes []models.PostLike
	if err := r.db.WithContext(ctx).
		Where("post_id IN ?", ids).
		Order("created_at ASC, user_id ASC").
		Find(&likes).Error; err != nil {
		return models.NewInternalError(err)
	}

	byPost := make(map[uint]*models.Post, len(posts))
	for _, p := range posts {
		byPost[p.ID] = p
	}
	for _, l := range likes {
		p := byPost[l.PostID]
		p.Likes = append(p.Likes, l.UserID)
		if viewerID != 0 && l.UserID == viewerID {
			p.Liked = true
		}
	}
	for _, p := range posts {
		p.LikesCount = len(p.Likes)
	}
	return nil
}

// IncrementViews bumps the view counter without touching the version.
func (r *postRepository) IncrementViews(ctx context.Context, id uint) error {
	rows, err := increment(ctx, r.db, &models.Post{}, "views", id, 1)
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

// Update writes the author-editable columns.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Model(&models.Post{ID: post.ID}).
		Select("title", "problem", "code", "language", "tags", "difficulty", "updated_at").
		Updates(post).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes the post with its likes and discussion thread. Callers run
// it in a transaction.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("post_id = ?", id).Delete(&models.PostLike{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	if err := NewDiscussionRepository(r.db).DeleteByPostID(ctx, id); err != nil {
		return err
	}
	res := db.Delete(&models.Post{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

func (r *postRepository) BumpVersion(ctx context.Context, id, version uint) error {
	return bumpVersion(ctx, r.db, &models.Post{}, id, version)
}

func (r *postRepository) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PostLike{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *postRepository) Like(ctx context.Context, userID, postID uint) error {
	if err := r.db.WithContext(ctx).Create(&models.PostLike{PostID: postID, UserID: userID}).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.ErrVersionConflict
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) Unlike(ctx context.Context, userID, postID uint) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.PostLike{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
