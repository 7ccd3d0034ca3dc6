package service

import (
	"context"
	"strings"

	"codelearn/internal/cache"
	"codelearn/internal/models"
	"codelearn/internal/repository"
	"codelearn/internal/validation"
)

// PostService manages shared solutions and post likes.
type PostService struct {
	repos *repository.Repos
	tx    repository.Transactor
}

type CreatePostInput struct {
	AuthorID   uint
	Title      string
	Problem    string
	Code       string
	Language   string
	Tags       []string
	Difficulty models.Difficulty
}

type ListPostsInput struct {
	Language   string
	Difficulty models.Difficulty
	Search     string
	SortBy     string
	AuthorID   uint
	Limit      int
	Offset     int
	ViewerID   uint
}

// UpdatePostInput keeps a field unchanged when it is empty.
type UpdatePostInput struct {
	UserID     uint
	PostID     uint
	Title      string
	Problem    string
	Code       string
	Language   string
	Tags       []string
	Difficulty models.Difficulty
}

// LikeResult reports the like state after a toggle.
type LikeResult struct {
	Liked      bool   `json:"liked"`
	LikesCount int    `json:"likes_count"`
	Likes      []uint `json:"likes"`
}

func NewPostService(repos *repository.Repos, tx repository.Transactor) *PostService {
	return &PostService{repos: repos, tx: tx}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	const maxCodeLen = 100000

	title := strings.TrimSpace(in.Title)
	if err := validation.ValidateTitle("title", title); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if strings.TrimSpace(in.Problem) == "" {
		return nil, models.NewValidationError("problem is required")
	}
	if strings.TrimSpace(in.Code) == "" {
		return nil, models.NewValidationError("code is required")
	}
	if len(in.Code) > maxCodeLen {
		return nil, models.NewValidationError("code too long (max 100000 characters)")
	}
	if !models.IsSupportedLanguage(in.Language) {
		return nil, models.NewValidationError("Unsupported language")
	}
	difficulty := in.Difficulty
	if difficulty == "" {
		difficulty = models.DifficultyMedium
	}
	if !difficulty.Valid() {
		return nil, models.NewValidationError("Invalid difficulty")
	}
	tags, err := validation.NormalizeTags(in.Tags)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	post := &models.Post{
		AuthorID:   in.AuthorID,
		Title:      title,
		Problem:    in.Problem,
		Code:       in.Code,
		Language:   in.Language,
		Tags:       tags,
		Difficulty: difficulty,
		Version:    1,
	}

	var author *models.User
	err = s.tx.Transaction(ctx, func(tx *repository.Repos) error {
		var err error
		if author, err = tx.Users.GetByID(ctx, in.AuthorID); err != nil {
			return err
		}
		if err := tx.Posts.Create(ctx, post); err != nil {
			return err
		}
		return award(ctx, tx, in.AuthorID, PointsCreatePost)
	})
	if err != nil {
		return nil, err
	}
	recordAward(reasonPost, PointsCreatePost)
	cache.InvalidateLeaderboards(ctx, author.College, author.Department)

	return s.repos.Posts.GetByID(ctx, post.ID, in.AuthorID)
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	if in.Language != "" && !models.IsSupportedLanguage(in.Language) {
		return nil, models.NewValidationError("Unsupported language")
	}
	if in.Difficulty != "" && !in.Difficulty.Valid() {
		return nil, models.NewValidationError("Invalid difficulty")
	}
	sort := repository.PostSortNewest
	if in.SortBy == string(repository.PostSortPopular) {
		sort = repository.PostSortPopular
	}
	return s.repos.Posts.List(ctx, repository.PostFilter{
		Language:   in.Language,
		Difficulty: in.Difficulty,
		Search:     in.Search,
		AuthorID:   in.AuthorID,
		Sort:       sort,
		Limit:      in.Limit,
		Offset:     in.Offset,
	}, in.ViewerID)
}

// GetPost returns the post and counts the view.
func (s *PostService) GetPost(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	if err := s.repos.Posts.IncrementViews(ctx, id); err != nil {
		return nil, err
	}
	return s.repos.Posts.GetByID(ctx, id, viewerID)
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	err := retryOnConflict(ctx, "Post", func() error {
		return s.tx.Transaction(ctx, func(tx *repository.Repos) error {
			post, err := tx.Posts.GetByID(ctx, in.PostID, in.UserID)
			if err != nil {
				return err
			}
			if post.AuthorID != in.UserID {
				return models.NewUnauthorizedError("Only the author can edit this post")
			}

			if title := strings.TrimSpace(in.Title); title != "" {
				if err := validation.ValidateTitle("title", title); err != nil {
					return models.NewValidationError(err.Error())
				}
				post.Title = title
			}
			if strings.TrimSpace(in.Problem) != "" {
				post.Problem = in.Problem
			}
			if strings.TrimSpace(in.Code) != "" {
				post.Code = in.Code
			}
			if in.Language != "" {
				if !models.IsSupportedLanguage(in.Language) {
					return models.NewValidationError("Unsupported language")
				}
				post.Language = in.Language
			}
			if in.Difficulty != "" {
				if !in.Difficulty.Valid() {
					return models.NewValidationError("Invalid difficulty")
				}
				post.Difficulty = in.Difficulty
			}
			if in.Tags != nil {
				tags, err := validation.NormalizeTags(in.Tags)
				if err != nil {
					return models.NewValidationError(err.Error())
				}
				post.Tags = tags
			}

			if err := tx.Posts.BumpVersion(ctx, post.ID, post.Version); err != nil {
				return err
			}
			return tx.Posts.Update(ctx, post)
		})
	})
	if err != nil {
		return nil, err
	}
	return s.repos.Posts.GetByID(ctx, in.PostID, in.UserID)
}

// DeletePost removes the post with its likes and discussion. Author only.
func (s *PostService) DeletePost(ctx context.Context, postID, userID uint) error {
	return retryOnConflict(ctx, "Post", func() error {
		return s.tx.Transaction(ctx, func(tx *repository.Repos) error {
			post, err := tx.Posts.GetByID(ctx, postID, 0)
			if err != nil {
				return err
			}
			if post.AuthorID != userID {
				return models.NewUnauthorizedError("Only the author can delete this post")
			}
			if err := tx.Posts.BumpVersion(ctx, post.ID, post.Version); err != nil {
				return err
			}
			return tx.Posts.Delete(ctx, post.ID)
		})
	})
}

// ToggleLike likes the post when the caller has not, otherwise unlikes it.
// A like credits the author; an unlike deducts nothing.
func (s *PostService) ToggleLike(ctx context.Context, postID, userID uint) (*LikeResult, error) {
	var (
		liked  bool
		author *models.User
	)
	err := retryOnConflict(ctx, "Post", func() error {
		return s.tx.Transaction(ctx, func(tx *repository.Repos) error {
			post, err := tx.Posts.GetByID(ctx, postID, userID)
			if err != nil {
				return err
			}
			if err := tx.Posts.BumpVersion(ctx, post.ID, post.Version); err != nil {
				return err
			}
			if post.Liked {
				liked = false
				return tx.Posts.Unlike(ctx, userID, post.ID)
			}
			liked = true
			if err := tx.Posts.Like(ctx, userID, post.ID); err != nil {
				return err
			}
			if author, err = tx.Users.GetByID(ctx, post.AuthorID); err != nil {
				return err
			}
			if err := award(ctx, tx, post.AuthorID, PointsPostLiked); err != nil {
				return err
			}
			return notify(ctx, tx, &models.Notification{
				UserID:      post.AuthorID,
				ActorID:     userID,
				Type:        models.NotificationPostLiked,
				RelatedType: "post",
				RelatedID:   post.ID,
			}, post.Title)
		})
	})
	if err != nil {
		return nil, err
	}
	if liked {
		recordAward(reasonPostLiked, PointsPostLiked)
		cache.InvalidateLeaderboards(ctx, author.College, author.Department)
	}

	post, err := s.repos.Posts.GetByID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	return &LikeResult{Liked: post.Liked, LikesCount: post.LikesCount, Likes: post.Likes}, nil
}
