package service

import (
	"context"
	"strings"

	"codelearn/internal/cache"
	"codelearn/internal/models"
	"codelearn/internal/repository"
)

// DiscussionService manages the comment thread attached to each post.
type DiscussionService struct {
	repos *repository.Repos
	tx    repository.Transactor
}

type AddCommentInput struct {
	PostID   uint
	UserID   uint
	Content  string
	Code     string
	Language string
}

type AddReplyInput struct {
	PostID    uint
	CommentID uint
	UserID    uint
	Content   string
}

func NewDiscussionService(repos *repository.Repos, tx repository.Transactor) *DiscussionService {
	return &DiscussionService{repos: repos, tx: tx}
}

// ensureDiscussion returns the post and its discussion, creating the
// discussion on first access.
func ensureDiscussion(ctx context.Context, tx *repository.Repos, postID uint) (*models.Post, *models.Discussion, error) {
	post, err := tx.Posts.GetByID(ctx, postID, 0)
	if err != nil {
		return nil, nil, err
	}
	d, err := tx.Discussions.GetOrCreate(ctx, postID)
	if err != nil {
		return nil, nil, err
	}
	return post, d, nil
}

// GetDiscussion returns the full thread for a post.
func (s *DiscussionService) GetDiscussion(ctx context.Context, postID uint) (*models.Discussion, error) {
	err := retryOnConflict(ctx, "Discussion", func() error {
		return s.tx.Transaction(ctx, func(tx *repository.Repos) error {
			_, _, err := ensureDiscussion(ctx, tx, postID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return s.repos.Discussions.Load(ctx, postID)
}

func (s *DiscussionService) AddComment(ctx context.Context, in AddCommentInput) (*models.Discussion, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("content is required")
	}
	if in.Language != "" && !models.IsSupportedLanguage(in.Language) {
		return nil, models.NewValidationError("Unsupported language")
	}

	var user *models.User
	err := retryOnConflict(ctx, "Discussion", func() error {
		return s.tx.Transaction(ctx, func(tx *repository.Repos) error {
			post, d, err := ensureDiscussion(ctx, tx, in.PostID)
			if err != nil {
				return err
			}
			if user, err = tx.Users.GetByID(ctx, in.UserID); err != nil {
				return err
			}
			if err := tx.Discussions.BumpVersion(ctx, d.ID, d.Version); err != nil {
				return err
			}
			comment := &models.Comment{
				DiscussionID: d.ID,
				UserID:       in.UserID,
				Content:      in.Content,
				Code:         in.Code,
				Language:     in.Language,
			}
			if err := tx.Discussions.AddComment(ctx, comment); err != nil {
				return err
			}
			if err := award(ctx, tx, in.UserID, PointsComment); err != nil {
				return err
			}
			return notify(ctx, tx, &models.Notification{
				UserID:      post.AuthorID,
				ActorID:     in.UserID,
				Type:        models.NotificationPostComment,
				RelatedType: "comment",
				RelatedID:   comment.ID,
			}, post.Title)
		})
	})
	if err != nil {
		return nil, err
	}
	recordAward(reasonComment, PointsComment)
	cache.InvalidateLeaderboards(ctx, user.College, user.Department)
	return s.repos.Discussions.Load(ctx, in.PostID)
}

func (s *DiscussionService) AddReply(ctx context.Context, in AddReplyInput) (*models.Discussion, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("content is required")
	}

	var user *models.User
	err := retryOnConflict(ctx, "Discussion", func() error {
		return s.tx.Transaction(ctx, func(tx *repository.Repos) error {
			post, d, err := ensureDiscussion(ctx, tx, in.PostID)
			if err != nil {
				return err
			}
			comment, err := tx.Discussions.GetComment(ctx, d.ID, in.CommentID)
			if err != nil {
				return err
			}
			if user, err = tx.Users.GetByID(ctx, in.UserID); err != nil {
				return err
			}
			if err := tx.Discussions.BumpVersion(ctx, d.ID, d.Version); err != nil {
				return err
			}
			if err := tx.Discussions.AddReply(ctx, &models.Reply{
				CommentID: in.CommentID,
				UserID:    in.UserID,
				Content:   in.Content,
			}); err != nil {
				return err
			}
			if err := award(ctx, tx, in.UserID, PointsReply); err != nil {
				return err
			}
			return notify(ctx, tx, &models.Notification{
				UserID:      comment.UserID,
				ActorID:     in.UserID,
				Type:        models.NotificationCommentReply,
				RelatedType: "comment",
				RelatedID:   comment.ID,
			}, post.Title)
		})
	})
	if err != nil {
		return nil, err
	}
	recordAward(reasonReply, PointsReply)
	cache.InvalidateLeaderboards(ctx, user.College, user.Department)
	return s.repos.Discussions.Load(ctx, in.PostID)
}

// ToggleCommentLike likes the comment when the caller has not, otherwise
// unlikes it. A like credits the comment author.
func (s *DiscussionService) ToggleCommentLike(ctx context.Context, postID, commentID, userID uint) (*models.Discussion, error) {
	var (
		liked  bool
		author *models.User
	)
	err := retryOnConflict(ctx, "Discussion", func() error {
		return s.tx.Transaction(ctx, func(tx *repository.Repos) error {
			post, d, err := ensureDiscussion(ctx, tx, postID)
			if err != nil {
				return err
			}
			comment, err := tx.Discussions.GetComment(ctx, d.ID, commentID)
			if err != nil {
				return err
			}
			already, err := tx.Discussions.IsCommentLiked(ctx, userID, comment.ID)
			if err != nil {
				return err
			}
			if err := tx.Discussions.BumpVersion(ctx, d.ID, d.Version); err != nil {
				return err
			}
			if already {
				liked = false
				return tx.Discussions.UnlikeComment(ctx, userID, comment.ID)
			}
			liked = true
			if err := tx.Discussions.LikeComment(ctx, userID, comment.ID); err != nil {
				return err
			}
			if author, err = tx.Users.GetByID(ctx, comment.UserID); err != nil {
				return err
			}
			if err := award(ctx, tx, comment.UserID, PointsCommentLiked); err != nil {
				return err
			}
			return notify(ctx, tx, &models.Notification{
				UserID:      comment.UserID,
				ActorID:     userID,
				Type:        models.NotificationCommentLiked,
				RelatedType: "comment",
				RelatedID:   comment.ID,
			}, post.Title)
		})
	})
	if err != nil {
		return nil, err
	}
	if liked {
		recordAward(reasonCommentLiked, PointsCommentLiked)
		cache.InvalidateLeaderboards(ctx, author.College, author.Department)
	}
	return s.repos.Discussions.Load(ctx, postID)
}

// DeleteComment removes a comment and its replies. Comment owner only;
// points already awarded stay.
func (s *DiscussionService) DeleteComment(ctx context.Context, postID, commentID, userID uint) (*models.Discussion, error) {
	err := retryOnConflict(ctx, "Discussion", func() error {
		return s.tx.Transaction(ctx, func(tx *repository.Repos) error {
			_, d, err := ensureDiscussion(ctx, tx, postID)
			if err != nil {
				return err
			}
			comment, err := tx.Discussions.GetComment(ctx, d.ID, commentID)
			if err != nil {
				return err
			}
			if comment.UserID != userID {
				return models.NewUnauthorizedError("Only the comment author can delete this comment")
			}
			if err := tx.Discussions.BumpVersion(ctx, d.ID, d.Version); err != nil {
				return err
			}
			return tx.Discussions.DeleteComment(ctx, comment.ID)
		})
	})
	if err != nil {
		return nil, err
	}
	return s.repos.Discussions.Load(ctx, postID)
}
