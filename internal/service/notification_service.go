package service

import (
	"context"
	"fmt"

	"codelearn/internal/models"
	"codelearn/internal/repository"
)

const maxNotificationMessage = 255

var notificationFormats = map[models.NotificationType]string{
	models.NotificationPostLiked:    "%s liked your post %q",
	models.NotificationPostComment:  "%s commented on your post %q",
	models.NotificationCommentReply: "%s replied to your comment on %q",
	models.NotificationCommentLiked: "%s liked your comment on %q",
	models.NotificationGroupJoined:  "%s joined your group %q",
}

// notify records n inside the caller's transaction, so it commits or rolls
// back with the action it reports. Acting on your own content notifies nobody.
func notify(ctx context.Context, tx *repository.Repos, n *models.Notification, subject string) error {
	if n.UserID == 0 || n.UserID == n.ActorID {
		return nil
	}
	actor, err := tx.Users.GetByID(ctx, n.ActorID)
	if err != nil {
		return err
	}
	msg := []rune(fmt.Sprintf(notificationFormats[n.Type], actor.Name, subject))
	if len(msg) > maxNotificationMessage {
		msg = append(msg[:maxNotificationMessage-1], '…')
	}
	n.Message = string(msg)
	return tx.Notifications.Create(ctx, n)
}

// NotificationService serves each user's activity inbox.
type NotificationService struct {
	repo repository.NotificationRepository
}

// Inbox is one page of notifications with the caller's unread total.
type Inbox struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int64                 `json:"unread_count"`
}

func NewNotificationService(repo repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// List returns userID's notifications, newest first, optionally unread only.
func (s *NotificationService) List(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) (*Inbox, error) {
	items, err := s.repo.ListForUser(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Inbox{Notifications: items, UnreadCount: unread}, nil
}

// MarkRead flags one of userID's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID uint) error {
	return s.repo.MarkRead(ctx, id, userID)
}

// MarkAllRead clears userID's unread notifications and reports how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}
