package models

import "time"

// NotificationType names the event a notification reports.
type NotificationType string

const (
	NotificationPostLiked    NotificationType = "post_liked"
	NotificationPostComment  NotificationType = "post_comment"
	NotificationCommentReply NotificationType = "comment_reply"
	NotificationCommentLiked NotificationType = "comment_liked"
	NotificationGroupJoined  NotificationType = "group_joined"
)

// Notification tells UserID that ActorID did something to one of their
// resources. Rows are only ever marked read, never edited.
type Notification struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	UserID      uint             `gorm:"not null;index:idx_notifications_user_read,priority:1" json:"user_id"`
	ActorID     uint             `gorm:"not null" json:"actor_id"`
	Type        NotificationType `gorm:"size:32;not null" json:"type"`
	Message     string           `gorm:"size:255;not null" json:"message"`
	RelatedType string           `gorm:"size:32" json:"related_type,omitempty"`
	RelatedID   uint             `json:"related_id,omitempty"`
	Read        bool             `gorm:"not null;default:false;index:idx_notifications_user_read,priority:2" json:"read"`
	CreatedAt   time.Time        `json:"created_at"`
}
