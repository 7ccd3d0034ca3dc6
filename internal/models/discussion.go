package models

import (
	"time"
)

// Discussion is the comment thread of a post, created on first access.
type Discussion struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex" json:"post_id"`
	Comments  []Comment `gorm:"foreignKey:DiscussionID" json:"comments"`
	Version   uint      `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is a top-level entry of a discussion. Its ID orders the thread.
type Comment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	DiscussionID uint      `gorm:"not null;index" json:"-"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	User         *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	Code         string    `gorm:"type:text" json:"code,omitempty"`
	Language     string    `gorm:"size:32" json:"language,omitempty"`
	Replies      []Reply   `gorm:"foreignKey:CommentID" json:"replies"`
	CreatedAt    time.Time `json:"created_at"`

	// Likes is the liking user set, loaded from comment_likes.
	Likes []uint `gorm:"-" json:"likes"`
}

// CommentLike records one user's like on a comment.
type CommentLike struct {
	CommentID uint      `gorm:"primaryKey" json:"comment_id"`
	UserID    uint      `gorm:"primaryKey" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Reply answers a comment. Replies carry no likes.
type Reply struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CommentID uint      `gorm:"not null;index" json:"-"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
