package models

import (
	"time"
)

// SupportedLanguages is the closed set of languages a post may declare.
var SupportedLanguages = []string{
	"JavaScript", "Python", "Java", "C++", "C", "Go", "Rust",
	"TypeScript", "Ruby", "PHP", "Swift", "Kotlin",
}

// IsSupportedLanguage reports whether lang is in SupportedLanguages.
func IsSupportedLanguage(lang string) bool {
	for _, l := range SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// Post is a shared code solution.
type Post struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	AuthorID   uint       `gorm:"not null;index" json:"author_id"`
	Author     *User      `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Title      string     `gorm:"size:200;not null" json:"title"`
	Problem    string     `gorm:"type:text;not null" json:"problem"`
	Code       string     `gorm:"type:text;not null" json:"code"`
	Language   string     `gorm:"size:32;not null;index" json:"language"`
	Tags       []string   `gorm:"serializer:json" json:"tags"`
	Difficulty Difficulty `gorm:"size:16;not null;default:Medium;index" json:"difficulty"`
	Views      int        `gorm:"not null;default:0" json:"views"`
	Version    uint       `gorm:"not null;default:1" json:"version"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Likes is the liking user set, loaded from post_likes.
	Likes []uint `gorm:"-" json:"likes"`
	// LikesCount is computed at query time.
	LikesCount int `gorm:"->;-:migration" json:"likes_count"`
	// Liked reports whether the requesting user liked the post.
	Liked bool `gorm:"-" json:"liked"`
}

// PostLike records one user's like on a post.
type PostLike struct {
	PostID    uint      `gorm:"primaryKey" json:"post_id"`
	UserID    uint      `gorm:"primaryKey;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
