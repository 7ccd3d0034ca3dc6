// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User is a registered student. CodingScore only ever grows through point awards.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Email       string    `gorm:"size:255;uniqueIndex;not null" json:"email,omitempty"`
	Password    string    `gorm:"not null" json:"-"`
	College     string    `gorm:"size:200;not null;index" json:"college"`
	Department  string    `gorm:"size:200;index" json:"department,omitempty"`
	Year        int       `json:"year,omitempty"`
	CodingScore int       `gorm:"not null;default:0;index" json:"coding_score"`
	Avatar      string    `json:"avatar,omitempty"`
	Bio         string    `gorm:"type:text" json:"bio,omitempty"`
	Skills      []string  `gorm:"serializer:json" json:"skills,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// GroupIDs is the user's group list, resolved from group_members.
	GroupIDs []uint `gorm:"-" json:"groups,omitempty"`
}

// PublicUserColumns are the user columns safe to embed in other resources.
var PublicUserColumns = []string{"id", "name", "college", "department", "avatar", "coding_score"}
