package models

import (
	"time"
)

// GroupRole is a member's role inside a group.
type GroupRole string

const (
	GroupRoleAdmin  GroupRole = "admin"
	GroupRoleMember GroupRole = "member"
)

// Group is a study group. The creator is always an admin member and cannot leave.
type Group struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	Name          string        `gorm:"size:100;not null" json:"name"`
	Slug          string        `gorm:"size:120;index" json:"slug"`
	Description   string        `gorm:"type:text;not null" json:"description"`
	CreatorID     uint          `gorm:"not null;index" json:"creator_id"`
	Creator       *User         `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Members       []GroupMember `gorm:"foreignKey:GroupID" json:"members"`
	GroupScore    int           `gorm:"not null;default:0;index" json:"group_score"`
	InviteCode    string        `gorm:"size:32;not null" json:"invite_code,omitempty"`
	AllowedEmails []string      `gorm:"serializer:json" json:"allowed_emails,omitempty"`
	IsPrivate     bool          `gorm:"not null;default:false;index" json:"is_private"`
	Version       uint          `gorm:"not null;default:1" json:"version"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// GroupMember is one roster entry. Its ID orders the roster.
type GroupMember struct {
	ID       uint      `gorm:"primaryKey" json:"-"`
	GroupID  uint      `gorm:"not null;uniqueIndex:idx_group_members_group_user" json:"-"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_group_members_group_user;index" json:"user_id"`
	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role     GroupRole `gorm:"size:16;not null" json:"role"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

// HasMember reports whether userID is on the loaded roster.
func (g *Group) HasMember(userID uint) bool {
	for _, m := range g.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// AllowsEmail reports whether email passes the allow-list. An empty list allows everyone.
func (g *Group) AllowsEmail(email string) bool {
	if len(g.AllowedEmails) == 0 {
		return true
	}
	for _, allowed := range g.AllowedEmails {
		if allowed == email {
			return true
		}
	}
	return false
}

// Redacted hides the invite code from callers who are not members.
func (g *Group) Redacted(viewerID uint) *Group {
	if g.CreatorID == viewerID || g.HasMember(viewerID) {
		return g
	}
	cp := *g
	cp.InviteCode = ""
	cp.AllowedEmails = nil
	return &cp
}
