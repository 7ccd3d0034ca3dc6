package database

import "codelearn/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Group{},
		&models.GroupMember{},
		&models.Contest{},
		&models.Problem{},
		&models.ContestGroup{},
		&models.Submission{},
		&models.Post{},
		&models.PostLike{},
		&models.Discussion{},
		&models.Comment{},
		&models.CommentLike{},
		&models.Reply{},
		&models.Notification{},
	}
}
