// Package testutil provides shared test fixtures for backend tests.
package testutil

import (
	"fmt"
	"regexp"
	"testing"
	"time"

	"codelearn/internal/database"
	"codelearn/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_]`)

// NewTestDB opens an in-memory SQLite database private to t with the full
// schema migrated. All connections share one cache so transactions see the
// same tables.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", unsafeName.ReplaceAllString(t.Name(), "_"))
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig(logger.Default.LogMode(logger.Silent)))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(database.PersistentModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user with the given score.
func CreateUser(t *testing.T, db *gorm.DB, name, college, department string, score int) *models.User {
	t.Helper()
	u := &models.User{
		Name:        name,
		Email:       fmt.Sprintf("%s@%s.test", unsafeName.ReplaceAllString(name, ""), unsafeName.ReplaceAllString(college, "")),
		Password:    "x",
		College:     college,
		Department:  department,
		CodingScore: score,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// CreateGroup inserts a group whose creator is its admin, followed by members.
func CreateGroup(t *testing.T, db *gorm.DB, name string, creator *models.User, members ...*models.User) *models.Group {
	t.Helper()
	g := &models.Group{
		Name:        name,
		Slug:        unsafeName.ReplaceAllString(name, "-"),
		Description: name,
		CreatorID:   creator.ID,
		InviteCode:  "0123456789ab",
		Version:     1,
		Members:     []models.GroupMember{{UserID: creator.ID, Role: models.GroupRoleAdmin}},
	}
	for _, m := range members {
		g.Members = append(g.Members, models.GroupMember{UserID: m.ID, Role: models.GroupRoleMember})
	}
	if err := db.Create(g).Error; err != nil {
		t.Fatalf("create group: %v", err)
	}
	return g
}

// CreateContest inserts a contest over groups with one problem per points value.
func CreateContest(t *testing.T, db *gorm.DB, creator *models.User, start time.Time, minutes int, points []int, groups ...*models.Group) *models.Contest {
	t.Helper()
	c := &models.Contest{
		Title:       "Contest",
		Description: "test contest",
		CreatorID:   creator.ID,
		StartTime:   start,
		EndTime:     models.EndTimeFor(start, minutes),
		Duration:    minutes,
		Status:      models.ContestUpcoming,
		Version:     1,
	}
	for i, p := range points {
		c.Problems = append(c.Problems, models.Problem{
			Position:    i,
			Title:       fmt.Sprintf("Problem %d", i+1),
			Description: "solve it",
			Difficulty:  models.DifficultyEasy,
			Points:      p,
		})
	}
	for _, g := range groups {
		c.ParticipatingGroups = append(c.ParticipatingGroups, models.ContestGroup{GroupID: g.ID})
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("create contest: %v", err)
	}
	return c
}

// CreatePost inserts a post by author.
func CreatePost(t *testing.T, db *gorm.DB, author *models.User, title, language string) *models.Post {
	t.Helper()
	p := &models.Post{
		AuthorID:   author.ID,
		Title:      title,
		Problem:    "problem statement for " + title,
		Code:       "print(1)",
		Language:   language,
		Tags:       []string{},
		Difficulty: models.DifficultyMedium,
		Version:    1,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}
