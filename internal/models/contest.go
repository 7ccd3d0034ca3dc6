package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ContestStatus is derived from the clock relative to the contest window.
type ContestStatus string

const (
	ContestUpcoming  ContestStatus = "upcoming"
	ContestOngoing   ContestStatus = "ongoing"
	ContestCompleted ContestStatus = "completed"
)

// Difficulty grades problems and posts.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// DefaultProblemPoints is credited when a problem has no explicit points.
const DefaultProblemPoints = 100

// Contest is a timed group competition.
type Contest struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	Title               string         `gorm:"size:200;not null" json:"title"`
	Slug                string         `gorm:"size:220;index" json:"slug"`
	Description         string         `gorm:"type:text;not null" json:"description"`
	CreatorID           uint           `gorm:"not null;index" json:"creator_id"`
	Creator             *User          `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	StartTime           time.Time      `gorm:"not null;index" json:"start_time"`
	EndTime             time.Time      `gorm:"not null" json:"end_time"`
	Duration            int            `gorm:"not null" json:"duration"`
	Status              ContestStatus  `gorm:"size:16;not null" json:"status"`
	Problems            []Problem      `gorm:"foreignKey:ContestID" json:"problems"`
	ParticipatingGroups []ContestGroup `gorm:"foreignKey:ContestID" json:"participating_groups"`
	Submissions         []Submission   `gorm:"foreignKey:ContestID" json:"submissions,omitempty"`
	Version             uint           `gorm:"not null;default:1" json:"version"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// TestCase is stored with a problem but never evaluated.
type TestCase struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Problem is one entry of a contest's ordered problem list.
type Problem struct {
	ID          uint       `gorm:"primaryKey" json:"-"`
	ContestID   uint       `gorm:"not null;uniqueIndex:idx_contest_problems_position" json:"-"`
	Position    int        `gorm:"not null;uniqueIndex:idx_contest_problems_position" json:"index"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"type:text;not null" json:"description"`
	Difficulty  Difficulty `gorm:"size:16;not null" json:"difficulty"`
	Points      int        `gorm:"not null;default:0" json:"points"`
	TestCases   []TestCase `gorm:"serializer:json" json:"test_cases,omitempty"`
}

// TableName keeps problems namespaced under contests.
func (Problem) TableName() string {
	return "contest_problems"
}

// EffectivePoints is the score credited for a submission to this problem.
func (p Problem) EffectivePoints() int {
	if p.Points <= 0 {
		return DefaultProblemPoints
	}
	return p.Points
}

// ContestGroup is a participating group and its score within one contest.
// Its ID is the crediting order when a user belongs to several groups.
type ContestGroup struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	ContestID uint   `gorm:"not null;uniqueIndex:idx_contest_groups_contest_group" json:"-"`
	GroupID   uint   `gorm:"not null;uniqueIndex:idx_contest_groups_contest_group;index" json:"group_id"`
	Group     *Group `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	Score     int    `gorm:"not null;default:0" json:"score"`
}

// ErrSubmissionImmutable guards the append-only submission log.
var ErrSubmissionImmutable = errors.New("contest submissions are append-only")

// Submission is an entry in a contest's append-only log. Score is a snapshot
// of the problem's points when the submission was accepted.
type Submission struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ContestID    uint      `gorm:"not null;index" json:"contest_id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	User         *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	GroupID      uint      `gorm:"not null;index" json:"group_id"`
	ProblemIndex int       `gorm:"not null" json:"problem_index"`
	Code         string    `gorm:"type:text;not null" json:"code"`
	Language     string    `gorm:"size:32;not null" json:"language"`
	Score        int       `gorm:"not null" json:"score"`
	SubmittedAt  time.Time `gorm:"not null" json:"submitted_at"`
}

// TableName keeps submissions namespaced under contests.
func (Submission) TableName() string {
	return "contest_submissions"
}

// BeforeUpdate rejects edits to the submission log.
func (*Submission) BeforeUpdate(*gorm.DB) error {
	return ErrSubmissionImmutable
}

// BeforeDelete rejects removals from the submission log.
func (*Submission) BeforeDelete(*gorm.DB) error {
	return ErrSubmissionImmutable
}

// StatusAt derives the contest status at now. The window is inclusive on both ends.
func StatusAt(start, end, now time.Time) ContestStatus {
	switch {
	case now.Before(start):
		return ContestUpcoming
	case now.After(end):
		return ContestCompleted
	default:
		return ContestOngoing
	}
}

// StatusAt derives c's status at now.
func (c *Contest) StatusAt(now time.Time) ContestStatus {
	return StatusAt(c.StartTime, c.EndTime, now)
}

// AcceptsSubmissionsAt reports whether now falls inside [StartTime, EndTime].
func (c *Contest) AcceptsSubmissionsAt(now time.Time) bool {
	return c.StatusAt(now) == ContestOngoing
}

// EndTimeFor computes the end of a contest window from its duration in minutes.
func EndTimeFor(start time.Time, durationMinutes int) time.Time {
	return start.Add(time.Duration(durationMinutes) * time.Minute)
}
