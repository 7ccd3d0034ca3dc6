package service

import (
	"context"

	"codelearn/internal/cache"
	"codelearn/internal/featureflags"
	"codelearn/internal/models"
	"codelearn/internal/repository"
)

const (
	userBoardSize  = 100
	groupBoardSize = 50
)

// RankedUser is one row of a user leaderboard.
type RankedUser struct {
	Rank int          `json:"rank"`
	User *models.User `json:"user"`
}

// UserBoard is a user leaderboard with the caller's position. UserRank is
// nil when the caller is anonymous or outside the board's scope.
type UserBoard struct {
	Users    []RankedUser `json:"users"`
	UserRank *int         `json:"user_rank"`
}

// RankedGroup is one row of the group leaderboard.
type RankedGroup struct {
	Rank  int           `json:"rank"`
	Group *models.Group `json:"group"`
}

// LeaderboardService serves the read-only rankings.
type LeaderboardService struct {
	repo  repository.LeaderboardRepository
	users repository.UserRepository
	flags *featureflags.Manager
}

func NewLeaderboardService(repo repository.LeaderboardRepository, users repository.UserRepository, flags *featureflags.Manager) *LeaderboardService {
	return &LeaderboardService{repo: repo, users: users, flags: flags}
}

func (s *LeaderboardService) cached(ctx context.Context, key string, dest interface{}, fetch func() error) error {
	if !s.flags.Enabled(featureflags.LeaderboardCache, 0) {
		return fetch()
	}
	return cache.Aside(ctx, key, dest, cache.LeaderboardTTL, fetch)
}

// Global ranks every user. viewerID may be 0.
func (s *LeaderboardService) Global(ctx context.Context, viewerID uint) (*UserBoard, error) {
	return s.userBoard(ctx, cache.GlobalLeaderboardKey, repository.UserScope{}, viewerID)
}

// College ranks the caller's college.
func (s *LeaderboardService) College(ctx context.Context, viewerID uint) (*UserBoard, error) {
	viewer, err := s.users.GetByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	scope := repository.UserScope{College: viewer.College}
	return s.userBoard(ctx, cache.CollegeLeaderboardKey(viewer.College), scope, viewerID)
}

// Department ranks one department of the caller's college.
func (s *LeaderboardService) Department(ctx context.Context, viewerID uint, department string) (*UserBoard, error) {
	if department == "" {
		return nil, models.NewValidationError("department is required")
	}
	viewer, err := s.users.GetByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	scope := repository.UserScope{College: viewer.College, Department: department}
	return s.userBoard(ctx, cache.DepartmentLeaderboardKey(viewer.College, department), scope, viewerID)
}

func (s *LeaderboardService) userBoard(ctx context.Context, key string, scope repository.UserScope, viewerID uint) (*UserBoard, error) {
	var users []models.User
	err := s.cached(ctx, key, &users, func() error {
		var err error
		users, err = s.repo.TopUsers(ctx, scope, userBoardSize)
		return err
	})
	if err != nil {
		return nil, err
	}

	board := &UserBoard{Users: make([]RankedUser, 0, len(users))}
	for i := range users {
		board.Users = append(board.Users, RankedUser{Rank: i + 1, User: &users[i]})
	}

	if viewerID != 0 {
		rank, ok, err := s.repo.UserRank(ctx, scope, viewerID)
		if err != nil {
			return nil, err
		}
		if ok {
			board.UserRank = &rank
		}
	}
	return board, nil
}

// Groups ranks groups by total score, with their rosters.
func (s *LeaderboardService) Groups(ctx context.Context) ([]RankedGroup, error) {
	var groups []models.Group
	err := s.cached(ctx, cache.GroupLeaderboardKey, &groups, func() error {
		var err error
		groups, err = s.repo.TopGroups(ctx, groupBoardSize)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]RankedGroup, 0, len(groups))
	for i := range groups {
		out = append(out, RankedGroup{Rank: i + 1, Group: groups[i].Redacted(0)})
	}
	return out, nil
}
