package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	UserKeyPrefix               = "user:%d"
	GlobalLeaderboardKey        = "leaderboard:global"
	CollegeLeaderboardPrefix    = "leaderboard:college:%s"
	DepartmentLeaderboardPrefix = "leaderboard:department:%s:%s"
	GroupLeaderboardKey         = "leaderboard:groups"
	ContestStandingsPrefix      = "contest:%d:standings"
	TokenBlacklistPrefix        = "blacklist:"
)

const (
	UserTTL        = 5 * time.Minute
	LeaderboardTTL = 30 * time.Second
	StandingsTTL   = 15 * time.Second
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func CollegeLeaderboardKey(college string) string {
	return fmt.Sprintf(CollegeLeaderboardPrefix, strings.ToLower(college))
}

func DepartmentLeaderboardKey(college, department string) string {
	return fmt.Sprintf(DepartmentLeaderboardPrefix, strings.ToLower(college), strings.ToLower(department))
}

func ContestStandingsKey(contestID uint) string {
	return fmt.Sprintf(ContestStandingsPrefix, contestID)
}

func TokenBlacklistKey(jti string) string {
	return TokenBlacklistPrefix + jti
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// InvalidateLeaderboards drops the ranking caches a score change can affect.
func InvalidateLeaderboards(ctx context.Context, college, department string) {
	keys := []string{GlobalLeaderboardKey, GroupLeaderboardKey}
	if college != "" {
		keys = append(keys, CollegeLeaderboardKey(college))
		if department != "" {
			keys = append(keys, DepartmentLeaderboardKey(college, department))
		}
	}
	Invalidate(ctx, keys...)
}

func InvalidateStandings(ctx context.Context, contestID uint) {
	Invalidate(ctx, ContestStandingsKey(contestID))
}

// keyFamily returns the metric label for a key: its first one or two segments.
func keyFamily(key string) string {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) >= 2 && parts[0] == "leaderboard" {
		return parts[0] + ":" + parts[1]
	}
	if len(parts) == 3 && parts[0] == "contest" {
		return "contest:" + parts[2]
	}
	return parts[0]
}
