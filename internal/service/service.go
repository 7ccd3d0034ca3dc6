// Package service holds the business rules of the API: scoring, contest
// lifecycle, group rosters and content engagement.
package service

import (
	"context"
	"errors"
	"time"

	"codelearn/internal/models"
	"codelearn/internal/observability"
	"codelearn/internal/repository"

	"github.com/cenkalti/backoff/v5"
)

// Points awarded per engagement action. Unlikes award nothing and never deduct.
const (
	PointsCreatePost   = 10
	PointsPostLiked    = 2
	PointsComment      = 5
	PointsReply        = 3
	PointsCommentLiked = 1
)

// Award reasons, used as metric labels.
const (
	reasonPost         = "post"
	reasonPostLiked    = "post_liked"
	reasonComment      = "comment"
	reasonReply        = "reply"
	reasonCommentLiked = "comment_liked"
	reasonContest      = "contest_submission"
)

// maxConflictAttempts bounds optimistic-concurrency retries before a 409.
const maxConflictAttempts = 3

// conflictAttempts overrides maxConflictAttempts for hot aggregates. Every
// submission to a contest bumps the same row, as does every like on a post.
var conflictAttempts = map[string]int{
	"Contest": 8,
	"Post":    5,
}

func attemptsFor(aggregate string) int {
	if n, ok := conflictAttempts[aggregate]; ok {
		return n
	}
	return maxConflictAttempts
}

// conflictBackOff spaces retries out with jitter so colliding writers do
// not collide again on the next attempt.
func conflictBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.RandomizationFactor = 0.5
	b.Multiplier = 2
	b.MaxInterval = 100 * time.Millisecond
	return b
}

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

// retryOnConflict runs fn until it stops failing with a version conflict,
// at most attemptsFor(aggregate) times. fn must reload its aggregate each run.
func retryOnConflict(ctx context.Context, aggregate string, fn func() error) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := fn()
		switch {
		case err == nil:
			return struct{}{}, nil
		case errors.Is(err, models.ErrVersionConflict):
			observability.VersionConflicts.WithLabelValues(aggregate).Inc()
			return struct{}{}, err
		default:
			return struct{}{}, backoff.Permanent(err)
		}
	},
		backoff.WithBackOff(conflictBackOff()),
		backoff.WithMaxTries(uint(attemptsFor(aggregate))),
	)
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Unwrap()
	}
	if errors.Is(err, models.ErrVersionConflict) {
		return models.NewConflictError(aggregate)
	}
	return err
}

// award credits points to a user inside the caller's transaction.
func award(ctx context.Context, tx *repository.Repos, userID uint, points int) error {
	if points <= 0 {
		return nil
	}
	return tx.Users.AddScore(ctx, userID, points)
}

// recordAward counts committed awards.
func recordAward(reason string, points int) {
	if points > 0 {
		observability.PointsAwarded.WithLabelValues(reason).Add(float64(points))
	}
}
