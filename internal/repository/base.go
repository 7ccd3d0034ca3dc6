package repository

import (
	"context"
	"errors"
	"strings"

	"codelearn/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Repos groups every repository bound to the same connection or transaction.
type Repos struct {
	Users       UserRepository
	Groups      GroupRepository
	Contests    ContestRepository
	Posts       PostRepository
	Discussions DiscussionRepository
	Leaderboard LeaderboardRepository

	Notifications NotificationRepository
}

// NewRepos binds all repositories to db.
func NewRepos(db *gorm.DB) *Repos {
	return &Repos{
		Users:       NewUserRepository(db),
		Groups:      NewGroupRepository(db),
		Contests:    NewContestRepository(db),
		Posts:       NewPostRepository(db),
		Discussions: NewDiscussionRepository(db),
		Leaderboard: NewLeaderboardRepository(db),

		Notifications: NewNotificationRepository(db),
	}
}

// Transactor runs fn with repositories bound to a single transaction.
// Returning an error from fn rolls everything back.
type Transactor interface {
	Transaction(ctx context.Context, fn func(tx *Repos) error) error
}

// Store is the gorm-backed Transactor. Its embedded Repos run outside any transaction.
type Store struct {
	*Repos
	db *gorm.DB
}

// NewStore returns a Store over db.
func NewStore(db *gorm.DB) *Store {
	return &Store{Repos: NewRepos(db), db: db}
}

func (s *Store) Transaction(ctx context.Context, fn func(tx *Repos) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepos(tx))
	})
}

// DB exposes the underlying connection for health checks.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// bumpVersion performs the optimistic concurrency check on an aggregate row:
// the version only advances when it still equals the one the caller read.
func bumpVersion(ctx context.Context, db *gorm.DB, model interface{}, id, version uint) error {
	res := db.WithContext(ctx).Model(model).
		Where("id = ? AND version = ?", id, version).
		UpdateColumn("version", gorm.Expr("version + 1"))
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrVersionConflict
	}
	return nil
}

// increment atomically adds delta to column on the row with id.
func increment(ctx context.Context, db *gorm.DB, model interface{}, column string, id uint, delta int) (int64, error) {
	res := db.WithContext(ctx).Model(model).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta))
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

func publicUser(db *gorm.DB) *gorm.DB {
	return db.Select(models.PublicUserColumns)
}

func notFoundOr(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}
