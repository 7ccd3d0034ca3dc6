package repository

import (
	"context"

	"codelearn/internal/models"

	"gorm.io/gorm"
)

// ContestRepository defines persistence operations for contests and their
// append-only submission log.
type ContestRepository interface {
	Create(ctx context.Context, contest *models.Contest) error
	GetByID(ctx context.Context, id uint, withSubmissions bool) (*models.Contest, error)
	List(ctx context.Context, limit, offset int) ([]models.Contest, error)
	ListByCreator(ctx context.Context, creatorID uint, limit, offset int) ([]models.Contest, error)
	IDsForGroup(ctx context.Context, groupID uint) ([]uint, error)
	Standings(ctx context.Context, id uint) ([]models.ContestGroup, error)
	MemberGroupIDs(ctx context.Context, contestID, userID uint) ([]uint, error)
	BumpVersion(ctx context.Context, id, version uint) error
	AppendSubmission(ctx context.Context, submission *models.Submission) error
	AddGroupScore(ctx context.Context, contestID, groupID uint, points int) error
	UpdateStatus(ctx context.Context, id uint, status models.ContestStatus) error
	Delete(ctx context.Context, id uint) error
}

type contestRepository struct {
	db *gorm.DB
}

// NewContestRepository returns a new ContestRepository implementation.
func NewContestRepository(db *gorm.DB) ContestRepository {
	return &contestRepository{db: db}
}

// Create inserts the contest with its problems and participating groups.
func (r *contestRepository) Create(ctx context.Context, contest *models.Contest) error {
	if err := r.db.WithContext(ctx).Create(contest).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func groupSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "slug", "group_score", "is_private")
}

func (r *contestRepository) base(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Creator", publicUser).
		Preload("Problems", func(db *gorm.DB) *gorm.DB {
			return db.Order("contest_problems.position ASC")
		}).
		Preload("ParticipatingGroups", func(db *gorm.DB) *gorm.DB {
			return db.Order("contest_groups.id ASC")
		}).
		Preload("ParticipatingGroups.Group", groupSummary)
}

func (r *contestRepository) GetByID(ctx context.Context, id uint, withSubmissions bool) (*models.Contest, error) {
	var contest models.Contest
	q := r.base(r.db.WithContext(ctx))
	if withSubmissions {
		q = q.
			Preload("Submissions", func(db *gorm.DB) *gorm.DB {
				return db.Order("contest_submissions.id ASC")
			}).
			Preload("Submissions.User", publicUser)
	}
	if err := q.First(&contest, id).Error; err != nil {
		return nil, notFoundOr(err, "Contest", id)
	}
	return &contest, nil
}

// List returns contests by start time, latest first.
func (r *contestRepository) List(ctx context.Context, limit, offset int) ([]models.Contest, error) {
	contests := []models.Contest{}
	err := r.base(r.db.WithContext(ctx)).
		Order("start_time DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&contests).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return contests, nil
}

func (r *contestRepository) ListByCreator(ctx context.Context, creatorID uint, limit, offset int) ([]models.Contest, error) {
	contests := []models.Contest{}
	err := r.base(r.db.WithContext(ctx)).
		Where("creator_id = ?", creatorID).
		Order("start_time DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&contests).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return contests, nil
}

// IDsForGroup returns the contests groupID takes part in.
func (r *contestRepository) IDsForGroup(ctx context.Context, groupID uint) ([]uint, error) {
	ids := []uint{}
	err := r.db.WithContext(ctx).Model(&models.ContestGroup{}).
		Where("group_id = ?", groupID).
		Order("contest_id ASC").
		Pluck("contest_id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

// Standings orders the participating groups by contest score. Ties keep
// registration order.
func (r *contestRepository) Standings(ctx context.Context, id uint) ([]models.ContestGroup, error) {
	standings := []models.ContestGroup{}
	err := r.db.WithContext(ctx).
		Preload("Group", groupSummary).
		Where("contest_id = ?", id).
		Order("score DESC, id ASC").
		Find(&standings).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return standings, nil
}

// MemberGroupIDs returns the participating groups userID belongs to, in
// contest registration order.
func (r *contestRepository) MemberGroupIDs(ctx context.Context, contestID, userID uint) ([]uint, error) {
	ids := []uint{}
	err := r.db.WithContext(ctx).
		Table("contest_groups").
		Joins("JOIN group_members ON group_members.group_id = contest_groups.group_id AND group_members.user_id = ?", userID).
		Where("contest_groups.contest_id = ?", contestID).
		Order("contest_groups.id ASC").
		Pluck("contest_groups.group_id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *contestRepository) BumpVersion(ctx context.Context, id, version uint) error {
	return bumpVersion(ctx, r.db, &models.Contest{}, id, version)
}

func (r *contestRepository) AppendSubmission(ctx context.Context, submission *models.Submission) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(submission).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *contestRepository) AddGroupScore(ctx context.Context, contestID, groupID uint, points int) error {
	res := r.db.WithContext(ctx).Model(&models.ContestGroup{}).
		Where("contest_id = ? AND group_id = ?", contestID, groupID).
		UpdateColumn("score", gorm.Expr("score + ?", points))
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("ContestGroup", groupID)
	}
	return nil
}

func (r *contestRepository) UpdateStatus(ctx context.Context, id uint, status models.ContestStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Contest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Contest", id)
	}
	return nil
}

// Delete removes the contest and everything it owns, the submission log
// included. Callers run it in a transaction.
func (r *contestRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	// The log rejects deletes through model hooks; dropping a whole contest is the one exception.
	if err := db.Session(&gorm.Session{SkipHooks: true}).Where("contest_id = ?", id).Delete(&models.Submission{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	if err := db.Where("contest_id = ?", id).Delete(&models.ContestGroup{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	if err := db.Where("contest_id = ?", id).Delete(&models.Problem{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	res := db.Delete(&models.Contest{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Contest", id)
	}
	return nil
}
