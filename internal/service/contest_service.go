package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"codelearn/internal/cache"
	"codelearn/internal/featureflags"
	"codelearn/internal/models"
	"codelearn/internal/observability"
	"codelearn/internal/repository"
	"codelearn/internal/validation"

	"github.com/gosimple/slug"
	"go.opentelemetry.io/otel/attribute"
)

// ContestService runs the contest lifecycle: creation, time-driven status,
// submission acceptance and score propagation.
type ContestService struct {
	repos *repository.Repos
	tx    repository.Transactor
	flags *featureflags.Manager
	now   Clock
}

type ProblemInput struct {
	Title       string
	Description string
	Difficulty  models.Difficulty
	Points      int
	TestCases   []models.TestCase
}

type CreateContestInput struct {
	CreatorID   uint
	Title       string
	Description string
	StartTime   time.Time
	Duration    int
	Problems    []ProblemInput
	GroupIDs    []uint
}

type SubmitInput struct {
	ContestID    uint
	UserID       uint
	ProblemIndex int
	Code         string
	Language     string
}

func NewContestService(repos *repository.Repos, tx repository.Transactor, flags *featureflags.Manager, now Clock) *ContestService {
	if now == nil {
		now = systemClock
	}
	return &ContestService{repos: repos, tx: tx, flags: flags, now: now}
}

// withDerivedStatus stamps the status computed from the service clock.
func (s *ContestService) withDerivedStatus(c *models.Contest) *models.Contest {
	c.Status = c.StatusAt(s.now())
	return c
}

func (s *ContestService) CreateContest(ctx context.Context, in CreateContestInput) (*models.Contest, error) {
	title := strings.TrimSpace(in.Title)
	if err := validation.ValidateTitle("title", title); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, models.NewValidationError("description is required")
	}
	if err := validation.ValidateContestWindow(in.StartTime, in.Duration); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if len(in.Problems) == 0 {
		return nil, models.NewValidationError("at least one problem is required")
	}

	problems := make([]models.Problem, 0, len(in.Problems))
	for i, p := range in.Problems {
		if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Description) == "" {
			return nil, models.NewValidationError(fmt.Sprintf("problem %d needs a title and description", i))
		}
		difficulty := p.Difficulty
		if difficulty == "" {
			difficulty = models.DifficultyMedium
		}
		if !difficulty.Valid() {
			return nil, models.NewValidationError(fmt.Sprintf("problem %d has an invalid difficulty", i))
		}
		if p.Points < 0 {
			return nil, models.NewValidationError(fmt.Sprintf("problem %d has negative points", i))
		}
		problems = append(problems, models.Problem{
			Position:    i,
			Title:       strings.TrimSpace(p.Title),
			Description: p.Description,
			Difficulty:  difficulty,
			Points:      p.Points,
			TestCases:   p.TestCases,
		})
	}

	groupIDs := dedupe(in.GroupIDs)
	if len(groupIDs) == 0 {
		return nil, models.NewValidationError("at least one participating group is required")
	}
	existing, err := s.repos.Groups.ExistingIDs(ctx, groupIDs)
	if err != nil {
		return nil, err
	}
	if missing := firstMissing(groupIDs, existing); missing != 0 {
		return nil, models.NewNotFoundError("Group", missing)
	}

	start := in.StartTime.UTC()
	contest := &models.Contest{
		Title:       title,
		Slug:        slug.Make(title),
		Description: in.Description,
		CreatorID:   in.CreatorID,
		StartTime:   start,
		EndTime:     models.EndTimeFor(start, in.Duration),
		Duration:    in.Duration,
		Status:      models.StatusAt(start, models.EndTimeFor(start, in.Duration), s.now()),
		Problems:    problems,
		Version:     1,
	}
	for _, id := range groupIDs {
		contest.ParticipatingGroups = append(contest.ParticipatingGroups, models.ContestGroup{GroupID: id})
	}

	if err := s.repos.Contests.Create(ctx, contest); err != nil {
		return nil, err
	}
	return s.GetContest(ctx, contest.ID)
}

func (s *ContestService) GetContest(ctx context.Context, id uint) (*models.Contest, error) {
	contest, err := s.repos.Contests.GetByID(ctx, id, true)
	if err != nil {
		return nil, err
	}
	return s.withDerivedStatus(contest), nil
}

// ListContests returns contests by start time, latest first.
func (s *ContestService) ListContests(ctx context.Context, limit, offset int) ([]models.Contest, error) {
	contests, err := s.repos.Contests.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range contests {
		s.withDerivedStatus(&contests[i])
	}
	return contests, nil
}

// ListByOrganizer returns the contests organizerID created, latest start first.
func (s *ContestService) ListByOrganizer(ctx context.Context, organizerID uint, limit, offset int) ([]models.Contest, error) {
	if _, err := s.repos.Users.GetByID(ctx, organizerID); err != nil {
		return nil, err
	}
	contests, err := s.repos.Contests.ListByCreator(ctx, organizerID, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range contests {
		s.withDerivedStatus(&contests[i])
	}
	return contests, nil
}

// Standings returns participating groups by contest score, highest first.
func (s *ContestService) Standings(ctx context.Context, id uint) ([]models.ContestGroup, error) {
	if _, err := s.repos.Contests.GetByID(ctx, id, false); err != nil {
		return nil, err
	}
	var standings []models.ContestGroup
	err := cache.Aside(ctx, cache.ContestStandingsKey(id), &standings, cache.StandingsTTL, func() error {
		var err error
		standings, err = s.repos.Contests.Standings(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return standings, nil
}

// RefreshStatus recomputes the status from the clock and persists it. It is idempotent.
func (s *ContestService) RefreshStatus(ctx context.Context, id uint) (*models.Contest, error) {
	contest, err := s.repos.Contests.GetByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	status := contest.StatusAt(s.now())
	if status != contest.Status {
		if err := s.repos.Contests.UpdateStatus(ctx, id, status); err != nil {
			return nil, err
		}
	}
	contest.Status = status
	return contest, nil
}

// Submit records a solution and propagates its points to the contest group,
// the user and the group total, all in one transaction.
func (s *ContestService) Submit(ctx context.Context, in SubmitInput) (*models.Submission, error) {
	ctx, span := observability.StartSpan(ctx, "contest", "submit",
		attribute.Int64("contest.id", int64(in.ContestID)),
		attribute.Int64("user.id", int64(in.UserID)),
		attribute.Int("problem.index", in.ProblemIndex),
	)
	var err error
	defer func() { observability.EndSpan(span, err) }()

	var (
		submission *models.Submission
		user       *models.User
	)
	err = retryOnConflict(ctx, "Contest", func() error {
		return s.tx.Transaction(ctx, func(tx *repository.Repos) error {
			var err error
			submission, user, err = s.submit(ctx, tx, in)
			return err
		})
	})
	if err != nil {
		if appErr := models.AsAppError(err); appErr.Code == models.CodeBusinessRule || appErr.Code == models.CodeValidation {
			observability.ContestSubmissions.WithLabelValues("rejected").Inc()
		}
		return nil, err
	}

	observability.ContestSubmissions.WithLabelValues("accepted").Inc()
	recordAward(reasonContest, submission.Score)
	cache.InvalidateStandings(ctx, in.ContestID)
	cache.InvalidateLeaderboards(ctx, user.College, user.Department)
	return submission, nil
}

func (s *ContestService) submit(ctx context.Context, tx *repository.Repos, in SubmitInput) (*models.Submission, *models.User, error) {
	contest, err := tx.Contests.GetByID(ctx, in.ContestID, false)
	if err != nil {
		return nil, nil, err
	}
	if in.ProblemIndex < 0 || in.ProblemIndex >= len(contest.Problems) {
		return nil, nil, models.NewValidationError("Invalid problem index")
	}
	if strings.TrimSpace(in.Code) == "" || strings.TrimSpace(in.Language) == "" {
		return nil, nil, models.NewValidationError("code and language are required")
	}

	now := s.now()
	if !contest.AcceptsSubmissionsAt(now) {
		return nil, nil, models.NewBusinessRuleError("Contest is not currently active")
	}

	groupIDs, err := tx.Contests.MemberGroupIDs(ctx, contest.ID, in.UserID)
	if err != nil {
		return nil, nil, err
	}
	if len(groupIDs) == 0 {
		return nil, nil, models.NewBusinessRuleError("You are not part of any participating group")
	}
	if !s.flags.Enabled(featureflags.CreditAllGroups, in.UserID) {
		groupIDs = groupIDs[:1]
	}

	user, err := tx.Users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, nil, err
	}

	points := contest.Problems[in.ProblemIndex].EffectivePoints()
	if err := tx.Contests.BumpVersion(ctx, contest.ID, contest.Version); err != nil {
		return nil, nil, err
	}

	submission := &models.Submission{
		ContestID:    contest.ID,
		UserID:       in.UserID,
		GroupID:      groupIDs[0],
		ProblemIndex: in.ProblemIndex,
		Code:         in.Code,
		Language:     strings.TrimSpace(in.Language),
		Score:        points,
		SubmittedAt:  now,
	}
	if err := tx.Contests.AppendSubmission(ctx, submission); err != nil {
		return nil, nil, err
	}
	for _, groupID := range groupIDs {
		if err := tx.Contests.AddGroupScore(ctx, contest.ID, groupID, points); err != nil {
			return nil, nil, err
		}
		if err := tx.Groups.AddScore(ctx, groupID, points); err != nil {
			return nil, nil, err
		}
	}
	if err := award(ctx, tx, in.UserID, points); err != nil {
		return nil, nil, err
	}
	return submission, user, nil
}

// DeleteContest removes the contest and its log. Creator only.
func (s *ContestService) DeleteContest(ctx context.Context, id, userID uint) error {
	err := retryOnConflict(ctx, "Contest", func() error {
		return s.tx.Transaction(ctx, func(tx *repository.Repos) error {
			contest, err := tx.Contests.GetByID(ctx, id, false)
			if err != nil {
				return err
			}
			if contest.CreatorID != userID {
				return models.NewUnauthorizedError("Only the contest creator can delete this contest")
			}
			if err := tx.Contests.BumpVersion(ctx, contest.ID, contest.Version); err != nil {
				return err
			}
			return tx.Contests.Delete(ctx, contest.ID)
		})
	})
	if err != nil {
		return err
	}
	cache.InvalidateStandings(ctx, id)
	return nil
}

func dedupe(ids []uint) []uint {
	out := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func firstMissing(want, have []uint) uint {
	found := make(map[uint]struct{}, len(have))
	for _, id := range have {
		found[id] = struct{}{}
	}
	for _, id := range want {
		if _, ok := found[id]; !ok {
			return id
		}
	}
	return 0
}
