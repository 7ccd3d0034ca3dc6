package service

import (
	"context"
	"strings"

	"codelearn/internal/cache"
	"codelearn/internal/models"
	"codelearn/internal/repository"
	"codelearn/internal/validation"
)

type UserService struct {
	userRepo repository.UserRepository
}

// UpdateProfileInput carries optional profile fields. Nil leaves a field unchanged.
type UpdateProfileInput struct {
	UserID     uint
	Name       *string
	College    *string
	Department *string
	Year       *int
	Bio        *string
	Avatar     *string
	Skills     []string
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// GetUserByID returns the user with their group list.
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ids, err := s.userRepo.GroupIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	user.GroupIDs = ids
	return user, nil
}

// UpdateProfile applies the given fields. Leaderboard rows carry the name and
// scope of each user, so the boards of both the old and the new scope are
// invalidated.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	oldCollege, oldDepartment := user.College, user.Department

	const maxBioLen = 500

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validation.ValidateName(name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Name = name
	}
	if in.College != nil {
		college := strings.TrimSpace(*in.College)
		if college == "" {
			return nil, models.NewValidationError("college cannot be empty")
		}
		user.College = college
	}
	if in.Department != nil {
		user.Department = strings.TrimSpace(*in.Department)
	}
	if in.Year != nil {
		if err := validation.ValidateYear(*in.Year); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Year = *in.Year
	}
	if in.Bio != nil {
		if len(*in.Bio) > maxBioLen {
			return nil, models.NewValidationError("Bio too long (max 500 characters)")
		}
		user.Bio = *in.Bio
	}
	if in.Avatar != nil {
		user.Avatar = strings.TrimSpace(*in.Avatar)
	}
	if in.Skills != nil {
		skills, err := validation.NormalizeTags(in.Skills)
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Skills = skills
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	cache.InvalidateLeaderboards(ctx, oldCollege, oldDepartment)
	if user.College != oldCollege || user.Department != oldDepartment {
		cache.InvalidateLeaderboards(ctx, user.College, user.Department)
	}

	ids, err := s.userRepo.GroupIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.GroupIDs = ids
	return user, nil
}
