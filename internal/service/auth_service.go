package service

import (
	"context"
	"strings"

	"codelearn/internal/models"
	"codelearn/internal/repository"
	"codelearn/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// AuthService registers users and checks credentials. Token issuing stays
// with the HTTP layer.
type AuthService struct {
	users      repository.UserRepository
	bcryptCost int
}

type RegisterInput struct {
	Name       string
	Email      string
	Password   string
	College    string
	Department string
	Year       int
}

func NewAuthService(users repository.UserRepository) *AuthService {
	return &AuthService{users: users, bcryptCost: bcrypt.DefaultCost}
}

// WithBcryptCost overrides the hashing cost; tests use bcrypt.MinCost.
func (s *AuthService) WithBcryptCost(cost int) *AuthService {
	s.bcryptCost = cost
	return s
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.College = strings.TrimSpace(in.College)
	email := validation.NormalizeEmail(in.Email)

	if err := validation.ValidateName(in.Name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if in.College == "" {
		return nil, models.NewValidationError("college is required")
	}
	if err := validation.ValidateYear(in.Year); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewValidationError("User already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Name:       in.Name,
		Email:      email,
		Password:   string(hash),
		College:    in.College,
		Department: strings.TrimSpace(in.Department),
		Year:       in.Year,
		Skills:     []string{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	user.GroupIDs = []uint{}
	return user, nil
}

// Login returns the user for valid credentials. Unknown emails and wrong
// passwords fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = validation.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, models.NewValidationError("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}

	ids, err := s.users.GroupIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.GroupIDs = ids
	return user, nil
}
