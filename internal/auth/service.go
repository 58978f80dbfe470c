package auth

import (
	"context"

	"taskflow-backend/internal/domain"
	"taskflow-backend/internal/emails"
	"taskflow-backend/internal/onboarding"
	"taskflow-backend/internal/pkg/apperr"
	"taskflow-backend/internal/pkg/validation"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 10

// Service handles registration and credential verification.
type Service struct {
	DB         *gorm.DB
	Onboarding *onboarding.Service
	Mail       emails.Sender
}

type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Register creates a user in the plan onboarding step, then immediately runs
// the invitation auto-accept evaluation: a registering email with a pending
// invitation skips onboarding entirely and lands in completed with a
// membership. The welcome email is best-effort.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := validation.NormalizeEmail(in.Email)
	if !validation.IsValidEmail(email) {
		return nil, apperr.Validation("Invalid email format")
	}
	if !validation.IsValidPassword(in.Password) {
		return nil, apperr.Validation("Password must be at least 8 characters and include a letter, a number and a special character")
	}
	first := validation.Sanitize(in.FirstName)
	last := validation.Sanitize(in.LastName)
	if !validation.IsValidName(first) || !validation.IsValidName(last) {
		return nil, apperr.Validation("Names may only contain letters, spaces, hyphens and apostrophes")
	}

	var existing domain.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	} else if err != gorm.ErrRecordNotFound {
		return nil, apperr.Wrap(err, "failed to check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to hash password")
	}

	user := &domain.User{
		Email:          email,
		PasswordHash:   string(hash),
		FirstName:      first,
		LastName:       last,
		OnboardingStep: domain.StepPlan,
	}
	if err := s.DB.WithContext(ctx).Create(user).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to create user")
	}

	if s.Onboarding != nil {
		if _, err := s.Onboarding.EvaluateAutoAccept(ctx, user); err != nil {
			return nil, err
		}
	}

	if s.Mail != nil {
		if err := s.Mail.SendWelcome(ctx, user.Email, user.FirstName); err != nil {
			log.Warn().Err(err).Str("email", user.Email).Msg("welcome email send failed")
		}
	}

	return user, nil
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserFinder abstracts credential lookup (production GORM or test doubles).
type UserFinder interface {
	FindByEmailAndPassword(email, password string) (*domain.User, error)
}

// GormUserFinder implements UserFinder using GORM and bcrypt.
type GormUserFinder struct{ DB *gorm.DB }

func (g *GormUserFinder) FindByEmailAndPassword(email, password string) (*domain.User, error) {
	return LoginUser(g.DB, LoginInput{Email: email, Password: password})
}

// LoginUser finds the user by email and verifies the password. The same error
// covers unknown email and wrong password so the endpoint does not leak which
// emails are registered.
func LoginUser(db *gorm.DB, in LoginInput) (*domain.User, error) {
	if in.Email == "" || in.Password == "" {
		return nil, ErrEmailPasswordRequired
	}
	var u domain.User
	if err := db.Where("email = ?", validation.NormalizeEmail(in.Email)).First(&u).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, apperr.Wrap(err, "failed to look up user")
	}
	if u.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}
