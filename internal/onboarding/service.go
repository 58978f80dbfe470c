package onboarding

import (
	"context"

	"taskflow-backend/internal/domain"
	"taskflow-backend/internal/invitations"
	"taskflow-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service is the onboarding state machine: plan -> organization -> completed,
// strictly forward, with completed terminal. A pending invitation matching
// the user's email short-circuits everything: whenever a step is evaluated,
// the invitation is consumed (once) and the user lands in completed with a
// membership, skipping plan selection and organization setup.
type Service struct {
	DB      *gorm.DB
	Invites *invitations.Service
}

// Step returns the user's current onboarding state after running the
// auto-accept evaluation, so a pending invitation is picked up on any
// explicit step query, not just at registration.
func (s *Service) Step(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.OnboardingStep != domain.StepCompleted {
		if _, err := s.Invites.AutoAccept(ctx, user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// AdvanceAfterPlan performs the plan -> organization transition. Called by
// billing after a successful plan selection. If a pending invitation exists
// the auto-skip rule wins: the user goes straight to completed and the
// intermediate transition is skipped.
func (s *Service) AdvanceAfterPlan(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	switch user.OnboardingStep {
	case domain.StepCompleted:
		return nil, ErrAlreadyCompleted
	case domain.StepOrganization:
		return nil, ErrPlanAlreadySelected
	}

	if inv, err := s.Invites.AutoAccept(ctx, user); err != nil {
		return nil, err
	} else if inv != nil {
		return user, nil
	}

	if err := s.DB.WithContext(ctx).Model(&domain.User{}).
		Where("user_id = ? AND onboarding_step = ?", userID, domain.StepPlan).
		Update("onboarding_step", domain.StepOrganization).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to advance onboarding step")
	}
	user.OnboardingStep = domain.StepOrganization
	return user, nil
}

// CompleteOrgSetup performs the organization -> completed transition inside
// the caller's transaction (org creation). The step guard in the WHERE clause
// enforces ordering: a user still in plan, or already completed, cannot pass.
func CompleteOrgSetup(tx *gorm.DB, user *domain.User) error {
	switch user.OnboardingStep {
	case domain.StepPlan:
		return ErrPlanNotSelected
	case domain.StepCompleted:
		return ErrAlreadyCompleted
	}
	res := tx.Model(&domain.User{}).
		Where("user_id = ? AND onboarding_step = ?", user.UserID, domain.StepOrganization).
		Update("onboarding_step", domain.StepCompleted)
	if res.Error != nil {
		return apperr.Wrap(res.Error, "failed to complete onboarding")
	}
	if res.RowsAffected == 0 {
		// Step changed underneath us (concurrent transition); keep monotonic.
		return ErrAlreadyCompleted
	}
	user.OnboardingStep = domain.StepCompleted
	return nil
}

// EvaluateAutoAccept exposes the auto-skip evaluation for registration.
func (s *Service) EvaluateAutoAccept(ctx context.Context, user *domain.User) (*domain.Invitation, error) {
	return s.Invites.AutoAccept(ctx, user)
}

func (s *Service) load(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var user domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Wrap(err, "failed to look up user")
	}
	return &user, nil
}
