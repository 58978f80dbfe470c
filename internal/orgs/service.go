package orgs

import (
	"context"

	"taskflow-backend/internal/constants"
	"taskflow-backend/internal/domain"
	"taskflow-backend/internal/invitations"
	"taskflow-backend/internal/memberships"
	"taskflow-backend/internal/onboarding"
	"taskflow-backend/internal/pkg/apperr"
	"taskflow-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type Service struct {
	DB      *gorm.DB
	Members *memberships.Service
	Invites *invitations.Service
}

// InitialInvitation is an invite bundled with organization setup.
type InitialInvitation struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type CreateInput struct {
	Name               string              `json:"name"`
	ContactEmail       string              `json:"contact_email"`
	ContactPhone       *string             `json:"contact_phone"`
	InitialInvitations []InitialInvitation `json:"initial_invitations"`
}

// Create sets up an organization for a user in the organization onboarding
// step. Org creation, the creator's admin membership and the final onboarding
// transition commit together; initial invitations go out after commit,
// best-effort.
func (s *Service) Create(ctx context.Context, in CreateInput, userID uuid.UUID) (*domain.Organization, error) {
	name := validation.Sanitize(in.Name)
	if name == "" {
		return nil, apperr.Validation("Organization name is required")
	}
	contactEmail := validation.NormalizeEmail(in.ContactEmail)
	if contactEmail == "" || !validation.IsValidEmail(contactEmail) {
		return nil, apperr.Validation("A valid contact email is required")
	}

	var user domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Wrap(err, "failed to look up user")
	}

	var existing domain.Organization
	if err := s.DB.WithContext(ctx).Where("name = ?", name).First(&existing).Error; err == nil {
		return nil, apperr.Conflict("An organization with this name already exists")
	} else if err != gorm.ErrRecordNotFound {
		return nil, apperr.Wrap(err, "failed to check organization name")
	}

	org := &domain.Organization{
		Name:         name,
		ContactEmail: contactEmail,
		ContactPhone: in.ContactPhone,
		CreatedBy:    user.UserID,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			return apperr.Wrap(err, "failed to create organization")
		}
		if err := memberships.Join(tx, user.UserID, org.OrgID, constants.Admin); err != nil {
			return err
		}
		return onboarding.CompleteOrgSetup(tx, &user)
	})
	if err != nil {
		return nil, err
	}

	for _, spec := range in.InitialInvitations {
		if _, err := s.Invites.Invite(ctx, invitations.InviteInput{
			OrgID:       org.OrgID,
			Email:       spec.Email,
			Role:        spec.Role,
			ActorUserID: user.UserID,
			ActorEmail:  user.Email,
		}); err != nil {
			log.Warn().Err(err).Str("email", spec.Email).Str("org_id", org.OrgID.String()).Msg("initial invitation failed")
		}
	}

	return org, nil
}

// OrgView is the org detail shape with members embedded.
type OrgView struct {
	domain.Organization
	Members []memberships.MemberView `json:"members"`
}

// Get returns the organization with its member list.
func (s *Service) Get(ctx context.Context, orgID uuid.UUID) (*OrgView, error) {
	var org domain.Organization
	if err := s.DB.WithContext(ctx).Where("org_id = ?", orgID).First(&org).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("Organization not found")
		}
		return nil, apperr.Wrap(err, "failed to look up organization")
	}
	members, err := s.Members.List(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return &OrgView{Organization: org, Members: members}, nil
}

type UpdateInput struct {
	Name         *string `json:"name"`
	ContactEmail *string `json:"contact_email"`
	ContactPhone *string `json:"contact_phone"`
}

// Update changes org contact fields (admin only, gated in router).
func (s *Service) Update(ctx context.Context, orgID uuid.UUID, in UpdateInput) (*domain.Organization, error) {
	var org domain.Organization
	if err := s.DB.WithContext(ctx).Where("org_id = ?", orgID).First(&org).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("Organization not found")
		}
		return nil, apperr.Wrap(err, "failed to look up organization")
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		name := validation.Sanitize(*in.Name)
		if name == "" {
			return nil, apperr.Validation("Organization name cannot be empty")
		}
		updates["name"] = name
	}
	if in.ContactEmail != nil {
		email := validation.NormalizeEmail(*in.ContactEmail)
		if !validation.IsValidEmail(email) {
			return nil, apperr.Validation("Invalid contact email")
		}
		updates["contact_email"] = email
	}
	if in.ContactPhone != nil {
		updates["contact_phone"] = *in.ContactPhone
	}
	if len(updates) == 0 {
		return nil, apperr.Validation("No update fields provided")
	}

	if err := s.DB.WithContext(ctx).Model(&org).Updates(updates).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to update organization")
	}
	return &org, nil
}
