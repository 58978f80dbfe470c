package invitations

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"taskflow-backend/internal/constants"
	"taskflow-backend/internal/domain"
	"taskflow-backend/internal/emails"
	"taskflow-backend/internal/memberships"
	"taskflow-backend/internal/notifications"
	"taskflow-backend/internal/pkg/apperr"
	"taskflow-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const inviteExpiry = 7 * 24 * time.Hour
const resendCooldown = 24 * time.Hour

// Service is the invitation ledger. An invitation is pending while its row
// exists; acceptance consumes it inside a single transaction where the row
// delete is the exclusivity gate, so a token can never be used twice.
type Service struct {
	DB            *gorm.DB
	Mail          emails.Sender
	Notifier      *notifications.Service
	InviteBaseURL string
}

type InviteInput struct {
	OrgID       uuid.UUID
	Email       string
	Role        string // free text, normalized here
	ActorUserID uuid.UUID
	ActorEmail  string
}

// Invite creates or refreshes a pending invitation for (org, email).
// Re-inviting the same address updates the existing row with a fresh token,
// role and expiry rather than creating a duplicate.
func (s *Service) Invite(ctx context.Context, in InviteInput) (*domain.Invitation, error) {
	role, err := constants.NormalizeRole(in.Role)
	if err != nil {
		return nil, err
	}
	email := validation.NormalizeEmail(in.Email)
	if !validation.IsValidEmail(email) {
		return nil, apperr.Validation("Invalid email format")
	}
	if email == validation.NormalizeEmail(in.ActorEmail) {
		return nil, ErrSelfInvite
	}

	// Reject inviting someone who already belongs to the org.
	var member domain.User
	err = s.DB.WithContext(ctx).
		Joins("JOIN memberships ON memberships.user_id = users.user_id").
		Where("users.email = ? AND memberships.org_id = ?", email, in.OrgID).
		First(&member).Error
	if err == nil {
		return nil, ErrAlreadyMember
	}
	if err != gorm.ErrRecordNotFound {
		return nil, apperr.Wrap(err, "failed to check existing membership")
	}

	token := randomHex(32)
	expiresAt := time.Now().Add(inviteExpiry)

	var inv domain.Invitation
	err = s.DB.WithContext(ctx).Where("org_id = ? AND email = ?", in.OrgID, email).First(&inv).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		inv = domain.Invitation{
			OrgID:     in.OrgID,
			Email:     email,
			Role:      role,
			Token:     token,
			InvitedBy: in.ActorUserID,
			ExpiresAt: expiresAt,
		}
		if err := s.DB.WithContext(ctx).Create(&inv).Error; err != nil {
			return nil, apperr.Wrap(err, "failed to create invitation")
		}
	case err != nil:
		return nil, apperr.Wrap(err, "failed to check pending invitation")
	default:
		inv.Token = token
		inv.Role = role
		inv.InvitedBy = in.ActorUserID
		inv.ExpiresAt = expiresAt
		if err := s.DB.WithContext(ctx).Save(&inv).Error; err != nil {
			return nil, apperr.Wrap(err, "failed to refresh invitation")
		}
	}

	s.dispatchInvite(ctx, &inv)
	return &inv, nil
}

// dispatchInvite sends the invitation email and, when the invitee already has
// an account, an in-app notification. Best-effort: failures are logged only.
func (s *Service) dispatchInvite(ctx context.Context, inv *domain.Invitation) {
	var org domain.Organization
	orgName := ""
	if err := s.DB.WithContext(ctx).Where("org_id = ?", inv.OrgID).First(&org).Error; err == nil {
		orgName = org.Name
	}

	link := fmt.Sprintf("%s/invitations/accept?token=%s", s.InviteBaseURL, inv.Token)
	if s.Mail != nil {
		if err := s.Mail.SendInvite(ctx, inv.Email, link, orgName, inv.Role); err != nil {
			log.Warn().Err(err).Str("email", inv.Email).Msg("invite email send failed")
		}
	}

	if s.Notifier != nil {
		var invitee domain.User
		if err := s.DB.WithContext(ctx).Where("email = ?", inv.Email).First(&invitee).Error; err == nil {
			s.Notifier.Notify(ctx, invitee.UserID, domain.NotifyInviteReceived, map[string]interface{}{
				"org_id":   inv.OrgID.String(),
				"org_name": orgName,
				"role":     inv.Role,
			})
		}
	}
}

type AcceptInput struct {
	Token  string
	UserID uuid.UUID
}

type AcceptResult struct {
	OrgID   string `json:"org_id"`
	OrgName string `json:"org_name"`
	Role    string `json:"role"`
}

// Accept consumes an invitation by token for the logged-in user. The whole
// consumption runs in one transaction: delete the invitation (zero rows
// affected means another accept won the race), create the membership, advance
// the user to the completed onboarding step.
func (s *Service) Accept(ctx context.Context, in AcceptInput) (*AcceptResult, error) {
	var inv domain.Invitation
	if err := s.DB.WithContext(ctx).Where("token = ?", in.Token).First(&inv).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvalidOrExpiredToken
		}
		return nil, apperr.Wrap(err, "failed to look up invitation")
	}
	if inv.Expired() {
		return nil, ErrInvalidOrExpiredToken
	}

	var user domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", in.UserID).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Wrap(err, "failed to look up user")
	}
	if validation.NormalizeEmail(user.Email) != inv.Email {
		return nil, ErrEmailMismatch
	}

	if err := s.consume(ctx, &inv, &user); err != nil {
		return nil, err
	}

	var org domain.Organization
	orgName := ""
	if err := s.DB.WithContext(ctx).Where("org_id = ?", inv.OrgID).First(&org).Error; err == nil {
		orgName = org.Name
	}

	s.notifyAccepted(ctx, &inv, &user, orgName)

	return &AcceptResult{
		OrgID:   inv.OrgID.String(),
		OrgName: orgName,
		Role:    inv.Role,
	}, nil
}

// AutoAccept consumes a pending invitation matching the user's email, if one
// exists. Called at registration and on onboarding step evaluation; it is the
// auto-skip rule that moves a user straight to completed. Returns the consumed
// invitation, or nil when there was nothing to accept.
func (s *Service) AutoAccept(ctx context.Context, user *domain.User) (*domain.Invitation, error) {
	var inv domain.Invitation
	err := s.DB.WithContext(ctx).
		Where("email = ? AND expires_at > ?", validation.NormalizeEmail(user.Email), time.Now()).
		Order("created_at DESC").
		First(&inv).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(err, "failed to check pending invitation")
	}

	if err := s.consume(ctx, &inv, user); err != nil {
		// A concurrent explicit accept may have consumed it first; that is
		// not an error for the registration path.
		if errors.Is(err, ErrInviteConsumed) {
			return nil, nil
		}
		// The user joined the org through some other path while this
		// invitation sat pending. The consumption transaction rolled back,
		// so discard the stale row or every step evaluation retries it.
		if errors.Is(err, memberships.ErrAlreadyMember) {
			if derr := s.DB.WithContext(ctx).
				Where("invite_id = ?", inv.InviteID).
				Delete(&domain.Invitation{}).Error; derr != nil {
				return nil, apperr.Wrap(derr, "failed to discard stale invitation")
			}
			return nil, nil
		}
		return nil, err
	}

	var org domain.Organization
	orgName := ""
	if err := s.DB.WithContext(ctx).Where("org_id = ?", inv.OrgID).First(&org).Error; err == nil {
		orgName = org.Name
	}
	s.notifyAccepted(ctx, &inv, user, orgName)

	user.OnboardingStep = domain.StepCompleted
	return &inv, nil
}

// consume is the single-use gate. The soft delete only matches live rows, so
// of two concurrent consumers exactly one sees RowsAffected == 1; the loser
// aborts before any membership is created.
func (s *Service) consume(ctx context.Context, inv *domain.Invitation, user *domain.User) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("invite_id = ?", inv.InviteID).Delete(&domain.Invitation{})
		if res.Error != nil {
			return apperr.Wrap(res.Error, "failed to consume invitation")
		}
		if res.RowsAffected == 0 {
			return ErrInviteConsumed
		}

		if err := memberships.Join(tx, user.UserID, inv.OrgID, inv.Role); err != nil {
			return err
		}

		// Onboarding is monotonic; only ever raise the step.
		if domain.StepRank(user.OnboardingStep) < domain.StepRank(domain.StepCompleted) {
			if err := tx.Model(&domain.User{}).
				Where("user_id = ?", user.UserID).
				Update("onboarding_step", domain.StepCompleted).Error; err != nil {
				return apperr.Wrap(err, "failed to advance onboarding step")
			}
		}
		return nil
	})
}

func (s *Service) notifyAccepted(ctx context.Context, inv *domain.Invitation, user *domain.User, orgName string) {
	if s.Notifier != nil {
		s.Notifier.Notify(ctx, inv.InvitedBy, domain.NotifyInviteAccepted, map[string]interface{}{
			"org_id":    inv.OrgID.String(),
			"org_name":  orgName,
			"member":    user.FirstName + " " + user.LastName,
			"member_id": user.UserID.String(),
			"role":      inv.Role,
		})
	}
	if s.Mail != nil {
		var inviter domain.User
		if err := s.DB.WithContext(ctx).Where("user_id = ?", inv.InvitedBy).First(&inviter).Error; err == nil {
			name := user.FirstName + " " + user.LastName
			if err := s.Mail.SendInviteAccepted(ctx, inviter.Email, name, orgName); err != nil {
				log.Warn().Err(err).Str("email", inviter.Email).Msg("acceptance email send failed")
			}
		}
	}
}

type RevokeInput struct {
	InviteID uuid.UUID
	OrgID    uuid.UUID
}

// Revoke deletes a pending invitation. Scoped to the org so one org's admin
// cannot revoke another org's invitations.
func (s *Service) Revoke(ctx context.Context, in RevokeInput) error {
	res := s.DB.WithContext(ctx).
		Where("invite_id = ? AND org_id = ?", in.InviteID, in.OrgID).
		Delete(&domain.Invitation{})
	if res.Error != nil {
		return apperr.Wrap(res.Error, "failed to revoke invitation")
	}
	if res.RowsAffected == 0 {
		return ErrInviteNotFound
	}
	return nil
}

// ListPending returns unconsumed, unexpired invitations for an org.
func (s *Service) ListPending(ctx context.Context, orgID uuid.UUID) ([]domain.Invitation, error) {
	var out []domain.Invitation
	if err := s.DB.WithContext(ctx).
		Where("org_id = ? AND expires_at > ?", orgID, time.Now()).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to list invitations")
	}
	return out, nil
}

type ResendInput struct {
	InviteID uuid.UUID
	OrgID    uuid.UUID
}

// Resend refreshes the token and expiry of a pending invitation and re-sends
// the email. Limited to once per day per invitation.
func (s *Service) Resend(ctx context.Context, in ResendInput) (*domain.Invitation, error) {
	var inv domain.Invitation
	if err := s.DB.WithContext(ctx).Where("invite_id = ? AND org_id = ?", in.InviteID, in.OrgID).First(&inv).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInviteNotFound
		}
		return nil, apperr.Wrap(err, "failed to look up invitation")
	}
	if time.Since(inv.UpdatedAt) < resendCooldown {
		return nil, ErrResendTooSoon
	}

	inv.Token = randomHex(32)
	inv.ExpiresAt = time.Now().Add(inviteExpiry)
	if err := s.DB.WithContext(ctx).Save(&inv).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to refresh invitation")
	}

	s.dispatchInvite(ctx, &inv)
	return &inv, nil
}

type CheckTokenResult struct {
	Email   string `json:"email"`
	Role    string `json:"role"`
	OrgID   string `json:"org_id"`
	OrgName string `json:"org_name"`
	Valid   bool   `json:"valid"`
}

// CheckToken is the public pre-registration probe: it tells the signup page
// who the invitation is for without consuming anything.
func (s *Service) CheckToken(ctx context.Context, token string) (*CheckTokenResult, error) {
	if token == "" {
		return nil, apperr.Validation("Invitation token is required")
	}
	var inv domain.Invitation
	if err := s.DB.WithContext(ctx).Where("token = ?", token).First(&inv).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvalidOrExpiredToken
		}
		return nil, apperr.Wrap(err, "failed to look up invitation")
	}
	if inv.Expired() {
		return nil, ErrInvalidOrExpiredToken
	}

	var org domain.Organization
	orgName := ""
	if err := s.DB.WithContext(ctx).Where("org_id = ?", inv.OrgID).First(&org).Error; err == nil {
		orgName = org.Name
	}

	return &CheckTokenResult{
		Email:   inv.Email,
		Role:    inv.Role,
		OrgID:   inv.OrgID.String(),
		OrgName: orgName,
		Valid:   true,
	}, nil
}

func randomHex(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	return hex.EncodeToString(b)
}
