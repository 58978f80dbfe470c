package memberships

import (
	"context"
	"strings"
	"time"

	"taskflow-backend/internal/constants"
	"taskflow-backend/internal/domain"
	"taskflow-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service is the membership registry: it owns the (user, org, role) triples
// and is the single authorization primitive for org-scoped actions.
type Service struct {
	DB *gorm.DB
}

// Join creates a membership inside the given DB handle (plain or transaction).
// The composite primary key keeps the one-membership-per-pair invariant even
// under concurrent joins; a key collision surfaces as ErrAlreadyMember.
func Join(db *gorm.DB, userID, orgID uuid.UUID, role string) error {
	if !constants.IsValidRole(role) {
		return apperr.Validation("Invalid role: must be one of admin, team_lead, member")
	}
	var existing domain.Membership
	err := db.Where("user_id = ? AND org_id = ?", userID, orgID).First(&existing).Error
	if err == nil {
		return ErrAlreadyMember
	}
	if err != gorm.ErrRecordNotFound {
		return apperr.Wrap(err, "failed to check membership")
	}
	m := &domain.Membership{
		UserID:   userID,
		OrgID:    orgID,
		Role:     role,
		JoinedAt: time.Now(),
	}
	if err := db.Create(m).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrAlreadyMember
		}
		return apperr.Wrap(err, "failed to create membership")
	}
	return nil
}

// isDuplicateKey detects a primary/unique key violation across drivers
// (postgres in production, sqlite in tests).
func isDuplicateKey(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

// Join adds a user to an organization with the given (already normalized) role.
func (s *Service) Join(ctx context.Context, userID, orgID uuid.UUID, role string) error {
	return Join(s.DB.WithContext(ctx), userID, orgID, role)
}

// RoleInOrg returns the user's role in the org, or "" when there is no
// membership. Implements middleware.RoleLookup.
func (s *Service) RoleInOrg(ctx context.Context, userID, orgID uuid.UUID) (string, error) {
	var m domain.Membership
	err := s.DB.WithContext(ctx).Where("user_id = ? AND org_id = ?", userID, orgID).First(&m).Error
	if err == gorm.ErrRecordNotFound {
		return "", nil
	}
	if err != nil {
		return "", apperr.Wrap(err, "failed to look up membership")
	}
	return m.Role, nil
}

// Authorize reports whether the user's role in the org is one of requiredRoles.
// A user with no membership has no privilege anywhere.
func (s *Service) Authorize(ctx context.Context, userID, orgID uuid.UUID, requiredRoles ...string) (bool, error) {
	role, err := s.RoleInOrg(ctx, userID, orgID)
	if err != nil {
		return false, err
	}
	if role == "" {
		return false, nil
	}
	for _, r := range requiredRoles {
		if r == role {
			return true, nil
		}
	}
	return false, nil
}

// MemberView is the member list row shape (membership + user fields).
type MemberView struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	JoinedAt  time.Time `json:"joined_at"`
}

// List returns all members of the org with user details, oldest first.
func (s *Service) List(ctx context.Context, orgID uuid.UUID) ([]MemberView, error) {
	var out []MemberView
	err := s.DB.WithContext(ctx).
		Table("memberships").
		Select("memberships.user_id, users.email, users.first_name, users.last_name, memberships.role, memberships.joined_at").
		Joins("JOIN users ON users.user_id = memberships.user_id AND users.deleted_at IS NULL").
		Where("memberships.org_id = ?", orgID).
		Order("memberships.joined_at ASC").
		Scan(&out).Error
	if err != nil {
		return nil, apperr.Wrap(err, "failed to list members")
	}
	return out, nil
}

type UpdateRoleInput struct {
	OrgID        uuid.UUID
	TargetUserID uuid.UUID
	Role         string // free text, normalized here
	ActorUserID  uuid.UUID
}

// UpdateRole changes a member's role. The actor may not change their own
// role, and the last admin of an org cannot be demoted.
func (s *Service) UpdateRole(ctx context.Context, in UpdateRoleInput) (*domain.Membership, error) {
	role, err := constants.NormalizeRole(in.Role)
	if err != nil {
		return nil, err
	}
	if in.ActorUserID == in.TargetUserID {
		return nil, ErrCannotChangeOwnRole
	}

	var m domain.Membership
	if err := s.DB.WithContext(ctx).Where("user_id = ? AND org_id = ?", in.TargetUserID, in.OrgID).First(&m).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotMember
		}
		return nil, apperr.Wrap(err, "failed to look up membership")
	}

	if m.Role == constants.Admin && role != constants.Admin {
		if err := s.ensureNotLastAdmin(ctx, in.OrgID); err != nil {
			return nil, err
		}
	}

	m.Role = role
	if err := s.DB.WithContext(ctx).Save(&m).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to update role")
	}
	return &m, nil
}

type RemoveInput struct {
	OrgID        uuid.UUID
	TargetUserID uuid.UUID
	ActorUserID  uuid.UUID
}

// Remove deletes a membership. The actor may not remove themselves, and the
// last admin cannot be removed.
func (s *Service) Remove(ctx context.Context, in RemoveInput) error {
	if in.ActorUserID == in.TargetUserID {
		return ErrCannotRemoveSelf
	}
	var m domain.Membership
	if err := s.DB.WithContext(ctx).Where("user_id = ? AND org_id = ?", in.TargetUserID, in.OrgID).First(&m).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotMember
		}
		return apperr.Wrap(err, "failed to look up membership")
	}
	if m.Role == constants.Admin {
		if err := s.ensureNotLastAdmin(ctx, in.OrgID); err != nil {
			return err
		}
	}
	if err := s.DB.WithContext(ctx).
		Where("user_id = ? AND org_id = ?", in.TargetUserID, in.OrgID).
		Delete(&domain.Membership{}).Error; err != nil {
		return apperr.Wrap(err, "failed to remove member")
	}
	return nil
}

func (s *Service) ensureNotLastAdmin(ctx context.Context, orgID uuid.UUID) error {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&domain.Membership{}).
		Where("org_id = ? AND role = ?", orgID, constants.Admin).
		Count(&count).Error; err != nil {
		return apperr.Wrap(err, "failed to count admins")
	}
	if count <= 1 {
		return ErrLastAdmin
	}
	return nil
}
