package invitations

import (
	"context"
	"testing"
	"time"

	"taskflow-backend/internal/constants"
	"taskflow-backend/internal/domain"
	"taskflow-backend/internal/emails"
	"taskflow-backend/internal/notifications"
	"taskflow-backend/internal/pkg/apperr"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupInviteTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.User{}, &domain.Organization{}, &domain.Membership{},
		&domain.Invitation{}, &domain.Notification{},
	))
	svc := &Service{
		DB:            db,
		Mail:          emails.NoopSender{},
		Notifier:      &notifications.Service{DB: db},
		InviteBaseURL: "https://app.example.com",
	}
	return svc, db
}

func createUser(t *testing.T, db *gorm.DB, email, step string) *domain.User {
	t.Helper()
	u := &domain.User{
		Email:          email,
		PasswordHash:   "x",
		FirstName:      "Test",
		LastName:       "User",
		OnboardingStep: step,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createOrg(t *testing.T, db *gorm.DB, name string, creator uuid.UUID) *domain.Organization {
	t.Helper()
	o := &domain.Organization{Name: name, ContactEmail: "contact@example.com", CreatedBy: creator}
	require.NoError(t, db.Create(o).Error)
	return o
}

func TestInvite_CreatesPending(t *testing.T) {
	svc, db := setupInviteTest(t)
	admin := createUser(t, db, "admin@example.com", domain.StepCompleted)
	org := createOrg(t, db, "Acme", admin.UserID)

	inv, err := svc.Invite(context.Background(), InviteInput{
		OrgID:       org.OrgID,
		Email:       "New.Hire@Example.com",
		Role:        "Team Lead",
		ActorUserID: admin.UserID,
		ActorEmail:  admin.Email,
	})
	require.NoError(t, err)
	assert.Equal(t, "new.hire@example.com", inv.Email)
	assert.Equal(t, constants.TeamLead, inv.Role)
	assert.Len(t, inv.Token, 64)
	assert.True(t, inv.ExpiresAt.After(time.Now().Add(6*24*time.Hour)))
}

func TestInvite_InvalidRoleRejected(t *testing.T) {
	svc, db := setupInviteTest(t)
	admin := createUser(t, db, "admin@example.com", domain.StepCompleted)
	org := createOrg(t, db, "Acme", admin.UserID)

	_, err := svc.Invite(context.Background(), InviteInput{
		OrgID:       org.OrgID,
		Email:       "x@example.com",
		Role:        "superuser",
		ActorUserID: admin.UserID,
		ActorEmail:  admin.Email,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestInvite_SelfInviteRejected(t *testing.T) {
	svc, db := setupInviteTest(t)
	admin := createUser(t, db, "admin@example.com", domain.StepCompleted)
	org := createOrg(t, db, "Acme", admin.UserID)

	_, err := svc.Invite(context.Background(), InviteInput{
		OrgID:       org.OrgID,
		Email:       "Admin@Example.com",
		Role:        "member",
		ActorUserID: admin.UserID,
		ActorEmail:  admin.Email,
	})
	assert.ErrorIs(t, err, ErrSelfInvite)
}

func TestInvite_ExistingMemberRejected(t *testing.T) {
	svc, db := setupInviteTest(t)
	admin := createUser(t, db, "admin@example.com", domain.StepCompleted)
	org := createOrg(t, db, "Acme", admin.UserID)
	member := createUser(t, db, "member@example.com", domain.StepCompleted)
	require.NoError(t, db.Create(&domain.Membership{
		UserID: member.UserID, OrgID: org.OrgID, Role: constants.Member, JoinedAt: time.Now(),
	}).Error)

	_, err := svc.Invite(context.Background(), InviteInput{
		OrgID:       org.OrgID,
		Email:       "member@example.com",
		Role:        "member",
		ActorUserID: admin.UserID,
		ActorEmail:  admin.Email,
	})
	assert.ErrorIs(t, err, ErrAlreadyMember)
}

func TestInvite_ReinviteRefreshesExistingRow(t *testing.T) {
	svc, db := setupInviteTest(t)
	admin := createUser(t, db, "admin@example.com", domain.StepCompleted)
	org := createOrg(t, db, "Acme", admin.UserID)

	first, err := svc.Invite(context.Background(), InviteInput{
		OrgID: org.OrgID, Email: "hire@example.com", Role: "member",
		ActorUserID: admin.UserID, ActorEmail: admin.Email,
	})
	require.NoError(t, err)

	second, err := svc.Invite(context.Background(), InviteInput{
		OrgID: org.OrgID, Email: "hire@example.com", Role: "team_lead",
		ActorUserID: admin.UserID, ActorEmail: admin.Email,
	})
	require.NoError(t, err)

	assert.Equal(t, first.InviteID, second.InviteID)
	assert.NotEqual(t, first.Token, second.Token)
	assert.Equal(t, constants.TeamLead, second.Role)

	var count int64
	require.NoError(t, db.Model(&domain.Invitation{}).Where("org_id = ?", org.OrgID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAccept_ConsumesAndJoins(t *testing.T) {
	svc, db := setupInviteTest(t)
	admin := createUser(t, db, "admin@example.com", domain.StepCompleted)
	org := createOrg(t, db, "Acme", admin.UserID)
	invitee := createUser(t, db, "hire@example.com", domain.StepPlan)

	inv, err := svc.Invite(context.Background(), InviteInput{
		OrgID: org.OrgID, Email: "hire@example.com", Role: "member",
		ActorUserID: admin.UserID, ActorEmail: admin.Email,
	})
	require.NoError(t, err)

	result, err := svc.Accept(context.Background(), AcceptInput{Token: inv.Token, UserID: invitee.UserID})
	require.NoError(t, err)
	assert.Equal(t, org.OrgID.String(), result.OrgID)
	assert.Equal(t, "Acme", result.OrgName)
	assert.Equal(t, constants.Member, result.Role)

	var m domain.Membership
	require.NoError(t, db.Where("user_id = ? AND org_id = ?", invitee.UserID, org.OrgID).First(&m).Error)
	assert.Equal(t, constants.Member, m.Role)

	var fresh domain.User
	require.NoError(t, db.Where("user_id = ?", invitee.UserID).First(&fresh).Error)
	assert.Equal(t, domain.StepCompleted, fresh.OnboardingStep)

	// Second use of the same token fails: the row is gone.
	_, err = svc.Accept(context.Background(), AcceptInput{Token: inv.Token, UserID: invitee.UserID})
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestAccept_EmailMismatch(t *testing.T) {
	svc, db := setupInviteTest(t)
	admin := createUser(t, db, "admin@example.com", domain.StepCompleted)
	org := createOrg(t, db, "Acme", admin.UserID)
	stranger := createUser(t, db, "other@example.com", domain.StepPlan)

	inv, err := svc.Invite(context.Background(), InviteInput{
		OrgID: org.OrgID, Email: "hire@example.com", Role: "member",
		ActorUserID: admin.UserID, ActorEmail: admin.Email,
	})
	require.NoError(t, err)

	_, err = svc.Accept(context.Background(), AcceptInput{Token: inv.Token, UserID: stranger.UserID})
	assert.ErrorIs(t, err, ErrEmailMismatch)

	var count int64
	require.NoError(t, db.Model(&domain.Membership{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAccept_ExpiredToken(t *testing.T) {
	svc, db := setupInviteTest(t)
	admin := createUser(t, db, "admin@example.com", domain.StepCompleted)
	org := createOrg(t, db, "Acme", admin.UserID)
	invitee := createUser(t, db, "hire@example.com", domain.StepPlan)

	inv := &domain.Invitation{
		OrgID: org.OrgID, Email: "hire@example.com", Role: constants.Member,
		Token: randomHex(32), InvitedBy: admin.UserID,
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, db.Create(inv).Error)

	_, err := svc.Accept(context.Background(), AcceptInput{Token: inv.Token, UserID: invitee.UserID})
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestConsume_SecondConsumerLosesRace(t *testing.T) {
	svc, db := setupInviteTest(t)
	admin := createUser(t, db, "admin@example.com", domain.StepCompleted)
	org := createOrg(t, db, "Acme", admin.UserID)
	invitee := createUser(t, db, "hire@example.com", domain.StepPlan)

	inv, err := svc.Invite(context.Background(), InviteInput{
		OrgID: org.OrgID, Email: "hire@example.com", Role: "member",
		ActorUserID: admin.UserID, ActorEmail: admin.Email,
	})
	require.NoError(t, err)

	// Both consumers loaded the same row; only the first delete affects a row.
	stale := *inv
	require.NoError(t, svc.consume(context.Background(), inv, invitee))
	err = svc.consume(context.Background(), &stale, invitee)
	assert.ErrorIs(t, err, ErrInviteConsumed)

	var count int64
	require.NoError(t, db.Model(&domain.Membership{}).
		Where("user_id = ? AND org_id = ?", invitee.UserID, org.OrgID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAutoAccept_ConsumesPendingInvite(t *testing.T) {
	svc, db := setupInviteTest(t)
	admin := createUser(t, db, "admin@example.com", domain.StepCompleted)
	org := createOrg(t, db, "Acme", admin.UserID)

	_, err := svc.Invite(context.Background(), InviteInput{
		OrgID: org.OrgID, Email: "hire@example.com", Role: "team_lead",
		ActorUserID: admin.UserID, ActorEmail: admin.Email,
	})
	require.NoError(t, err)

	invitee := createUser(t, db, "hire@example.com", domain.StepPlan)
	consumed, err := svc.AutoAccept(context.Background(), invitee)
	require.NoError(t, err)
	require.NotNil(t, consumed)
	assert.Equal(t, org.OrgID, consumed.OrgID)
	assert.Equal(t, domain.StepCompleted, invitee.OnboardingStep)

	var m domain.Membership
	require.NoError(t, db.Where("user_id = ? AND org_id = ?", invitee.UserID, org.OrgID).First(&m).Error)
	assert.Equal(t, constants.TeamLead, m.Role)
}

func TestAutoAccept_NoPendingInvite(t *testing.T) {
	svc, db := setupInviteTest(t)
	user := createUser(t, db, "solo@example.com", domain.StepPlan)

	consumed, err := svc.AutoAccept(context.Background(), user)
	require.NoError(t, err)
	assert.Nil(t, consumed)
	assert.Equal(t, domain.StepPlan, user.OnboardingStep)
}

func TestAutoAccept_DiscardsInviteForExistingMember(t *testing.T) {
	svc, db := setupInviteTest(t)
	admin := createUser(t, db, "admin@example.com", domain.StepCompleted)
	org := createOrg(t, db, "Acme", admin.UserID)

	// The invitation was created while the user was an outsider; by the time
	// it is evaluated they already joined the org through another path.
	invitee := createUser(t, db, "hire@example.com", domain.StepCompleted)
	require.NoError(t, db.Create(&domain.Invitation{
		OrgID: org.OrgID, Email: invitee.Email, Role: constants.Member,
		Token: "feedface", InvitedBy: admin.UserID,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}).Error)
	require.NoError(t, db.Create(&domain.Membership{
		UserID: invitee.UserID, OrgID: org.OrgID, Role: constants.TeamLead, JoinedAt: time.Now(),
	}).Error)

	consumed, err := svc.AutoAccept(context.Background(), invitee)
	require.NoError(t, err)
	assert.Nil(t, consumed)

	// The stale invitation is gone, so the next step evaluation will not
	// retry it.
	var pending int64
	require.NoError(t, db.Model(&domain.Invitation{}).Where("org_id = ?", org.OrgID).Count(&pending).Error)
	assert.Zero(t, pending)

	// The existing membership is untouched.
	var m domain.Membership
	require.NoError(t, db.Where("user_id = ? AND org_id = ?", invitee.UserID, org.OrgID).First(&m).Error)
	assert.Equal(t, constants.TeamLead, m.Role)
}

func TestRevoke_ScopedToOrg(t *testing.T) {
	svc, db := setupInviteTest(t)
	admin := createUser(t, db, "admin@example.com", domain.StepCompleted)
	org := createOrg(t, db, "Acme", admin.UserID)
	other := createOrg(t, db, "Rival", admin.UserID)

	inv, err := svc.Invite(context.Background(), InviteInput{
		OrgID: org.OrgID, Email: "hire@example.com", Role: "member",
		ActorUserID: admin.UserID, ActorEmail: admin.Email,
	})
	require.NoError(t, err)

	err = svc.Revoke(context.Background(), RevokeInput{InviteID: inv.InviteID, OrgID: other.OrgID})
	assert.ErrorIs(t, err, ErrInviteNotFound)

	require.NoError(t, svc.Revoke(context.Background(), RevokeInput{InviteID: inv.InviteID, OrgID: org.OrgID}))

	pending, err := svc.ListPending(context.Background(), org.OrgID)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestResend_CooldownEnforced(t *testing.T) {
	svc, db := setupInviteTest(t)
	admin := createUser(t, db, "admin@example.com", domain.StepCompleted)
	org := createOrg(t, db, "Acme", admin.UserID)

	inv, err := svc.Invite(context.Background(), InviteInput{
		OrgID: org.OrgID, Email: "hire@example.com", Role: "member",
		ActorUserID: admin.UserID, ActorEmail: admin.Email,
	})
	require.NoError(t, err)

	_, err = svc.Resend(context.Background(), ResendInput{InviteID: inv.InviteID, OrgID: org.OrgID})
	assert.ErrorIs(t, err, ErrResendTooSoon)

	// Age the row past the cooldown.
	require.NoError(t, db.Model(&domain.Invitation{}).
		Where("invite_id = ?", inv.InviteID).
		UpdateColumn("updated_at", time.Now().Add(-25*time.Hour)).Error)

	refreshed, err := svc.Resend(context.Background(), ResendInput{InviteID: inv.InviteID, OrgID: org.OrgID})
	require.NoError(t, err)
	assert.NotEqual(t, inv.Token, refreshed.Token)
}

func TestCheckToken(t *testing.T) {
	svc, db := setupInviteTest(t)
	admin := createUser(t, db, "admin@example.com", domain.StepCompleted)
	org := createOrg(t, db, "Acme", admin.UserID)

	inv, err := svc.Invite(context.Background(), InviteInput{
		OrgID: org.OrgID, Email: "hire@example.com", Role: "member",
		ActorUserID: admin.UserID, ActorEmail: admin.Email,
	})
	require.NoError(t, err)

	result, err := svc.CheckToken(context.Background(), inv.Token)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, "hire@example.com", result.Email)
	assert.Equal(t, "Acme", result.OrgName)

	_, err = svc.CheckToken(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}
