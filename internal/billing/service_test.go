package billing

import (
	"context"
	"testing"
	"time"

	"taskflow-backend/internal/constants"
	"taskflow-backend/internal/domain"
	"taskflow-backend/internal/emails"
	"taskflow-backend/internal/invitations"
	"taskflow-backend/internal/onboarding"
	"taskflow-backend/internal/pkg/apperr"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupBillingTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.User{}, &domain.Organization{}, &domain.Membership{},
		&domain.Invitation{}, &domain.BillingEvent{},
	))
	inv := &invitations.Service{DB: db, Mail: emails.NoopSender{}, InviteBaseURL: "https://app.example.com"}
	svc := &Service{
		DB:         db,
		Creator:    MockCreator{},
		Onboarding: &onboarding.Service{DB: db, Invites: inv},
	}
	return svc, db
}

func billingTestUser(t *testing.T, db *gorm.DB, email, step string) *domain.User {
	t.Helper()
	u := &domain.User{
		Email: email, PasswordHash: "x",
		FirstName: "Bill", LastName: "Ing",
		OnboardingStep: step,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestSelectPlan_FreeHasNoPayment(t *testing.T) {
	svc, db := setupBillingTest(t)
	user := billingTestUser(t, db, "free@example.com", domain.StepPlan)

	res, err := svc.SelectPlan(context.Background(), user.UserID, PlanFree)
	require.NoError(t, err)
	assert.Equal(t, PlanFree, res.Plan.ID)
	assert.Equal(t, domain.StepOrganization, res.OnboardingStep)
	assert.Nil(t, res.Payment)

	var fresh domain.User
	require.NoError(t, db.Where("user_id = ?", user.UserID).First(&fresh).Error)
	assert.Equal(t, PlanFree, fresh.PlanTier)
}

func TestSelectPlan_PaidGetsPaymentIntent(t *testing.T) {
	svc, db := setupBillingTest(t)
	user := billingTestUser(t, db, "pro@example.com", domain.StepPlan)

	res, err := svc.SelectPlan(context.Background(), user.UserID, PlanPro)
	require.NoError(t, err)
	require.NotNil(t, res.Payment)
	assert.NotEmpty(t, res.Payment.ID)
	assert.NotEmpty(t, res.Payment.ClientSecret)
}

func TestSelectPlan_InvalidPlan(t *testing.T) {
	svc, db := setupBillingTest(t)
	user := billingTestUser(t, db, "a@example.com", domain.StepPlan)

	_, err := svc.SelectPlan(context.Background(), user.UserID, "platinum")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestSelectPlan_RepeatRejected(t *testing.T) {
	svc, db := setupBillingTest(t)
	user := billingTestUser(t, db, "a@example.com", domain.StepPlan)

	_, err := svc.SelectPlan(context.Background(), user.UserID, PlanFree)
	require.NoError(t, err)

	_, err = svc.SelectPlan(context.Background(), user.UserID, PlanPro)
	assert.ErrorIs(t, err, onboarding.ErrPlanAlreadySelected)
}

func TestPlanByID(t *testing.T) {
	assert.Nil(t, PlanByID("platinum"))
	require.NotNil(t, PlanByID(PlanPro))
	assert.EqualValues(t, 1200, PlanByID(PlanPro).PriceCents)
	assert.Zero(t, PlanByID(PlanFree).PriceCents)
}

func TestOrgSummary_AggregatesSeatsByTier(t *testing.T) {
	svc, db := setupBillingTest(t)

	org := &domain.Organization{Name: "Acme", ContactEmail: "c@acme.com", CreatedBy: uuid.New()}
	require.NoError(t, db.Create(org).Error)

	seed := func(email, tier string) {
		u := billingTestUser(t, db, email, domain.StepCompleted)
		if tier != "" {
			require.NoError(t, db.Model(u).Update("plan_tier", tier).Error)
		}
		require.NoError(t, db.Create(&domain.Membership{
			UserID: u.UserID, OrgID: org.OrgID, Role: constants.Member, JoinedAt: time.Now(),
		}).Error)
	}
	seed("p1@example.com", PlanPro)
	seed("p2@example.com", PlanPro)
	seed("f1@example.com", "")
	seed("e1@example.com", PlanEnterprise)

	sum, err := svc.OrgSummary(context.Background(), org.OrgID)
	require.NoError(t, err)
	assert.EqualValues(t, 4, sum.TotalSeats)
	assert.EqualValues(t, 2*1200+4900, sum.MonthlyTotalCents)

	byTier := map[string]int64{}
	for _, r := range sum.Breakdown {
		byTier[r.PlanTier] = r.Seats
	}
	assert.EqualValues(t, 2, byTier[PlanPro])
	assert.EqualValues(t, 1, byTier[PlanFree])
	assert.EqualValues(t, 1, byTier[PlanEnterprise])
}
