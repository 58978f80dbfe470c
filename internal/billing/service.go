package billing

import (
	"context"

	"taskflow-backend/internal/domain"
	"taskflow-backend/internal/onboarding"
	"taskflow-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	DB         *gorm.DB
	Creator    PaymentIntentCreator
	Onboarding *onboarding.Service
}

// SelectResult is what plan selection hands back to the client: the chosen
// plan, the user's onboarding state afterwards, and a payment intent for paid
// tiers.
type SelectResult struct {
	Plan           Plan                 `json:"plan"`
	OnboardingStep string               `json:"onboarding_step"`
	Payment        *PaymentIntentResult `json:"payment,omitempty"`
}

// SelectPlan records the user's plan tier and advances onboarding past the
// plan step. Paid tiers additionally get a payment intent; the plan is
// recorded immediately either way since payment collection is not a gate on
// onboarding.
func (s *Service) SelectPlan(ctx context.Context, userID uuid.UUID, planID string) (*SelectResult, error) {
	plan := PlanByID(planID)
	if plan == nil {
		return nil, apperr.Validation("Invalid plan: must be one of free, pro, enterprise")
	}

	user, err := s.Onboarding.AdvanceAfterPlan(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.DB.WithContext(ctx).Model(&domain.User{}).
		Where("user_id = ?", userID).
		Update("plan_tier", plan.ID).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to record plan selection")
	}

	out := &SelectResult{Plan: *plan, OnboardingStep: user.OnboardingStep}
	if plan.PriceCents > 0 {
		pi, err := s.Creator.Create(plan.PriceCents, plan.Currency, map[string]string{
			"user_id": userID.String(),
			"plan":    plan.ID,
		})
		if err != nil {
			return nil, apperr.Wrap(err, "failed to create payment intent")
		}
		out.Payment = pi
	}
	return out, nil
}

// SeatRow is one line of the org billing summary.
type SeatRow struct {
	PlanTier string `json:"plan_tier"`
	Seats    int64  `json:"seats"`
}

type Summary struct {
	OrgID             uuid.UUID `json:"org_id"`
	TotalSeats        int64     `json:"total_seats"`
	Breakdown         []SeatRow `json:"breakdown"`
	MonthlyTotalCents int64     `json:"monthly_total_cents"`
}

// OrgSummary aggregates the org's seats by plan tier. Admin-only; the
// permission check happens in the route middleware.
func (s *Service) OrgSummary(ctx context.Context, orgID uuid.UUID) (*Summary, error) {
	var rows []SeatRow
	err := s.DB.WithContext(ctx).
		Table("memberships").
		Select("COALESCE(NULLIF(users.plan_tier, ''), 'free') AS plan_tier, COUNT(*) AS seats").
		Joins("JOIN users ON users.user_id = memberships.user_id AND users.deleted_at IS NULL").
		Where("memberships.org_id = ?", orgID).
		Group("COALESCE(NULLIF(users.plan_tier, ''), 'free')").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Wrap(err, "failed to aggregate billing summary")
	}

	out := &Summary{OrgID: orgID, Breakdown: rows}
	for _, r := range rows {
		out.TotalSeats += r.Seats
		if p := PlanByID(r.PlanTier); p != nil {
			out.MonthlyTotalCents += p.PriceCents * r.Seats
		}
	}
	return out, nil
}
