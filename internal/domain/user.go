package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Onboarding steps. A user starts in StepPlan at registration and only ever
// moves forward; StepCompleted is terminal.
const (
	StepPlan         = "plan"
	StepOrganization = "organization"
	StepCompleted    = "completed"
)

// StepRank orders onboarding steps for the monotonicity guard. Unknown steps
// rank below plan so they can never overwrite a real step.
func StepRank(step string) int {
	switch step {
	case StepPlan:
		return 1
	case StepOrganization:
		return 2
	case StepCompleted:
		return 3
	default:
		return 0
	}
}

type User struct {
	UserID         uuid.UUID      `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	Email          string         `gorm:"column:email;not null;uniqueIndex" json:"email"`
	PasswordHash   string         `gorm:"column:password_hash;not null" json:"-"`
	FirstName      string         `gorm:"column:first_name;not null" json:"first_name"`
	LastName       string         `gorm:"column:last_name;not null" json:"last_name"`
	OnboardingStep string         `gorm:"column:onboarding_step;not null;default:plan" json:"onboarding_step"`
	PlanTier       string         `gorm:"column:plan_tier" json:"plan_tier"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate sets the UUID for DBs without gen_random_uuid.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UserID == uuid.Nil {
		u.UserID = uuid.New()
	}
	if u.OnboardingStep == "" {
		u.OnboardingStep = StepPlan
	}
	return nil
}
