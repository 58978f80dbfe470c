package domain

import (
	"time"

	"github.com/google/uuid"
)

// Membership binds a user to an organization with a role. The composite
// primary key is the at-most-one-membership-per-pair invariant; no soft
// delete so the constraint stays hard.
type Membership struct {
	UserID   uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	OrgID    uuid.UUID `gorm:"column:org_id;type:uuid;primaryKey" json:"org_id"`
	Role     string    `gorm:"column:role;not null" json:"role"`
	JoinedAt time.Time `gorm:"column:joined_at;not null" json:"joined_at"`
}

func (Membership) TableName() string {
	return "memberships"
}
