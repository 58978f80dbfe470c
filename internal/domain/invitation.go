package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Invitation is pending while the row exists; acceptance and revocation
// delete it (soft delete keeps an audit trail). The token is single-use:
// the delete inside the accept transaction is the exclusivity gate.
type Invitation struct {
	InviteID  uuid.UUID      `gorm:"column:invite_id;type:uuid;primaryKey" json:"invite_id"`
	OrgID     uuid.UUID      `gorm:"column:org_id;type:uuid;not null;index:idx_invitations_org_email" json:"org_id"`
	Email     string         `gorm:"column:email;not null;index:idx_invitations_org_email" json:"email"`
	Role      string         `gorm:"column:role;not null" json:"role"`
	Token     string         `gorm:"column:token;not null;uniqueIndex" json:"-"`
	InvitedBy uuid.UUID      `gorm:"column:invited_by;type:uuid;not null" json:"invited_by"`
	ExpiresAt time.Time      `gorm:"column:expires_at;not null" json:"expires_at"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Invitation) TableName() string {
	return "invitations"
}

func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.InviteID == uuid.Nil {
		i.InviteID = uuid.New()
	}
	return nil
}

// Expired reports whether the invitation is past its expiry.
func (i *Invitation) Expired() bool {
	return i.ExpiresAt.Before(time.Now())
}
