package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification kinds.
const (
	NotifyInviteReceived = "invite_received"
	NotifyInviteAccepted = "invite_accepted"
	NotifyMemberJoined   = "member_joined"
	NotifyTaskAssigned   = "task_assigned"
)

type Notification struct {
	NotificationID uuid.UUID      `gorm:"column:notification_id;type:uuid;primaryKey" json:"notification_id"`
	UserID         uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Kind           string         `gorm:"column:kind;not null" json:"kind"`
	Payload        datatypes.JSON `gorm:"column:payload" json:"payload"`
	ReadAt         *time.Time     `gorm:"column:read_at" json:"read_at"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.NotificationID == uuid.Nil {
		n.NotificationID = uuid.New()
	}
	return nil
}
