package domain

import (
	"time"

	"gorm.io/datatypes"
)

// BillingEvent records processed provider webhook events. The primary key is
// the provider's event id, which makes redelivered webhooks idempotent.
type BillingEvent struct {
	EventID   string         `gorm:"column:event_id;primaryKey" json:"event_id"`
	Kind      string         `gorm:"column:kind;not null" json:"kind"`
	Payload   datatypes.JSON `gorm:"column:payload" json:"payload"`
	CreatedAt time.Time      `json:"createdAt"`
}

func (BillingEvent) TableName() string {
	return "billing_events"
}
