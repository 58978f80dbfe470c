package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Organization struct {
	OrgID        uuid.UUID      `gorm:"column:org_id;type:uuid;primaryKey" json:"org_id"`
	Name         string         `gorm:"column:name;not null;uniqueIndex" json:"name"`
	ContactEmail string         `gorm:"column:contact_email;not null" json:"contact_email"`
	ContactPhone *string        `gorm:"column:contact_phone" json:"contact_phone"`
	CreatedBy    uuid.UUID      `gorm:"column:created_by;type:uuid;not null" json:"created_by"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Organization) TableName() string {
	return "organizations"
}

func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.OrgID == uuid.Nil {
		o.OrgID = uuid.New()
	}
	return nil
}
