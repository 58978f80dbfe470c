package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ProjectActive   = "active"
	ProjectArchived = "archived"
)

type Project struct {
	ProjectID   uuid.UUID      `gorm:"column:project_id;type:uuid;primaryKey" json:"project_id"`
	OrgID       uuid.UUID      `gorm:"column:org_id;type:uuid;not null;index" json:"org_id"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	Description string         `gorm:"column:description" json:"description"`
	Status      string         `gorm:"column:status;not null;default:active" json:"status"`
	CreatedBy   uuid.UUID      `gorm:"column:created_by;type:uuid;not null" json:"created_by"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Project) TableName() string {
	return "projects"
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ProjectID == uuid.Nil {
		p.ProjectID = uuid.New()
	}
	if p.Status == "" {
		p.Status = ProjectActive
	}
	return nil
}
