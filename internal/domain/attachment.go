package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Attachment struct {
	AttachmentID uuid.UUID      `gorm:"column:attachment_id;type:uuid;primaryKey" json:"attachment_id"`
	TaskID       uuid.UUID      `gorm:"column:task_id;type:uuid;not null;index" json:"task_id"`
	OrgID        uuid.UUID      `gorm:"column:org_id;type:uuid;not null" json:"org_id"`
	FileName     string         `gorm:"column:file_name;not null" json:"file_name"`
	StoragePath  string         `gorm:"column:storage_path;not null" json:"storage_path"`
	ContentType  string         `gorm:"column:content_type" json:"content_type"`
	SizeBytes    int64          `gorm:"column:size_bytes" json:"size_bytes"`
	UploadedBy   uuid.UUID      `gorm:"column:uploaded_by;type:uuid;not null" json:"uploaded_by"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Attachment) TableName() string {
	return "attachments"
}

func (a *Attachment) BeforeCreate(tx *gorm.DB) error {
	if a.AttachmentID == uuid.Nil {
		a.AttachmentID = uuid.New()
	}
	return nil
}
