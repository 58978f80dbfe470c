package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TaskTodo       = "todo"
	TaskInProgress = "in_progress"
	TaskDone       = "done"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ValidTaskStatus reports whether s is an allowed task status.
func ValidTaskStatus(s string) bool {
	return s == TaskTodo || s == TaskInProgress || s == TaskDone
}

// ValidTaskPriority reports whether p is an allowed task priority.
func ValidTaskPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

type Task struct {
	TaskID      uuid.UUID      `gorm:"column:task_id;type:uuid;primaryKey" json:"task_id"`
	ProjectID   uuid.UUID      `gorm:"column:project_id;type:uuid;not null;index" json:"project_id"`
	OrgID       uuid.UUID      `gorm:"column:org_id;type:uuid;not null;index" json:"org_id"`
	Title       string         `gorm:"column:title;not null" json:"title"`
	Description string         `gorm:"column:description" json:"description"`
	Status      string         `gorm:"column:status;not null;default:todo" json:"status"`
	Priority    string         `gorm:"column:priority;not null;default:medium" json:"priority"`
	AssigneeID  *uuid.UUID     `gorm:"column:assignee_id;type:uuid;index" json:"assignee_id"`
	DueDate     *time.Time     `gorm:"column:due_date" json:"due_date"`
	CreatedBy   uuid.UUID      `gorm:"column:created_by;type:uuid;not null" json:"created_by"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Task) TableName() string {
	return "tasks"
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.TaskID == uuid.Nil {
		t.TaskID = uuid.New()
	}
	if t.Status == "" {
		t.Status = TaskTodo
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	return nil
}
