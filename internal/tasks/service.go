package tasks

import (
	"context"
	"time"

	"taskflow-backend/internal/constants"
	"taskflow-backend/internal/domain"
	"taskflow-backend/internal/memberships"
	"taskflow-backend/internal/notifications"
	"taskflow-backend/internal/pkg/apperr"
	"taskflow-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	DB       *gorm.DB
	Members  *memberships.Service
	Notifier *notifications.Service
}

type CreateInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	AssigneeID  *uuid.UUID `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date"`
}

// Create adds a task to an active project. An assignee, when given, must be a
// member of the org and gets notified.
func (s *Service) Create(ctx context.Context, orgID, projectID, creatorID uuid.UUID, in CreateInput) (*domain.Task, error) {
	title := validation.Sanitize(in.Title)
	if title == "" {
		return nil, apperr.Validation("Task title is required")
	}
	priority := in.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !domain.ValidTaskPriority(priority) {
		return nil, apperr.Validation("Invalid priority: must be one of low, medium, high")
	}

	var project domain.Project
	if err := s.DB.WithContext(ctx).Where("project_id = ? AND org_id = ?", projectID, orgID).First(&project).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("Project not found")
		}
		return nil, apperr.Wrap(err, "failed to look up project")
	}
	if project.Status == domain.ProjectArchived {
		return nil, apperr.Conflict("Cannot add tasks to an archived project")
	}

	if in.AssigneeID != nil {
		if err := s.requireMember(ctx, *in.AssigneeID, orgID); err != nil {
			return nil, err
		}
	}

	t := &domain.Task{
		ProjectID:   projectID,
		OrgID:       orgID,
		Title:       title,
		Description: validation.Sanitize(in.Description),
		Status:      domain.TaskTodo,
		Priority:    priority,
		AssigneeID:  in.AssigneeID,
		DueDate:     in.DueDate,
		CreatedBy:   creatorID,
	}
	if err := s.DB.WithContext(ctx).Create(t).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to create task")
	}

	if t.AssigneeID != nil && *t.AssigneeID != creatorID {
		s.notifyAssigned(ctx, t)
	}
	return t, nil
}

type ListFilter struct {
	Status     string
	AssigneeID *uuid.UUID
}

func (s *Service) List(ctx context.Context, orgID, projectID uuid.UUID, f ListFilter) ([]domain.Task, error) {
	q := s.DB.WithContext(ctx).Where("project_id = ? AND org_id = ?", projectID, orgID)
	if f.Status != "" {
		if !domain.ValidTaskStatus(f.Status) {
			return nil, apperr.Validation("Invalid status filter")
		}
		q = q.Where("status = ?", f.Status)
	}
	if f.AssigneeID != nil {
		q = q.Where("assignee_id = ?", *f.AssigneeID)
	}
	var out []domain.Task
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to list tasks")
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, orgID, taskID uuid.UUID) (*domain.Task, error) {
	var t domain.Task
	if err := s.DB.WithContext(ctx).Where("task_id = ? AND org_id = ?", taskID, orgID).First(&t).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("Task not found")
		}
		return nil, apperr.Wrap(err, "failed to look up task")
	}
	return &t, nil
}

type UpdateInput struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

func (s *Service) Update(ctx context.Context, orgID, taskID uuid.UUID, in UpdateInput) (*domain.Task, error) {
	t, err := s.Get(ctx, orgID, taskID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		title := validation.Sanitize(*in.Title)
		if title == "" {
			return nil, apperr.Validation("Task title cannot be empty")
		}
		updates["title"] = title
	}
	if in.Description != nil {
		updates["description"] = validation.Sanitize(*in.Description)
	}
	if in.Status != nil {
		if !domain.ValidTaskStatus(*in.Status) {
			return nil, apperr.Validation("Invalid status: must be one of todo, in_progress, done")
		}
		updates["status"] = *in.Status
	}
	if in.Priority != nil {
		if !domain.ValidTaskPriority(*in.Priority) {
			return nil, apperr.Validation("Invalid priority: must be one of low, medium, high")
		}
		updates["priority"] = *in.Priority
	}
	if in.DueDate != nil {
		updates["due_date"] = *in.DueDate
	}
	if len(updates) == 0 {
		return nil, apperr.Validation("No update fields provided")
	}

	if err := s.DB.WithContext(ctx).Model(t).Updates(updates).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to update task")
	}
	return t, nil
}

// Assign sets (or clears, with nil) the task assignee and notifies them.
func (s *Service) Assign(ctx context.Context, orgID, taskID uuid.UUID, assigneeID *uuid.UUID, actorID uuid.UUID) (*domain.Task, error) {
	t, err := s.Get(ctx, orgID, taskID)
	if err != nil {
		return nil, err
	}
	if assigneeID != nil {
		if err := s.requireMember(ctx, *assigneeID, orgID); err != nil {
			return nil, err
		}
	}
	if err := s.DB.WithContext(ctx).Model(t).Update("assignee_id", assigneeID).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to assign task")
	}
	t.AssigneeID = assigneeID

	if assigneeID != nil && *assigneeID != actorID {
		s.notifyAssigned(ctx, t)
	}
	return t, nil
}

// Delete removes a task. Members may delete only their own tasks; team leads
// and admins may delete any.
func (s *Service) Delete(ctx context.Context, orgID, taskID, actorID uuid.UUID, actorRole string) error {
	t, err := s.Get(ctx, orgID, taskID)
	if err != nil {
		return err
	}
	if actorRole == constants.Member && t.CreatedBy != actorID {
		return apperr.Forbidden("Only the task creator, a team lead or an admin can delete this task")
	}
	if err := s.DB.WithContext(ctx).Delete(t).Error; err != nil {
		return apperr.Wrap(err, "failed to delete task")
	}
	return nil
}

func (s *Service) requireMember(ctx context.Context, userID, orgID uuid.UUID) error {
	role, err := s.Members.RoleInOrg(ctx, userID, orgID)
	if err != nil {
		return err
	}
	if role == "" {
		return apperr.Validation("Assignee must be a member of the organization")
	}
	return nil
}

func (s *Service) notifyAssigned(ctx context.Context, t *domain.Task) {
	if s.Notifier == nil || t.AssigneeID == nil {
		return
	}
	s.Notifier.Notify(ctx, *t.AssigneeID, domain.NotifyTaskAssigned, map[string]interface{}{
		"task_id":    t.TaskID.String(),
		"project_id": t.ProjectID.String(),
		"org_id":     t.OrgID.String(),
		"title":      t.Title,
	})
}
