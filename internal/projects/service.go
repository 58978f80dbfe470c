package projects

import (
	"context"

	"taskflow-backend/internal/domain"
	"taskflow-backend/internal/pkg/apperr"
	"taskflow-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	DB *gorm.DB
}

type CreateInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Service) Create(ctx context.Context, orgID, creatorID uuid.UUID, in CreateInput) (*domain.Project, error) {
	name := validation.Sanitize(in.Name)
	if name == "" {
		return nil, apperr.Validation("Project name is required")
	}

	p := &domain.Project{
		OrgID:       orgID,
		Name:        name,
		Description: validation.Sanitize(in.Description),
		Status:      domain.ProjectActive,
		CreatedBy:   creatorID,
	}
	if err := s.DB.WithContext(ctx).Create(p).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to create project")
	}
	return p, nil
}

// List returns the org's projects, optionally filtered by status.
func (s *Service) List(ctx context.Context, orgID uuid.UUID, status string) ([]domain.Project, error) {
	q := s.DB.WithContext(ctx).Where("org_id = ?", orgID)
	if status != "" {
		if status != domain.ProjectActive && status != domain.ProjectArchived {
			return nil, apperr.Validation("Invalid project status filter")
		}
		q = q.Where("status = ?", status)
	}
	var out []domain.Project
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to list projects")
	}
	return out, nil
}

// Get returns one project, scoped to the org.
func (s *Service) Get(ctx context.Context, orgID, projectID uuid.UUID) (*domain.Project, error) {
	var p domain.Project
	if err := s.DB.WithContext(ctx).Where("project_id = ? AND org_id = ?", projectID, orgID).First(&p).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("Project not found")
		}
		return nil, apperr.Wrap(err, "failed to look up project")
	}
	return &p, nil
}

type UpdateInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (s *Service) Update(ctx context.Context, orgID, projectID uuid.UUID, in UpdateInput) (*domain.Project, error) {
	p, err := s.Get(ctx, orgID, projectID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		name := validation.Sanitize(*in.Name)
		if name == "" {
			return nil, apperr.Validation("Project name cannot be empty")
		}
		updates["name"] = name
	}
	if in.Description != nil {
		updates["description"] = validation.Sanitize(*in.Description)
	}
	if len(updates) == 0 {
		return nil, apperr.Validation("No update fields provided")
	}

	if err := s.DB.WithContext(ctx).Model(p).Updates(updates).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to update project")
	}
	return p, nil
}

// Archive marks a project archived. Archiving twice is a conflict.
func (s *Service) Archive(ctx context.Context, orgID, projectID uuid.UUID) (*domain.Project, error) {
	p, err := s.Get(ctx, orgID, projectID)
	if err != nil {
		return nil, err
	}
	if p.Status == domain.ProjectArchived {
		return nil, apperr.Conflict("Project is already archived")
	}
	if err := s.DB.WithContext(ctx).Model(p).Update("status", domain.ProjectArchived).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to archive project")
	}
	return p, nil
}
