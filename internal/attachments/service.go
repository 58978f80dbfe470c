package attachments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskflow-backend/internal/constants"
	"taskflow-backend/internal/domain"
	"taskflow-backend/internal/pkg/apperr"
	"taskflow-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const attachmentBucket = "task-attachments"

type Service struct {
	DB         *gorm.DB
	Client     StorageClient
	StorageURL string
}

// UploadTicket is returned by CreateUploadURL: the client PUTs the file to
// UploadURL, then registers the attachment with Path.
type UploadTicket struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
	Path      string `json:"path"`
}

// CreateUploadURL issues a signed upload URL for a task attachment.
func (s *Service) CreateUploadURL(ctx context.Context, orgID, taskID uuid.UUID, fileName string) (*UploadTicket, error) {
	fileName = validation.Sanitize(fileName)
	if fileName == "" {
		return nil, apperr.Validation("file_name is required")
	}
	if _, err := s.task(ctx, orgID, taskID); err != nil {
		return nil, err
	}

	path := fmt.Sprintf("%s/%d-%s", taskID, time.Now().UnixMilli(), fileName)
	signedURL, err := s.Client.CreateSignedUploadURL(ctx, attachmentBucket, path)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to generate upload URL")
	}

	publicBase := strings.TrimRight(s.StorageURL, "/")
	publicURL := fmt.Sprintf("%s/storage/v1/object/public/%s/%s", publicBase, attachmentBucket, path)

	return &UploadTicket{
		UploadURL: signedURL,
		PublicURL: publicURL,
		Path:      path,
	}, nil
}

type RegisterInput struct {
	FileName    string `json:"file_name"`
	StoragePath string `json:"storage_path"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

// Register records an uploaded file against a task.
func (s *Service) Register(ctx context.Context, orgID, taskID, uploaderID uuid.UUID, in RegisterInput) (*domain.Attachment, error) {
	if validation.Sanitize(in.FileName) == "" || in.StoragePath == "" {
		return nil, apperr.Validation("file_name and storage_path are required")
	}
	if _, err := s.task(ctx, orgID, taskID); err != nil {
		return nil, err
	}

	a := &domain.Attachment{
		TaskID:      taskID,
		OrgID:       orgID,
		FileName:    validation.Sanitize(in.FileName),
		StoragePath: in.StoragePath,
		ContentType: in.ContentType,
		SizeBytes:   in.SizeBytes,
		UploadedBy:  uploaderID,
	}
	if err := s.DB.WithContext(ctx).Create(a).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to register attachment")
	}
	return a, nil
}

// List returns a task's attachments.
func (s *Service) List(ctx context.Context, orgID, taskID uuid.UUID) ([]domain.Attachment, error) {
	if _, err := s.task(ctx, orgID, taskID); err != nil {
		return nil, err
	}
	var out []domain.Attachment
	if err := s.DB.WithContext(ctx).
		Where("task_id = ? AND org_id = ?", taskID, orgID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to list attachments")
	}
	return out, nil
}

// Delete removes an attachment record. Only the uploader or an org admin may
// delete.
func (s *Service) Delete(ctx context.Context, orgID, attachmentID, actorID uuid.UUID, actorRole string) error {
	var a domain.Attachment
	if err := s.DB.WithContext(ctx).Where("attachment_id = ? AND org_id = ?", attachmentID, orgID).First(&a).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperr.NotFound("Attachment not found")
		}
		return apperr.Wrap(err, "failed to look up attachment")
	}
	if a.UploadedBy != actorID && actorRole != constants.Admin {
		return apperr.Forbidden("Only the uploader or an admin can delete this attachment")
	}
	if err := s.DB.WithContext(ctx).Delete(&a).Error; err != nil {
		return apperr.Wrap(err, "failed to delete attachment")
	}
	return nil
}

func (s *Service) task(ctx context.Context, orgID, taskID uuid.UUID) (*domain.Task, error) {
	var t domain.Task
	if err := s.DB.WithContext(ctx).Where("task_id = ? AND org_id = ?", taskID, orgID).First(&t).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("Task not found")
		}
		return nil, apperr.Wrap(err, "failed to look up task")
	}
	return &t, nil
}
