package notifications

import (
	"context"
	"encoding/json"
	"time"

	"taskflow-backend/internal/domain"
	"taskflow-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	DB *gorm.DB
}

// Notify records an in-app notification. Best-effort: failures are logged and
// never propagated, so a failed notification cannot roll back the state
// transition that produced it.
func (s *Service) Notify(ctx context.Context, userID uuid.UUID, kind string, payload map[string]interface{}) {
	b, err := json.Marshal(payload)
	if err != nil {
		log.Warn().Err(err).Str("kind", kind).Msg("notification payload marshal failed")
		return
	}
	n := &domain.Notification{
		UserID:  userID,
		Kind:    kind,
		Payload: datatypes.JSON(b),
	}
	if err := s.DB.WithContext(ctx).Create(n).Error; err != nil {
		log.Warn().Err(err).Str("kind", kind).Str("user_id", userID.String()).Msg("notification insert failed")
	}
}

// List returns the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]domain.Notification, error) {
	q := s.DB.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	var out []domain.Notification
	if err := q.Order("created_at DESC").Limit(100).Find(&out).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to list notifications")
	}
	return out, nil
}

// MarkRead marks one notification read. Only the owner may mark it.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	now := time.Now()
	res := s.DB.WithContext(ctx).Model(&domain.Notification{}).
		Where("notification_id = ? AND user_id = ?", notificationID, userID).
		Update("read_at", &now)
	if res.Error != nil {
		return apperr.Wrap(res.Error, "failed to mark notification read")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Notification not found")
	}
	return nil
}

// MarkAllRead marks all of the user's unread notifications read.
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	now := time.Now()
	if err := s.DB.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", &now).Error; err != nil {
		return apperr.Wrap(err, "failed to mark notifications read")
	}
	return nil
}
