package notifications

import (
	"context"
	"testing"

	"taskflow-backend/internal/domain"
	"taskflow-backend/internal/pkg/apperr"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupNotifyTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Notification{}))
	return &Service{DB: db}, db
}

func TestNotifyAndList(t *testing.T) {
	svc, _ := setupNotifyTest(t)
	userID := uuid.New()

	svc.Notify(context.Background(), userID, domain.NotifyTaskAssigned, map[string]interface{}{"task": "x"})
	svc.Notify(context.Background(), userID, domain.NotifyInviteAccepted, map[string]interface{}{"org": "y"})
	svc.Notify(context.Background(), uuid.New(), domain.NotifyMemberJoined, nil)

	got, err := svc.List(context.Background(), userID, false)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestMarkRead_OwnerScoped(t *testing.T) {
	svc, db := setupNotifyTest(t)
	owner := uuid.New()
	svc.Notify(context.Background(), owner, domain.NotifyTaskAssigned, nil)

	var n domain.Notification
	require.NoError(t, db.Where("user_id = ?", owner).First(&n).Error)

	// Someone else cannot mark it.
	err := svc.MarkRead(context.Background(), uuid.New(), n.NotificationID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	require.NoError(t, svc.MarkRead(context.Background(), owner, n.NotificationID))

	unread, err := svc.List(context.Background(), owner, true)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestMarkAllRead(t *testing.T) {
	svc, _ := setupNotifyTest(t)
	owner := uuid.New()
	svc.Notify(context.Background(), owner, domain.NotifyTaskAssigned, nil)
	svc.Notify(context.Background(), owner, domain.NotifyInviteReceived, nil)

	require.NoError(t, svc.MarkAllRead(context.Background(), owner))

	unread, err := svc.List(context.Background(), owner, true)
	require.NoError(t, err)
	assert.Empty(t, unread)

	all, err := svc.List(context.Background(), owner, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
