package tasks

import (
	"context"
	"testing"
	"time"

	"taskflow-backend/internal/constants"
	"taskflow-backend/internal/domain"
	"taskflow-backend/internal/memberships"
	"taskflow-backend/internal/notifications"
	"taskflow-backend/internal/pkg/apperr"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type taskFixture struct {
	svc     *Service
	db      *gorm.DB
	orgID   uuid.UUID
	project *domain.Project
	admin   *domain.User
	member  *domain.User
}

func setupTaskTest(t *testing.T) *taskFixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.User{}, &domain.Organization{}, &domain.Membership{},
		&domain.Project{}, &domain.Task{}, &domain.Notification{},
	))

	f := &taskFixture{
		db: db,
		svc: &Service{
			DB:       db,
			Members:  &memberships.Service{DB: db},
			Notifier: &notifications.Service{DB: db},
		},
	}

	f.admin = &domain.User{Email: "admin@example.com", PasswordHash: "x", FirstName: "Ad", LastName: "Min", OnboardingStep: domain.StepCompleted}
	f.member = &domain.User{Email: "member@example.com", PasswordHash: "x", FirstName: "Mem", LastName: "Ber", OnboardingStep: domain.StepCompleted}
	require.NoError(t, db.Create(f.admin).Error)
	require.NoError(t, db.Create(f.member).Error)

	org := &domain.Organization{Name: "Acme", ContactEmail: "c@example.com", CreatedBy: f.admin.UserID}
	require.NoError(t, db.Create(org).Error)
	f.orgID = org.OrgID

	require.NoError(t, db.Create(&domain.Membership{UserID: f.admin.UserID, OrgID: f.orgID, Role: constants.Admin, JoinedAt: time.Now()}).Error)
	require.NoError(t, db.Create(&domain.Membership{UserID: f.member.UserID, OrgID: f.orgID, Role: constants.Member, JoinedAt: time.Now()}).Error)

	f.project = &domain.Project{OrgID: f.orgID, Name: "Launch", Status: domain.ProjectActive, CreatedBy: f.admin.UserID}
	require.NoError(t, db.Create(f.project).Error)
	return f
}

func TestCreate_RequiresTitle(t *testing.T) {
	f := setupTaskTest(t)
	_, err := f.svc.Create(context.Background(), f.orgID, f.project.ProjectID, f.admin.UserID, CreateInput{Title: "  "})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestCreate_DefaultsToMediumPriorityTodo(t *testing.T) {
	f := setupTaskTest(t)
	task, err := f.svc.Create(context.Background(), f.orgID, f.project.ProjectID, f.admin.UserID, CreateInput{Title: "Ship it"})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskTodo, task.Status)
	assert.Equal(t, domain.PriorityMedium, task.Priority)
}

func TestCreate_RejectsArchivedProject(t *testing.T) {
	f := setupTaskTest(t)
	require.NoError(t, f.db.Model(f.project).Update("status", domain.ProjectArchived).Error)

	_, err := f.svc.Create(context.Background(), f.orgID, f.project.ProjectID, f.admin.UserID, CreateInput{Title: "Late"})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestCreate_AssigneeMustBeMember(t *testing.T) {
	f := setupTaskTest(t)
	outsider := uuid.New()
	_, err := f.svc.Create(context.Background(), f.orgID, f.project.ProjectID, f.admin.UserID, CreateInput{
		Title: "Task", AssigneeID: &outsider,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestCreate_NotifiesAssignee(t *testing.T) {
	f := setupTaskTest(t)
	task, err := f.svc.Create(context.Background(), f.orgID, f.project.ProjectID, f.admin.UserID, CreateInput{
		Title: "Review PR", AssigneeID: &f.member.UserID,
	})
	require.NoError(t, err)

	var n domain.Notification
	require.NoError(t, f.db.Where("user_id = ? AND kind = ?", f.member.UserID, domain.NotifyTaskAssigned).First(&n).Error)
	assert.Contains(t, string(n.Payload), task.TaskID.String())
}

func TestCreate_SelfAssignmentNotNotified(t *testing.T) {
	f := setupTaskTest(t)
	_, err := f.svc.Create(context.Background(), f.orgID, f.project.ProjectID, f.admin.UserID, CreateInput{
		Title: "My own task", AssigneeID: &f.admin.UserID,
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&domain.Notification{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdate_ValidatesEnums(t *testing.T) {
	f := setupTaskTest(t)
	task, err := f.svc.Create(context.Background(), f.orgID, f.project.ProjectID, f.admin.UserID, CreateInput{Title: "T"})
	require.NoError(t, err)

	bad := "blocked"
	_, err = f.svc.Update(context.Background(), f.orgID, task.TaskID, UpdateInput{Status: &bad})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	done := domain.TaskDone
	updated, err := f.svc.Update(context.Background(), f.orgID, task.TaskID, UpdateInput{Status: &done})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskDone, updated.Status)
}

func TestAssign_NilClearsAssignee(t *testing.T) {
	f := setupTaskTest(t)
	task, err := f.svc.Create(context.Background(), f.orgID, f.project.ProjectID, f.admin.UserID, CreateInput{
		Title: "T", AssigneeID: &f.member.UserID,
	})
	require.NoError(t, err)

	cleared, err := f.svc.Assign(context.Background(), f.orgID, task.TaskID, nil, f.admin.UserID)
	require.NoError(t, err)
	assert.Nil(t, cleared.AssigneeID)
}

func TestDelete_MemberOnlyOwnTasks(t *testing.T) {
	f := setupTaskTest(t)
	adminTask, err := f.svc.Create(context.Background(), f.orgID, f.project.ProjectID, f.admin.UserID, CreateInput{Title: "Admin's"})
	require.NoError(t, err)
	memberTask, err := f.svc.Create(context.Background(), f.orgID, f.project.ProjectID, f.member.UserID, CreateInput{Title: "Member's"})
	require.NoError(t, err)

	err = f.svc.Delete(context.Background(), f.orgID, adminTask.TaskID, f.member.UserID, constants.Member)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	require.NoError(t, f.svc.Delete(context.Background(), f.orgID, memberTask.TaskID, f.member.UserID, constants.Member))
	require.NoError(t, f.svc.Delete(context.Background(), f.orgID, adminTask.TaskID, f.admin.UserID, constants.Admin))
}

func TestList_FiltersByStatusAndAssignee(t *testing.T) {
	f := setupTaskTest(t)
	_, err := f.svc.Create(context.Background(), f.orgID, f.project.ProjectID, f.admin.UserID, CreateInput{Title: "A"})
	require.NoError(t, err)
	mine, err := f.svc.Create(context.Background(), f.orgID, f.project.ProjectID, f.admin.UserID, CreateInput{
		Title: "B", AssigneeID: &f.member.UserID,
	})
	require.NoError(t, err)

	got, err := f.svc.List(context.Background(), f.orgID, f.project.ProjectID, ListFilter{AssigneeID: &f.member.UserID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, mine.TaskID, got[0].TaskID)

	_, err = f.svc.List(context.Background(), f.orgID, f.project.ProjectID, ListFilter{Status: "bogus"})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}
