package attachments

import (
	"context"
	"strings"
	"testing"

	"taskflow-backend/internal/constants"
	"taskflow-backend/internal/domain"
	"taskflow-backend/internal/pkg/apperr"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeStorage struct {
	lastBucket string
	lastPath   string
	err        error
}

func (f *fakeStorage) CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error) {
	f.lastBucket = bucket
	f.lastPath = path
	if f.err != nil {
		return "", f.err
	}
	return "https://storage.example.com/upload/sign/" + bucket + "/" + path + "?token=abc", nil
}

type attachFixture struct {
	svc     *Service
	db      *gorm.DB
	storage *fakeStorage
	orgID   uuid.UUID
	taskID  uuid.UUID
}

func setupAttachTest(t *testing.T) *attachFixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Task{}, &domain.Attachment{}))

	fs := &fakeStorage{}
	f := &attachFixture{
		db:      db,
		storage: fs,
		svc:     &Service{DB: db, Client: fs, StorageURL: "https://storage.example.com/"},
		orgID:   uuid.New(),
	}

	task := &domain.Task{
		OrgID:     f.orgID,
		ProjectID: uuid.New(),
		Title:     "Host the files",
		Status:    domain.TaskTodo,
		Priority:  domain.PriorityMedium,
		CreatedBy: uuid.New(),
	}
	require.NoError(t, db.Create(task).Error)
	f.taskID = task.TaskID
	return f
}

func TestCreateUploadURL_TicketShape(t *testing.T) {
	f := setupAttachTest(t)

	ticket, err := f.svc.CreateUploadURL(context.Background(), f.orgID, f.taskID, "report.pdf")
	require.NoError(t, err)

	assert.Equal(t, "task-attachments", f.storage.lastBucket)
	assert.True(t, strings.HasPrefix(ticket.Path, f.taskID.String()+"/"))
	assert.True(t, strings.HasSuffix(ticket.Path, "-report.pdf"))
	assert.Contains(t, ticket.UploadURL, "token=abc")
	assert.Equal(t, "https://storage.example.com/storage/v1/object/public/task-attachments/"+ticket.Path, ticket.PublicURL)
}

func TestCreateUploadURL_TaskMustExistInOrg(t *testing.T) {
	f := setupAttachTest(t)

	_, err := f.svc.CreateUploadURL(context.Background(), uuid.New(), f.taskID, "report.pdf")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestCreateUploadURL_RequiresFileName(t *testing.T) {
	f := setupAttachTest(t)

	_, err := f.svc.CreateUploadURL(context.Background(), f.orgID, f.taskID, "   ")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestRegisterAndList(t *testing.T) {
	f := setupAttachTest(t)
	uploader := uuid.New()

	a, err := f.svc.Register(context.Background(), f.orgID, f.taskID, uploader, RegisterInput{
		FileName:    "report.pdf",
		StoragePath: f.taskID.String() + "/123-report.pdf",
		ContentType: "application/pdf",
		SizeBytes:   2048,
	})
	require.NoError(t, err)
	assert.Equal(t, uploader, a.UploadedBy)

	got, err := f.svc.List(context.Background(), f.orgID, f.taskID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "report.pdf", got[0].FileName)
}

func TestDelete_UploaderOrAdminOnly(t *testing.T) {
	f := setupAttachTest(t)
	uploader := uuid.New()

	a, err := f.svc.Register(context.Background(), f.orgID, f.taskID, uploader, RegisterInput{
		FileName: "a.txt", StoragePath: "p/a.txt",
	})
	require.NoError(t, err)

	err = f.svc.Delete(context.Background(), f.orgID, a.AttachmentID, uuid.New(), constants.Member)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	require.NoError(t, f.svc.Delete(context.Background(), f.orgID, a.AttachmentID, uploader, constants.Member))

	b, err := f.svc.Register(context.Background(), f.orgID, f.taskID, uploader, RegisterInput{
		FileName: "b.txt", StoragePath: "p/b.txt",
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(context.Background(), f.orgID, b.AttachmentID, uuid.New(), constants.Admin))
}

func TestDelete_NotFoundOutsideOrg(t *testing.T) {
	f := setupAttachTest(t)
	uploader := uuid.New()

	a, err := f.svc.Register(context.Background(), f.orgID, f.taskID, uploader, RegisterInput{
		FileName: "a.txt", StoragePath: "p/a.txt",
	})
	require.NoError(t, err)

	err = f.svc.Delete(context.Background(), uuid.New(), a.AttachmentID, uploader, constants.Admin)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
