package projects

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

func setupProjectTest(t *testing.T) *Service {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Project{}))
	return &Service{DB: db}
}

func TestCreate_RequiresName(t *testing.T) {
	svc := setupProjectTest(t)
	_, err := svc.Create(context.Background(), uuid.New(), uuid.New(), CreateInput{Name: "   "})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestCreate_StartsActive(t *testing.T) {
	svc := setupProjectTest(t)
	p, err := svc.Create(context.Background(), uuid.New(), uuid.New(), CreateInput{Name: "Website Redesign"})
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectActive, p.Status)
}

func TestList_FiltersByStatus(t *testing.T) {
	svc := setupProjectTest(t)
	orgID := uuid.New()
	creator := uuid.New()

	active, err := svc.Create(context.Background(), orgID, creator, CreateInput{Name: "Active"})
	require.NoError(t, err)
	archived, err := svc.Create(context.Background(), orgID, creator, CreateInput{Name: "Old"})
	require.NoError(t, err)
	_, err = svc.Archive(context.Background(), orgID, archived.ProjectID)
	require.NoError(t, err)

	got, err := svc.List(context.Background(), orgID, domain.ProjectActive)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, active.ProjectID, got[0].ProjectID)

	_, err = svc.List(context.Background(), orgID, "bogus")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestGet_ScopedToOrg(t *testing.T) {
	svc := setupProjectTest(t)
	orgID := uuid.New()
	p, err := svc.Create(context.Background(), orgID, uuid.New(), CreateInput{Name: "Secret"})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), uuid.New(), p.ProjectID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestArchive_TwiceIsConflict(t *testing.T) {
	svc := setupProjectTest(t)
	orgID := uuid.New()
	p, err := svc.Create(context.Background(), orgID, uuid.New(), CreateInput{Name: "Done"})
	require.NoError(t, err)

	archived, err := svc.Archive(context.Background(), orgID, p.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectArchived, archived.Status)

	_, err = svc.Archive(context.Background(), orgID, p.ProjectID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestUpdate_RejectsEmptyPatch(t *testing.T) {
	svc := setupProjectTest(t)
	orgID := uuid.New()
	p, err := svc.Create(context.Background(), orgID, uuid.New(), CreateInput{Name: "X"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), orgID, p.ProjectID, UpdateInput{})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}
