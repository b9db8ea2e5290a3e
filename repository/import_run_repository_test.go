package repository_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/na4oman/samsung-shop/models"
	"github.com/na4oman/samsung-shop/repository"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	assert.NoError(t, err)
	return gormDB, mock
}

func TestImportRun_Create(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormImportRunRepository(gormDB)

	now := time.Now()
	run := &models.ImportRun{
		ID:         uuid.New().String(),
		Source:     models.SourceCSV,
		Actor:      "admin-1",
		Total:      3,
		Succeeded:  2,
		Failed:     1,
		StartedAt:  now.Add(-time.Second),
		FinishedAt: now,
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "import_runs"`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), run)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportRun_FindAll(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormImportRunRepository(gormDB)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "import_runs"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows := sqlmock.NewRows([]string{"id", "job_id", "source", "actor", "total", "succeeded", "failed", "started_at", "finished_at"}).
		AddRow(uuid.New().String(), "", models.SourceJSON, "admin-1", 2, 2, 0, now, now)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "import_runs"`)).
		WillReturnRows(rows)

	runs, total, err := repo.FindAll(context.Background(), 1, 20)
	assert.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, runs, 1)
	assert.Equal(t, models.SourceJSON, runs[0].Source)
}
