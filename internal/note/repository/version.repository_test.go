package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"notevault/internal/note/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendDuplicateVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewVersionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertVersionSQL)).
		WithArgs("note-1", "Title", "content", 2).
		WillReturnError(&pq.Error{Code: pq.ErrorCode(pqUniqueViolation)})
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	err = repo.Append(context.Background(), tx, "note-1", "Title", "content", 2)
	assert.ErrorIs(t, err, model.ErrDuplicateVersion)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListVersionsDescending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewVersionRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT note_id, title, content, version_number, created_at FROM note_versions WHERE note_id = $1 ORDER BY version_number DESC`)).
		WithArgs("note-1").
		WillReturnRows(sqlmock.NewRows([]string{"note_id", "title", "content", "version_number", "created_at"}).
			AddRow("note-1", "v3", "c3", 3, now).
			AddRow("note-1", "v2", "c2", 2, now).
			AddRow("note-1", "v1", "c1", 1, now))

	versions, err := repo.List(context.Background(), "note-1")
	require.NoError(t, err)
	require.Len(t, versions, 3)
	assert.Equal(t, 3, versions[0].VersionNumber)
	assert.Equal(t, 1, versions[2].VersionNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetVersionNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewVersionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT note_id, title, content, version_number, created_at FROM note_versions WHERE note_id = $1 AND version_number = $2`)).
		WithArgs("note-1", 7).
		WillReturnRows(sqlmock.NewRows([]string{"note_id", "title", "content", "version_number", "created_at"}))

	_, err = repo.Get(context.Background(), "note-1", 7)
	assert.ErrorIs(t, err, model.ErrVersionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
