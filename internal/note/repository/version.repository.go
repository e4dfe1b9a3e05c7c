package repository

import (
	"context"
	"database/sql"

	"notevault/internal/note/model"
	"notevault/pkg/logger"

	"github.com/cockroachdb/errors"
	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

// VersionStore is the append-only record of historical note snapshots.
// It carries no concurrency control of its own: Append only ever runs inside
// the note repository's transaction.
type VersionStore interface {
	List(ctx context.Context, noteID string) ([]model.NoteVersion, error)
	Get(ctx context.Context, noteID string, versionNumber int) (*model.NoteVersion, error)
}

type VersionRepository struct {
	DB *sql.DB
}

func NewVersionRepository(db *sql.DB) *VersionRepository {
	return &VersionRepository{DB: db}
}

// Append inserts a snapshot inside the caller's transaction. A duplicate
// (note_id, version_number) pair maps to ErrDuplicateVersion; the caller is
// expected to roll back.
func (r *VersionRepository) Append(ctx context.Context, tx *sql.Tx, noteID, title, content string, versionNumber int) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO note_versions (note_id, title, content, version_number, created_at) VALUES ($1, $2, $3, $4, NOW())`,
		noteID, title, content, versionNumber)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			logger.Sugar.Errorf("Version collision for note %s at %d: %v", noteID, versionNumber, err)
			return errors.Mark(err, model.ErrDuplicateVersion)
		}
		logger.Sugar.Errorf("Failed to append version %d for note %s: %v", versionNumber, noteID, err)
		return model.MarkUnavailable(err, "append version snapshot")
	}
	return nil
}

// List returns every snapshot of a note, newest version first.
func (r *VersionRepository) List(ctx context.Context, noteID string) ([]model.NoteVersion, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT note_id, title, content, version_number, created_at FROM note_versions WHERE note_id = $1 ORDER BY version_number DESC`,
		noteID)
	if err != nil {
		logger.Sugar.Errorf("Failed to list versions for note %s: %v", noteID, err)
		return nil, model.MarkUnavailable(err, "list versions")
	}
	defer rows.Close()

	var versions []model.NoteVersion
	for rows.Next() {
		var v model.NoteVersion
		if err := rows.Scan(&v.NoteID, &v.Title, &v.Content, &v.VersionNumber, &v.CreatedAt); err != nil {
			return nil, model.MarkUnavailable(err, "scan version row")
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, model.MarkUnavailable(err, "iterate version rows")
	}
	return versions, nil
}

// Get returns a single snapshot or ErrVersionNotFound.
func (r *VersionRepository) Get(ctx context.Context, noteID string, versionNumber int) (*model.NoteVersion, error) {
	return scanVersion(r.DB.QueryRowContext(ctx,
		`SELECT note_id, title, content, version_number, created_at FROM note_versions WHERE note_id = $1 AND version_number = $2`,
		noteID, versionNumber))
}

// getTx is Get inside an open transaction, used by revert to resolve the
// target snapshot under the row lock.
func (r *VersionRepository) getTx(ctx context.Context, tx *sql.Tx, noteID string, versionNumber int) (*model.NoteVersion, error) {
	return scanVersion(tx.QueryRowContext(ctx,
		`SELECT note_id, title, content, version_number, created_at FROM note_versions WHERE note_id = $1 AND version_number = $2`,
		noteID, versionNumber))
}

func scanVersion(row *sql.Row) (*model.NoteVersion, error) {
	var v model.NoteVersion
	err := row.Scan(&v.NoteID, &v.Title, &v.Content, &v.VersionNumber, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrVersionNotFound
	}
	if err != nil {
		return nil, model.MarkUnavailable(err, "scan version")
	}
	return &v, nil
}
