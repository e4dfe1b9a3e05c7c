package repository

import (
	"context"
	"database/sql"
	"strings"
	"unicode/utf8"

	"notevault/internal/note/model"
	"notevault/pkg/logger"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// notTombstoned is the shared soft-delete guard. Every read path that must
// hide deleted notes appends this fragment; it is never duplicated inline.
const notTombstoned = "deleted_at IS NULL"

const noteColumns = "id, owner_id, title, content, version, created_at, updated_at"

// NoteStore owns the current-state record per note and enforces the
// optimistic-lock protocol: among concurrent writers supplying the same
// expected version, at most one commits per version transition.
type NoteStore interface {
	Create(ctx context.Context, ownerID, title, content string) (*model.Note, error)
	GetByID(ctx context.Context, ownerID, id string) (*model.Note, error)
	List(ctx context.Context, ownerID string) ([]model.Note, error)
	Update(ctx context.Context, ownerID, id string, expectedVersion int, title, content *string) (*model.Note, error)
	Delete(ctx context.Context, ownerID, id string) error
	RevertTo(ctx context.Context, ownerID, id string, versionNumber int, expectedVersion *int) (*model.Note, error)
	Search(ctx context.Context, ownerID, query string) ([]model.SearchResult, error)
	Owns(ctx context.Context, ownerID, id string) (bool, error)
}

type NoteRepository struct {
	DB       *sql.DB
	Versions *VersionRepository
}

func NewNoteRepository(db *sql.DB, versions *VersionRepository) *NoteRepository {
	return &NoteRepository{DB: db, Versions: versions}
}

// Create persists a new note at version 1 together with its version-1
// snapshot in one transaction.
func (r *NoteRepository) Create(ctx context.Context, ownerID, title, content string) (*model.Note, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateContent(content); err != nil {
		return nil, err
	}

	n := &model.Note{
		ID:      uuid.New().String(),
		OwnerID: ownerID,
		Title:   title,
		Content: content,
		Version: 1,
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, model.MarkUnavailable(err, "begin create")
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO notes (id, owner_id, title, content, version, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING created_at, updated_at`,
		n.ID, n.OwnerID, n.Title, n.Content, n.Version,
	).Scan(&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to create note for owner %s: %v", ownerID, err)
		return nil, model.MarkUnavailable(err, "insert note")
	}

	if err := r.Versions.Append(ctx, tx, n.ID, n.Title, n.Content, n.Version); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, model.MarkUnavailable(err, "commit create")
	}
	return n, nil
}

// GetByID returns an active note. Tombstoned, absent and not-owned all come
// back as ErrNoteNotFound.
func (r *NoteRepository) GetByID(ctx context.Context, ownerID, id string) (*model.Note, error) {
	return scanNote(r.DB.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = $1 AND owner_id = $2 AND `+notTombstoned,
		id, ownerID))
}

// List returns the owner's active notes, most recently updated first.
func (r *NoteRepository) List(ctx context.Context, ownerID string) ([]model.Note, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE owner_id = $1 AND `+notTombstoned+` ORDER BY updated_at DESC`,
		ownerID)
	if err != nil {
		logger.Sugar.Errorf("Failed to list notes for owner %s: %v", ownerID, err)
		return nil, model.MarkUnavailable(err, "list notes")
	}
	defer rows.Close()

	var notes []model.Note
	for rows.Next() {
		var n model.Note
		if err := rows.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Content, &n.Version, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, model.MarkUnavailable(err, "scan note row")
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, model.MarkUnavailable(err, "iterate note rows")
	}
	return notes, nil
}

// Update applies the supplied field deltas under the optimistic-lock
// protocol: lock the row, compare versions, mutate, bump the version, append
// the snapshot, commit. A mismatch rolls back and reports the authoritative
// current version via *ConflictError.
func (r *NoteRepository) Update(ctx context.Context, ownerID, id string, expectedVersion int, title, content *string) (*model.Note, error) {
	if title != nil {
		if err := validateTitle(*title); err != nil {
			return nil, err
		}
	}
	if content != nil {
		if err := validateContent(*content); err != nil {
			return nil, err
		}
	}

	return r.mutate(ctx, ownerID, id, func(ctx context.Context, tx *sql.Tx, n *model.Note) error {
		if n.Version != expectedVersion {
			return &model.ConflictError{CurrentVersion: n.Version, ProvidedVersion: expectedVersion}
		}
		if title != nil {
			n.Title = *title
		}
		if content != nil {
			n.Content = *content
		}
		return nil
	})
}

// Delete tombstones the note. It deliberately skips the version check: a
// delete racing an update resolves to "delete wins if it commits last".
// Version history is retained.
func (r *NoteRepository) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE notes SET deleted_at = NOW() WHERE id = $1 AND owner_id = $2 AND `+notTombstoned,
		id, ownerID)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete note %s: %v", id, err)
		return model.MarkUnavailable(err, "tombstone note")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return model.MarkUnavailable(err, "tombstone note result")
	}
	if affected == 0 {
		return model.ErrNoteNotFound
	}
	return nil
}

// RevertTo copies the target snapshot's title and content forward as a new
// version. History is never rewritten: reverting to v_old produces version
// current+1 whose content equals the v_old snapshot. A nil expectedVersion
// skips the optimistic check but still serializes on the row lock.
func (r *NoteRepository) RevertTo(ctx context.Context, ownerID, id string, versionNumber int, expectedVersion *int) (*model.Note, error) {
	return r.mutate(ctx, ownerID, id, func(ctx context.Context, tx *sql.Tx, n *model.Note) error {
		if expectedVersion != nil && n.Version != *expectedVersion {
			return &model.ConflictError{CurrentVersion: n.Version, ProvidedVersion: *expectedVersion}
		}
		target, err := r.Versions.getTx(ctx, tx, id, versionNumber)
		if err != nil {
			return err
		}
		n.Title = target.Title
		n.Content = target.Content
		return nil
	})
}

// mutate runs the shared lock-compare-write-snapshot sequence. apply inspects
// the locked row and sets the new field values; any error from it aborts the
// transaction with no observable state change.
func (r *NoteRepository) mutate(ctx context.Context, ownerID, id string, apply func(context.Context, *sql.Tx, *model.Note) error) (*model.Note, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, model.MarkUnavailable(err, "begin mutation")
	}
	defer tx.Rollback()

	n, err := scanNote(tx.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = $1 AND owner_id = $2 AND `+notTombstoned+` FOR UPDATE`,
		id, ownerID))
	if err != nil {
		return nil, err
	}

	if err := apply(ctx, tx, n); err != nil {
		return nil, err
	}

	n.Version++
	err = tx.QueryRowContext(ctx,
		`UPDATE notes SET title = $1, content = $2, version = $3, updated_at = NOW() WHERE id = $4 RETURNING updated_at`,
		n.Title, n.Content, n.Version, n.ID,
	).Scan(&n.UpdatedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to write note %s at version %d: %v", n.ID, n.Version, err)
		return nil, model.MarkUnavailable(err, "write note")
	}

	if err := r.Versions.Append(ctx, tx, n.ID, n.Title, n.Content, n.Version); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, model.MarkUnavailable(err, "commit mutation")
	}
	return n, nil
}

// Search delegates ranking to Postgres full-text search over title+content,
// scoped to the owner's active notes.
func (r *NoteRepository) Search(ctx context.Context, ownerID, query string) ([]model.SearchResult, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, title, content, version, created_at, updated_at,
			ts_rank(to_tsvector('english', title || ' ' || content), plainto_tsquery('english', $2)) AS rank
		FROM notes
		WHERE owner_id = $1 AND `+notTombstoned+`
			AND to_tsvector('english', title || ' ' || content) @@ plainto_tsquery('english', $2)
		ORDER BY rank DESC, updated_at DESC`,
		ownerID, query)
	if err != nil {
		logger.Sugar.Errorf("Failed to search notes for owner %s: %v", ownerID, err)
		return nil, model.MarkUnavailable(err, "search notes")
	}
	defer rows.Close()

	var results []model.SearchResult
	for rows.Next() {
		var sr model.SearchResult
		if err := rows.Scan(&sr.ID, &sr.Title, &sr.Content, &sr.Version, &sr.CreatedAt, &sr.UpdatedAt, &sr.Rank); err != nil {
			return nil, model.MarkUnavailable(err, "scan search row")
		}
		results = append(results, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, model.MarkUnavailable(err, "iterate search rows")
	}
	return results, nil
}

// Owns reports whether the owner ever created the note, tombstoned or not.
// Version history stays readable after a soft delete, so this check must not
// use the tombstone filter.
func (r *NoteRepository) Owns(ctx context.Context, ownerID, id string) (bool, error) {
	var owns bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM notes WHERE id = $1 AND owner_id = $2)`,
		id, ownerID).Scan(&owns)
	if err != nil {
		logger.Sugar.Errorf("Failed to check ownership of note %s: %v", id, err)
		return false, model.MarkUnavailable(err, "check ownership")
	}
	return owns, nil
}

func scanNote(row *sql.Row) (*model.Note, error) {
	var n model.Note
	err := row.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Content, &n.Version, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNoteNotFound
	}
	if err != nil {
		return nil, model.MarkUnavailable(err, "scan note")
	}
	return &n, nil
}

// The validation layer upstream rejects malformed payloads already; these
// re-checks are the repository's last line of defense.
func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return &model.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(title) > model.MaxTitleLength {
		return &model.ValidationError{Field: "title", Reason: "must be at most 255 characters"}
	}
	return nil
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return &model.ValidationError{Field: "content", Reason: "must not be empty"}
	}
	return nil
}
