package model

import "time"

const MaxTitleLength = 255

// Note is the current-state record. Version starts at 1 and increments by
// exactly 1 on every committed mutation; DeletedAt is the soft-delete
// tombstone and is never exposed over the API.
type Note struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"owner_id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Version   int        `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"-"`
}

// NoteVersion is an immutable snapshot of a note at a given version number.
// Rows 1..v form a gapless sequence for a note at version v.
type NoteVersion struct {
	NoteID        string    `json:"note_id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	VersionNumber int       `json:"version_number"`
	CreatedAt     time.Time `json:"created_at"`
}

type CreateNoteRequest struct {
	Title   string `json:"title" validate:"required,max=255"`
	Content string `json:"content" validate:"required"`
}

// UpdateNoteRequest carries optional field deltas plus the version the caller
// last read, for the optimistic-lock check.
type UpdateNoteRequest struct {
	Title   *string `json:"title" validate:"omitempty,min=1,max=255"`
	Content *string `json:"content" validate:"omitempty,min=1"`
	Version int     `json:"version" validate:"required,min=1"`
}

// RevertNoteRequest optionally pins the expected current version. When
// Version is nil the revert still serializes on the row lock but skips the
// version-equality check.
type RevertNoteRequest struct {
	Version *int `json:"version" validate:"omitempty,min=1"`
}

type NoteListEntry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchResult is a note plus the relevance score assigned by the text-search
// engine. Results are ordered by Rank descending, then UpdatedAt descending.
type SearchResult struct {
	NoteListEntry
	Rank float64 `json:"rank"`
}
