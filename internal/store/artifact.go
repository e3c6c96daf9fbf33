package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ArtifactKind distinguishes saved images from saved videos.
type ArtifactKind string

const (
	KindSnapshot  ArtifactKind = "snapshot"
	KindRecording ArtifactKind = "recording"
)

// Valid reports whether k is a known kind.
func (k ArtifactKind) Valid() bool {
	return k == KindSnapshot || k == KindRecording
}

// Artifact is a catalog row for a file written to the data directory.
type Artifact struct {
	ID        string       `json:"id"`
	Kind      ArtifactKind `json:"kind"`
	Filename  string       `json:"filename"`
	SizeBytes int64        `json:"size_bytes"`
	Source    string       `json:"source"`
	CreatedAt time.Time    `json:"created_at"`
}

// ArtifactRepository provides CRUD operations for artifacts.
type ArtifactRepository struct {
	db *sql.DB
}

// Artifacts returns the artifact repository for this store.
func (s *Store) Artifacts() *ArtifactRepository {
	return &ArtifactRepository{db: s.db}
}

// Create inserts a new artifact. An empty ID is filled with a random UUID
// and a zero CreatedAt with the current time. Times are stored in UTC so
// that created_at sorts lexically.
func (r *ArtifactRepository) Create(a *Artifact) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	a.CreatedAt = a.CreatedAt.UTC()

	_, err := r.db.Exec(
		`INSERT INTO artifacts (id, kind, filename, size_bytes, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.Kind), a.Filename, a.SizeBytes, a.Source, a.CreatedAt,
	)
	return err
}

// GetByID retrieves an artifact by its ID.
func (r *ArtifactRepository) GetByID(id string) (*Artifact, error) {
	a := &Artifact{}
	var kind string

	err := r.db.QueryRow(
		`SELECT id, kind, filename, size_bytes, source, created_at
		 FROM artifacts WHERE id = ?`,
		id,
	).Scan(&a.ID, &kind, &a.Filename, &a.SizeBytes, &a.Source, &a.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	a.Kind = ArtifactKind(kind)
	return a, nil
}

// List returns artifacts newest first. An empty kind lists every kind.
func (r *ArtifactRepository) List(kind ArtifactKind) ([]*Artifact, error) {
	query := `SELECT id, kind, filename, size_bytes, source, created_at FROM artifacts`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	artifacts := []*Artifact{}
	for rows.Next() {
		a := &Artifact{}
		var k string
		if err := rows.Scan(&a.ID, &k, &a.Filename, &a.SizeBytes, &a.Source, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Kind = ArtifactKind(k)
		artifacts = append(artifacts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return artifacts, nil
}

// Delete removes an artifact row by its ID. The file itself is left to the caller.
func (r *ArtifactRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM artifacts WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
