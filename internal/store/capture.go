package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// CaptureKind represents the kind of capture (photo or video).
type CaptureKind string

const (
	// KindPhoto represents a still picture capture.
	KindPhoto CaptureKind = "photo"
	// KindVideo represents a video recording.
	KindVideo CaptureKind = "video"
)

// Capture represents a capture record stored in the database. Each row
// indexes one file the capture pipeline wrote to disk.
type Capture struct {
	ID         string
	CameraID   int64
	Kind       CaptureKind
	Path       string
	DurationMS int64
	CreatedAt  time.Time
}

// CaptureRepository provides CRUD operations for captures.
type CaptureRepository struct {
	db *sql.DB
}

// Captures returns the capture repository for this store.
func (s *Store) Captures() *CaptureRepository {
	return &CaptureRepository{db: s.db}
}

// Create inserts a new capture into the database. If the capture has no
// ID, a random one is assigned.
func (r *CaptureRepository) Create(c *Capture) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO captures (id, camera_id, kind, path, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.CameraID, string(c.Kind), c.Path, c.DurationMS, c.CreatedAt,
	)
	if err != nil {
		return err
	}

	return nil
}

// GetByID retrieves a capture by its ID.
func (r *CaptureRepository) GetByID(id string) (*Capture, error) {
	c := &Capture{}
	var kind string

	err := r.db.QueryRow(
		`SELECT id, camera_id, kind, path, duration_ms, created_at
		 FROM captures WHERE id = ?`,
		id,
	).Scan(&c.ID, &c.CameraID, &kind, &c.Path, &c.DurationMS, &c.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	c.Kind = CaptureKind(kind)
	return c, nil
}

// List retrieves all captures from the database, newest first.
func (r *CaptureRepository) List() ([]*Capture, error) {
	return r.query(
		`SELECT id, camera_id, kind, path, duration_ms, created_at
		 FROM captures ORDER BY created_at DESC`,
	)
}

// ListByKind retrieves all captures of the given kind, newest first.
func (r *CaptureRepository) ListByKind(kind CaptureKind) ([]*Capture, error) {
	return r.query(
		`SELECT id, camera_id, kind, path, duration_ms, created_at
		 FROM captures WHERE kind = ? ORDER BY created_at DESC`,
		string(kind),
	)
}

func (r *CaptureRepository) query(q string, args ...any) ([]*Capture, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var captures []*Capture
	for rows.Next() {
		c := &Capture{}
		var kind string

		err := rows.Scan(&c.ID, &c.CameraID, &kind, &c.Path, &c.DurationMS, &c.CreatedAt)
		if err != nil {
			return nil, err
		}

		c.Kind = CaptureKind(kind)
		captures = append(captures, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return captures, nil
}

// Delete removes a capture from the database by its ID.
func (r *CaptureRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM captures WHERE id = ?`, id)
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
