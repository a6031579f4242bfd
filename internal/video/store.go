package video

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrNotFound = errors.New("video not found")

// Video is a catalog entry pointing at externally hosted lesson footage.
// Playback is the frontend's concern; the backend only stores the link.
type Video struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Category    string    `json:"category,omitempty"`
	DurationSec int       `json:"duration_sec,omitempty"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Put(ctx context.Context, v Video) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO videos (id, title, url, category, duration_sec, position, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT(id) DO UPDATE SET
  title=EXCLUDED.title, url=EXCLUDED.url, category=EXCLUDED.category,
  duration_sec=EXCLUDED.duration_sec, position=EXCLUDED.position`,
		v.ID, v.Title, v.URL, v.Category, v.DurationSec, v.Position, v.CreatedAt.Unix())
	return err
}

// List returns the catalog ordered by position, optionally one category.
func (s *Store) List(ctx context.Context, category string) ([]Video, error) {
	q := `SELECT id, title, url, category, duration_sec, position, created_at FROM videos`
	args := []any{}
	if category != "" {
		q += ` WHERE category=$1`
		args = append(args, category)
	}
	q += ` ORDER BY position, created_at`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Video
	for rows.Next() {
		var v Video
		var created int64
		if err := rows.Scan(&v.ID, &v.Title, &v.URL, &v.Category, &v.DurationSec, &v.Position, &created); err != nil {
			return nil, err
		}
		v.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM videos WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
