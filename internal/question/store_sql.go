package question

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// SQLStore keeps each question as a JSON document plus a couple of
// filterable columns, mirroring the hosted document store the frontend was
// originally built against.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Put(ctx context.Context, q Question) error {
	if q.CreatedAt == 0 {
		q.CreatedAt = time.Now().Unix()
	}
	doc, err := json.Marshal(q)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO questions (id,doc_json,category,created_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET doc_json=EXCLUDED.doc_json, category=EXCLUDED.category`,
		q.ID, string(doc), q.Category, q.CreatedAt)
	return err
}

func (s *SQLStore) Get(ctx context.Context, id string) (Question, error) {
	row := s.db.QueryRowContext(ctx, `SELECT doc_json FROM questions WHERE id=$1`, id)
	var doc string
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Question{}, ErrNotFound
		}
		return Question{}, err
	}
	var q Question
	if err := json.Unmarshal([]byte(doc), &q); err != nil {
		return Question{}, err
	}
	q.ID = id
	return q, nil
}

func (s *SQLStore) List(ctx context.Context, opts ListOpts) ([]Question, error) {
	query := `SELECT id, doc_json FROM questions`
	args := []any{}
	if opts.Category != "" {
		query += ` WHERE category=$1`
		args = append(args, opts.Category)
	}
	query += ` ORDER BY created_at, id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Question{}
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, err
		}
		var q Question
		if err := json.Unmarshal([]byte(doc), &q); err != nil {
			return nil, err
		}
		q.ID = id
		if opts.Tag != "" && !hasTag(q, opts.Tag) {
			continue
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return window(out, opts.Limit, opts.Offset), nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
