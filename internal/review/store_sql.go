package review

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) AppendAttempt(ctx context.Context, a Attempt) error {
	sel, err := json.Marshal(a.Selected)
	if err != nil {
		return err
	}
	can, err := json.Marshal(a.Canonical)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO attempts
		(id,user_id,question_id,selected_json,canonical_json,correct,answered_at,origin,migrated)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		a.ID, a.UserID, a.QuestionID, string(sel), string(can), a.Correct, a.AnsweredAt, string(a.Origin), a.Migrated)
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateAttempt
	}
	return err
}

func (s *SQLStore) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	query := `SELECT id,user_id,question_id,selected_json,canonical_json,correct,answered_at,origin,migrated
		FROM attempts WHERE 1=1`
	args := []any{}
	if opts.UserID != "" {
		args = append(args, opts.UserID)
		query += ` AND user_id=$` + strconv.Itoa(len(args))
	}
	if opts.QuestionID != "" {
		args = append(args, opts.QuestionID)
		query += ` AND question_id=$` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY answered_at DESC, id DESC`
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, opts.Offset)
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Attempt{}
	for rows.Next() {
		var a Attempt
		var sel, can, origin string
		if err := rows.Scan(&a.ID, &a.UserID, &a.QuestionID, &sel, &can, &a.Correct, &a.AnsweredAt, &origin, &a.Migrated); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(sel), &a.Selected); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(can), &a.Canonical); err != nil {
			return nil, err
		}
		a.Origin = Origin(origin)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) CountAttempts(ctx context.Context, userID string) (AttemptCounts, error) {
	row := s.db.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN correct THEN 1 ELSE 0 END),0)
		FROM attempts WHERE user_id=$1`, userID)
	var c AttemptCounts
	if err := row.Scan(&c.Total, &c.Correct); err != nil {
		return AttemptCounts{}, err
	}
	c.Wrong = c.Total - c.Correct
	return c, nil
}

func (s *SQLStore) GetStanding(ctx context.Context, userID, questionID string) (Standing, error) {
	row := s.db.QueryRowContext(ctx, `SELECT statement,alternatives_json,selected_json,canonical_json,error_count,last_error_at,version
		FROM standings WHERE user_id=$1 AND question_id=$2`, userID, questionID)
	st := Standing{UserID: userID, QuestionID: questionID}
	var alts, sel, can string
	if err := row.Scan(&st.Statement, &alts, &sel, &can, &st.ErrorCount, &st.LastErrorAt, &st.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Standing{}, ErrNoStanding
		}
		return Standing{}, err
	}
	if err := json.Unmarshal([]byte(alts), &st.Alternatives); err != nil {
		return Standing{}, err
	}
	if err := json.Unmarshal([]byte(sel), &st.Selected); err != nil {
		return Standing{}, err
	}
	if err := json.Unmarshal([]byte(can), &st.Canonical); err != nil {
		return Standing{}, err
	}
	return st, nil
}

// PutStanding inserts (Version 0) or updates guarded by the version read.
// A lost race surfaces as ErrStaleStanding rather than overwriting the
// concurrent writer.
func (s *SQLStore) PutStanding(ctx context.Context, st Standing) error {
	alts, err := json.Marshal(st.Alternatives)
	if err != nil {
		return err
	}
	sel, err := json.Marshal(st.Selected)
	if err != nil {
		return err
	}
	can, err := json.Marshal(st.Canonical)
	if err != nil {
		return err
	}

	if st.Version == 0 {
		_, err = s.db.ExecContext(ctx, `INSERT INTO standings
			(user_id,question_id,statement,alternatives_json,selected_json,canonical_json,error_count,last_error_at,version)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,1)`,
			st.UserID, st.QuestionID, st.Statement, string(alts), string(sel), string(can), st.ErrorCount, st.LastErrorAt)
		if err != nil && isUniqueViolation(err) {
			return ErrStaleStanding
		}
		return err
	}

	res, err := s.db.ExecContext(ctx, `UPDATE standings SET
		statement=$1, alternatives_json=$2, selected_json=$3, canonical_json=$4,
		error_count=$5, last_error_at=$6, version=version+1
		WHERE user_id=$7 AND question_id=$8 AND version=$9`,
		st.Statement, string(alts), string(sel), string(can),
		st.ErrorCount, st.LastErrorAt, st.UserID, st.QuestionID, st.Version)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrStaleStanding
	}
	return nil
}

func (s *SQLStore) DeleteStanding(ctx context.Context, userID, questionID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM standings WHERE user_id=$1 AND question_id=$2`,
		userID, questionID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNoStanding
	}
	return nil
}

func (s *SQLStore) ListStandings(ctx context.Context, userID string) ([]Standing, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT question_id,statement,alternatives_json,selected_json,canonical_json,error_count,last_error_at,version
		FROM standings WHERE user_id=$1 ORDER BY question_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Standing{}
	for rows.Next() {
		st := Standing{UserID: userID}
		var alts, sel, can string
		if err := rows.Scan(&st.QuestionID, &st.Statement, &alts, &sel, &can, &st.ErrorCount, &st.LastErrorAt, &st.Version); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(alts), &st.Alternatives); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(sel), &st.Selected); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(can), &st.Canonical); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || // sqlite
		strings.Contains(msg, "duplicate key") // postgres
}

