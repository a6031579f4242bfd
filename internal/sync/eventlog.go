package syncx

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Event is one append-only audit row. Data is marshaled to JSON at append
// time; events are never updated.
type Event struct {
	Offset    int64  `json:"offset"`
	SiteID    string `json:"site_id"`
	Type      string `json:"typ"`
	Key       string `json:"key"` // natural key, e.g. userID|questionID
	Data      any    `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	if e.SiteID == "" {
		e.SiteID = "local"
	}
	data, err := json.Marshal(e.Data)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.SiteID, e.Type, e.Key, string(data), time.Now().Unix())
	return err
}

// Search returns the newest events whose type or key contains q. limit
// defaults to 100 and is capped at 500.
func (r *EventRepo) Search(ctx context.Context, q string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT typ, key, data, created_at FROM event_log
		 WHERE typ LIKE '%'||$1||'%' OR key LIKE '%'||$1||'%'
		 ORDER BY created_at DESC LIMIT $2`, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var e Event
		var data string
		if err := rows.Scan(&e.Type, &e.Key, &data, &e.CreatedAt); err != nil {
			return nil, err
		}
		var payload any
		if json.Unmarshal([]byte(data), &payload) == nil {
			e.Data = payload
		} else {
			e.Data = data
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
