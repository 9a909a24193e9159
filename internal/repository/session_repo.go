package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"userconsole/internal/logger"
	"userconsole/internal/repository/db"
	"userconsole/internal/session"
)

// SessionSQLite stores one row per browser session.
type SessionSQLite struct {
	db *sql.DB
}

var _ session.Store = (*SessionSQLite)(nil)

func NewSessionSQLite(db *sql.DB) *SessionSQLite {
	return &SessionSQLite{db: db}
}

const (
	upsertSessionSQL = `
		INSERT INTO sessions (id, token, user_data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token=excluded.token,
			user_data=excluded.user_data,
			updated_at=excluded.updated_at
	`

	selectSessionSQL = `SELECT token, user_data FROM sessions WHERE id = ?`

	deleteSessionSQL = `DELETE FROM sessions WHERE id = ?`

	pruneSessionsSQL = `DELETE FROM sessions WHERE updated_at < ?`
)

// Init creates the sessions table when missing.
func (r *SessionSQLite) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, db.SchemaSessions); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}
	return nil
}

// Read returns the record for sid, or a zero Record when there is none.
func (r *SessionSQLite) Read(ctx context.Context, sid string) (session.Record, error) {
	var rec session.Record
	err := r.db.QueryRowContext(ctx, selectSessionSQL, sid).Scan(&rec.Token, &rec.UserData)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session.Record{}, nil
		}
		return session.Record{}, fmt.Errorf("select session: %w", err)
	}
	return rec, nil
}

// Write replaces token and user in a single statement.
func (r *SessionSQLite) Write(ctx context.Context, sid string, rec session.Record) error {
	_, err := r.db.ExecContext(ctx, upsertSessionSQL, sid, rec.Token, rec.UserData, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// Clear removes the row for sid; clearing an absent session is not an error.
func (r *SessionSQLite) Clear(ctx context.Context, sid string) error {
	if _, err := r.db.ExecContext(ctx, deleteSessionSQL, sid); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Prune deletes sessions last written before cutoff and reports how many.
func (r *SessionSQLite) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, pruneSessionsSQL, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return n, nil
}

// Run prunes sessions older than maxAge every tick until ctx is canceled.
// maxAge matches the session cookie lifetime, so a pruned row belongs to a
// cookie the browser has already dropped.
func (r *SessionSQLite) Run(ctx context.Context, tick, maxAge time.Duration, log *logger.Logger) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := r.Prune(ctx, time.Now().Add(-maxAge))
			if log == nil {
				continue
			}
			if err != nil {
				log.Errorw("sessions_prune_failed", "err", err)
			} else if n > 0 {
				log.Infow("sessions_pruned", "count", n)
			}
		}
	}
}
