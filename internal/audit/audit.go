// Package audit persists a trail of admin-surface mutations: who changed
// limiter state, what they changed, and when. The hot path never touches it.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // postgres driver
)

// Actions recorded by the admin surface.
const (
	ActionWhitelistAdd    = "whitelist_add"
	ActionWhitelistRemove = "whitelist_remove"
	ActionClear           = "clear"
)

// Entry is one admin mutation.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Target    string    `json:"target"`
	CreatedAt time.Time `json:"created_at"`
}

// Recorder is what the admin surface depends on; satisfied by Repository and
// by test fakes.
type Recorder interface {
	Record(ctx context.Context, actor, action, target string) error
}

// Repository stores audit entries in Postgres.
type Repository struct {
	db *sql.DB
}

// New connects to Postgres and ensures the audit table exists.
func New(databaseURL string) (*Repository, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &Repository{db: db}
	if err := r.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repository) ensureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS admin_audit_log (
			id UUID PRIMARY KEY,
			actor TEXT NOT NULL,
			action TEXT NOT NULL,
			target TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return nil
}

// Record writes one audit entry.
func (r *Repository) Record(ctx context.Context, actor, action, target string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admin_audit_log (id, actor, action, target, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New(), actor, action, target, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// Recent returns the latest limit entries, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, actor, action, target, created_at
		FROM admin_audit_log
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.Target, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}
