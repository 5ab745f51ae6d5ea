package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// PostgresBackend stores collections in the tables created by migrations/.
// Saves replace a whole collection inside one transaction, mirroring the
// overwrite semantics of the JSON documents.
type PostgresBackend struct {
	db *sqlx.DB
}

// NewPostgresBackend wraps an open connection pool.
func NewPostgresBackend(db *sqlx.DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

func (b *PostgresBackend) LoadWhitelist(ctx context.Context) (Whitelist, error) {
	var wl Whitelist
	if err := b.db.SelectContext(ctx, &wl.Users, `SELECT handle FROM whitelist_users ORDER BY position`); err != nil {
		return Whitelist{}, fmt.Errorf("select whitelist users: %w", err)
	}
	if err := b.db.SelectContext(ctx, &wl.Admins, `SELECT user_id FROM whitelist_admins ORDER BY user_id`); err != nil {
		return Whitelist{}, fmt.Errorf("select whitelist admins: %w", err)
	}
	return wl, nil
}

func (b *PostgresBackend) SaveWhitelist(ctx context.Context, wl Whitelist) error {
	return b.replace(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM whitelist_users`); err != nil {
			return err
		}
		for _, h := range wl.Users {
			if _, err := tx.ExecContext(ctx, `INSERT INTO whitelist_users (handle) VALUES ($1)`, h); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM whitelist_admins`); err != nil {
			return err
		}
		for _, id := range wl.Admins {
			if _, err := tx.ExecContext(ctx, `INSERT INTO whitelist_admins (user_id) VALUES ($1) ON CONFLICT DO NOTHING`, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *PostgresBackend) LoadEvents(ctx context.Context) ([]Event, error) {
	var events []Event
	err := b.db.SelectContext(ctx, &events,
		`SELECT id, title, description, event_date, creator, created_at FROM events ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	return events, nil
}

func (b *PostgresBackend) SaveEvents(ctx context.Context, events []Event) error {
	return b.replace(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM events`); err != nil {
			return err
		}
		for _, ev := range events {
			_, err := tx.NamedExecContext(ctx,
				`INSERT INTO events (id, title, description, event_date, creator, created_at)
				 VALUES (:id, :title, :description, :event_date, :creator, :created_at)`, ev)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *PostgresBackend) LoadMedia(ctx context.Context) ([]MediaEntry, error) {
	var media []MediaEntry
	err := b.db.SelectContext(ctx, &media,
		`SELECT name, description, added_by, added_at FROM media ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("select media: %w", err)
	}
	return media, nil
}

func (b *PostgresBackend) SaveMedia(ctx context.Context, media []MediaEntry) error {
	return b.replace(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM media`); err != nil {
			return err
		}
		for _, m := range media {
			_, err := tx.NamedExecContext(ctx,
				`INSERT INTO media (name, description, added_by, added_at)
				 VALUES (:name, :description, :added_by, :added_at)`, m)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *PostgresBackend) replace(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
