// Package store persists which items have been announced, plus page
// hashes for hash-of-page sources. SQLite keeps restarts cheap: the
// database file is the only state the bot owns.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/GoJackzi/zama-news-bot/internal/news"
	"github.com/GoJackzi/zama-news-bot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type Config struct {
	Path        string
	BusyTimeout time.Duration
}

type Store struct {
	db  *sql.DB
	log logx.Logger
}

func Open(cfg Config, log logx.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Store{db: db, log: log}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Has reports whether the item identity was committed before.
func (s *Store) Has(ctx context.Context, key news.Key) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM seen WHERE category = ? AND id = ?`,
		string(key.Category), key.ID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Commit records an identity as announced. Committing the same identity
// again is a no-op and keeps the original first_seen, so retention sees
// when the item first appeared, not when it was last re-offered.
func (s *Store) Commit(ctx context.Context, key news.Key, firstSeen time.Time) error {
	if firstSeen.IsZero() {
		firstSeen = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO seen(category, id, first_seen) VALUES(?,?,?)
		 ON CONFLICT(category, id) DO NOTHING`,
		string(key.Category), key.ID, firstSeen.UnixMilli(),
	)
	return err
}

// Count returns the number of committed identities in a category.
func (s *Store) Count(ctx context.Context, cat news.Category) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM seen WHERE category = ?`, string(cat),
	).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Keys loads every committed identity in a category, newest first.
func (s *Store) Keys(ctx context.Context, cat news.Category) ([]news.Key, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM seen WHERE category = ? ORDER BY first_seen DESC, id DESC`,
		string(cat),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []news.Key
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		keys = append(keys, news.Key{Category: cat, ID: id})
	}
	return keys, rows.Err()
}

// Prune deletes identities older than the horizon while always keeping
// the newest keepLast rows of the category. The floor protects quiet
// sources: an item a source still serves must never age out of the store,
// or it would be re-announced.
func (s *Store) Prune(ctx context.Context, cat news.Category, before time.Time, keepLast int) (int64, error) {
	if keepLast < 0 {
		keepLast = 0
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM seen
		  WHERE category = ? AND first_seen < ?
		    AND id NOT IN (
		      SELECT id FROM seen WHERE category = ?
		       ORDER BY first_seen DESC, id DESC LIMIT ?)`,
		string(cat), before.UnixMilli(), string(cat), keepLast,
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

// PageHash returns the last recorded hash for a page, or "" when the page
// was never recorded.
func (s *Store) PageHash(ctx context.Context, page string) (string, error) {
	var h string
	err := s.db.QueryRowContext(ctx,
		`SELECT hash FROM page_state WHERE page = ?`, page,
	).Scan(&h)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return h, nil
}

// SetPageHash records the current hash for a page.
func (s *Store) SetPageHash(ctx context.Context, page, hash string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO page_state(page, hash, updated_at) VALUES(?,?,?)
		 ON CONFLICT(page) DO UPDATE SET hash=excluded.hash, updated_at=excluded.updated_at`,
		page, hash, time.Now().UnixMilli(),
	)
	return err
}
