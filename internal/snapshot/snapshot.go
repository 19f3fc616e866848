// Package snapshot persists the last rendered feed to a local sqlite
// database so the next session can paint something immediately while the
// orchestrator decides whether to refetch.
package snapshot

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/NicolasAcosta04/SCR/internal/feedcache"
)

// Store holds one feed snapshot: the ordered article list plus the query
// fingerprint and save time it was captured under.
type Store struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating snapshot dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	s := &Store{readDB: readDB, writeDB: writeDB}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS articles (
			id          TEXT PRIMARY KEY,
			position    INTEGER NOT NULL,
			title       TEXT NOT NULL,
			content     TEXT NOT NULL DEFAULT '',
			source      TEXT NOT NULL,
			url         TEXT NOT NULL,
			published   DATETIME NOT NULL,
			image_url   TEXT NOT NULL DEFAULT '',
			category    TEXT NOT NULL,
			subcategory TEXT NOT NULL DEFAULT '',
			confidence  REAL NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_articles_position ON articles(position);

		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil {
		errs = append(errs, s.writeDB.Close())
	}
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// Save replaces the stored snapshot with the given article sequence and
// fingerprint. The whole swap is transactional: a failed save leaves the
// previous snapshot intact.
func (s *Store) Save(articles []feedcache.Article, fingerprint string) error {
	tx, err := s.writeDB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM articles"); err != nil {
		return fmt.Errorf("clearing snapshot: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO articles (id, position, title, content, source, url, published, image_url, category, subcategory, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, a := range articles {
		_, err := stmt.Exec(a.ID, i, a.Title, a.Content, a.Source, a.URL, a.PublishedAt, a.ImageURL, a.Category, a.Subcategory, a.Confidence)
		if err != nil {
			return fmt.Errorf("inserting article %s: %w", a.ID, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(`
		INSERT INTO meta (key, value) VALUES ('fingerprint', ?), ('saved_at', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, fingerprint, now); err != nil {
		return fmt.Errorf("writing meta: %w", err)
	}

	return tx.Commit()
}

// Load returns the stored snapshot in its original order, along with the
// fingerprint and save time it was captured under. A missing snapshot
// yields an empty slice, not an error.
func (s *Store) Load() ([]feedcache.Article, string, time.Time, error) {
	rows, err := s.readDB.Query(`
		SELECT id, title, content, source, url, published, image_url, category, subcategory, confidence
		FROM articles ORDER BY position
	`)
	if err != nil {
		return nil, "", time.Time{}, fmt.Errorf("querying snapshot: %w", err)
	}
	defer rows.Close()

	var articles []feedcache.Article
	for rows.Next() {
		var a feedcache.Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.Source, &a.URL, &a.PublishedAt, &a.ImageURL, &a.Category, &a.Subcategory, &a.Confidence); err != nil {
			return nil, "", time.Time{}, fmt.Errorf("scanning article: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, "", time.Time{}, err
	}

	fingerprint := s.metaValue("fingerprint")
	var savedAt time.Time
	if v := s.metaValue("saved_at"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			savedAt = t
		}
	}
	return articles, fingerprint, savedAt, nil
}

func (s *Store) metaValue(key string) string {
	var value string
	if err := s.readDB.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value); err != nil {
		return ""
	}
	return value
}

// Prune clears the snapshot when it is older than the retention window.
// Returns whether anything was removed.
func (s *Store) Prune(retention time.Duration) (bool, error) {
	v := s.metaValue("saved_at")
	if v == "" {
		return false, nil
	}
	savedAt, err := time.Parse(time.RFC3339, v)
	if err != nil || time.Since(savedAt) <= retention {
		return false, nil
	}
	if _, err := s.writeDB.Exec("DELETE FROM articles"); err != nil {
		return false, fmt.Errorf("pruning snapshot: %w", err)
	}
	if _, err := s.writeDB.Exec("DELETE FROM meta"); err != nil {
		return false, fmt.Errorf("pruning meta: %w", err)
	}
	return true, nil
}

// Stats returns the article count and the database file size.
func (s *Store) Stats(dbPath string) (int, int64, error) {
	var count int
	if err := s.readDB.QueryRow("SELECT COUNT(*) FROM articles").Scan(&count); err != nil {
		return 0, 0, fmt.Errorf("counting articles: %w", err)
	}
	info, err := os.Stat(dbPath)
	if err != nil {
		return count, 0, nil
	}
	return count, info.Size(), nil
}
