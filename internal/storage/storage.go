// Package storage caches the recent-caption list in a local sqlite
// database so a failed refresh on a fresh start can still show the last
// known state.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jmallet/capgen/internal/api"
	"github.com/jmallet/capgen/internal/workflow"
)

// Cache is the on-disk history cache.
type Cache struct {
	db   *sql.DB
	path string
}

// Verify Cache implements the workflow cache contract
var _ workflow.HistoryCache = (*Cache)(nil)

// New opens (and if needed creates) the cache database under dataDir.
func New(dataDir string) (*Cache, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "cache.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	c := &Cache{db: db, path: dbPath}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return c, nil
}

func (c *Cache) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS recent_captions (
		user_id      INTEGER NOT NULL,
		position     INTEGER NOT NULL,
		caption_id   INTEGER NOT NULL,
		image_url    TEXT NOT NULL,
		caption_text TEXT NOT NULL,
		created_at   DATETIME,
		PRIMARY KEY (user_id, position)
	);
	`
	_, err := c.db.Exec(schema)
	return err
}

// SaveRecent replaces the cached list for a user.
func (c *Cache) SaveRecent(userID int, items []api.HistoryItem) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM recent_captions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear cached list: %w", err)
	}

	for i, item := range items {
		_, err := tx.Exec(
			`INSERT INTO recent_captions (user_id, position, caption_id, image_url, caption_text, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			userID, i, item.ID, item.ImageURL, item.CaptionText, item.CreatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("insert cached item: %w", err)
		}
	}

	return tx.Commit()
}

// LoadRecent returns the cached list for a user in display order.
// An empty result is not an error.
func (c *Cache) LoadRecent(userID int) ([]api.HistoryItem, error) {
	rows, err := c.db.Query(
		`SELECT caption_id, image_url, caption_text, created_at
		 FROM recent_captions WHERE user_id = ? ORDER BY position`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query cached list: %w", err)
	}
	defer rows.Close()

	var items []api.HistoryItem
	for rows.Next() {
		var item api.HistoryItem
		var createdAt string
		if err := rows.Scan(&item.ID, &item.ImageURL, &item.CaptionText, &createdAt); err != nil {
			return nil, fmt.Errorf("scan cached item: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			item.CreatedAt = ts
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Path returns the database file path.
func (c *Cache) Path() string {
	return c.path
}

// Close releases the database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}
