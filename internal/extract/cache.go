package extract

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/lommaks/researchdigest/internal/logging"
)

// TextSource is anything that can produce article text for a URL.
type TextSource interface {
	Text(ctx context.Context, pageURL string) string
}

// Verify both implementations satisfy TextSource at compile time.
var (
	_ TextSource = (*Extractor)(nil)
	_ TextSource = (*Cache)(nil)
)

// Cache wraps a TextSource with a SQLite-backed URL→text cache so repeated
// runs do not re-fetch articles that were already extracted.
//
// Cache failures degrade to the underlying source; a broken cache never
// costs the run anything but extra HTTP calls.
type Cache struct {
	db     *sql.DB
	source TextSource
	ttl    time.Duration
}

// OpenCache opens (or creates) the cache database at dbPath.
func OpenCache(dbPath string, source TextSource, ttl time.Duration) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// WAL mode keeps readers cheap even though the digest is single-writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS articles (
		url        TEXT PRIMARY KEY,
		text       TEXT NOT NULL,
		fetched_at INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	return &Cache{db: db, source: source, ttl: ttl}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Text returns cached text for pageURL when present and fresh, otherwise
// extracts via the underlying source and stores the result. Empty
// extractions are cached too, so a dead link is not re-fetched every run.
func (c *Cache) Text(ctx context.Context, pageURL string) string {
	if pageURL == "" {
		return ""
	}

	var text string
	var fetchedAt int64
	err := c.db.QueryRowContext(ctx,
		"SELECT text, fetched_at FROM articles WHERE url = ?", pageURL,
	).Scan(&text, &fetchedAt)
	if err == nil && time.Since(time.Unix(fetchedAt, 0)) < c.ttl {
		logging.Debug("article cache hit", "url", pageURL)
		return text
	}
	if err != nil && err != sql.ErrNoRows {
		logging.Warn("article cache read failed", "url", pageURL, "error", err)
	}

	text = c.source.Text(ctx, pageURL)

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO articles (url, text, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET text = excluded.text, fetched_at = excluded.fetched_at`,
		pageURL, text, time.Now().Unix())
	if err != nil {
		logging.Warn("article cache write failed", "url", pageURL, "error", err)
	}
	return text
}
