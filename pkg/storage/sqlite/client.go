// Package sqlite provides a SQLite implementation of the EntryStore interface.
//
// SQLite is a lightweight, file-based database suitable for local development
// and single-user assistant deployments. Topics are stored as JSON arrays in a
// TEXT column.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/loamlabs/recall-go/pkg/storage"
)

// Client implements storage.EntryStore using SQLite as the backend.
type Client struct {
	// db is the SQLite database connection.
	db *sql.DB

	// tableName is the name of the table storing entries.
	tableName string
}

// Config contains configuration for creating a SQLite EntryStore.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// TableName is the name of the table to use. Defaults to "memories".
	TableName string
}

// NewClient creates a new SQLite EntryStore client.
//
// Parameters:
//   - cfg: Configuration containing database path and table name
//
// Returns:
//   - *Client: The SQLite client instance
//   - error: Error if database connection or table creation fails
func NewClient(cfg *Config) (*Client, error) {
	tableName := cfg.TableName
	if tableName == "" {
		tableName = "memories"
	}

	// Create parent directory if it doesn't exist
	dbDir := filepath.Dir(cfg.DBPath)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("NewSQLiteClient: failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_foreign_keys=1&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	client := &Client{
		db:        db,
		tableName: tableName,
	}

	if err := client.initTables(context.Background()); err != nil {
		return nil, err
	}

	return client, nil
}

// initTables initializes the database table structure.
func (c *Client) initTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			text TEXT NOT NULL,
			topics TEXT,
			confidence REAL DEFAULT 1.0,
			is_proxy INTEGER DEFAULT 0,
			proxy_agent TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`, c.tableName)

	_, err := c.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	indexQuery := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS idx_%s_owner ON %s(owner_id)
	`, c.tableName, c.tableName)
	_, err = c.db.ExecContext(ctx, indexQuery)
	if err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	return nil
}

// ReadAll returns every entry belonging to ownerID, ordered by creation time.
func (c *Client) ReadAll(ctx context.Context, ownerID string) ([]*storage.Entry, error) {
	query := fmt.Sprintf(`
		SELECT id, owner_id, text, topics, confidence, is_proxy, proxy_agent,
		       created_at, updated_at
		FROM %s
		WHERE owner_id = ?
		ORDER BY created_at, id
	`, c.tableName)

	rows, err := c.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ReadAll: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*storage.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("ReadAll: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ReadAll: %w", err)
	}

	return entries, nil
}

// Write persists an entry, replacing any existing entry with the same ID.
func (c *Client) Write(ctx context.Context, entry *storage.Entry) (string, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s
		(id, owner_id, text, topics, confidence, is_proxy, proxy_agent, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			topics = excluded.topics,
			confidence = excluded.confidence,
			is_proxy = excluded.is_proxy,
			proxy_agent = excluded.proxy_agent,
			updated_at = excluded.updated_at
	`, c.tableName)

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	updatedAt := entry.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err := c.db.ExecContext(ctx, query,
		entry.ID,
		entry.OwnerID,
		entry.Text,
		storage.EncodeTopics(entry.Topics),
		entry.Confidence,
		entry.IsProxy,
		entry.ProxyAgent,
		createdAt,
		updatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("Write: %w", err)
	}

	return entry.ID, nil
}

// Delete removes an entry by ID. Returns true if an entry was removed.
func (c *Client) Delete(ctx context.Context, id string) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, c.tableName)

	result, err := c.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("Delete: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("Delete: %w", err)
	}

	return affected > 0, nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	return c.db.Close()
}

// scanEntry scans a result row into an Entry, tolerating NULLs left behind by
// older schema versions.
func scanEntry(rows *sql.Rows) (*storage.Entry, error) {
	var (
		entry      storage.Entry
		topicsRaw  sql.NullString
		confidence sql.NullFloat64
		isProxy    sql.NullBool
		proxyAgent sql.NullString
	)

	err := rows.Scan(
		&entry.ID,
		&entry.OwnerID,
		&entry.Text,
		&topicsRaw,
		&confidence,
		&isProxy,
		&proxyAgent,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Topics = storage.DecodeTopics(topicsRaw.String)
	if confidence.Valid {
		entry.Confidence = confidence.Float64
	} else {
		// Column absent in rows written by an older schema.
		entry.Confidence = 1.0
	}
	entry.IsProxy = isProxy.Valid && isProxy.Bool
	entry.ProxyAgent = proxyAgent.String
	entry.ApplyDefaults()

	return &entry, nil
}
