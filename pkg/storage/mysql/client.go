// Package mysql provides a MySQL implementation of the EntryStore interface.
//
// It works against MySQL 5.7+ and MySQL-compatible databases. Topics are
// stored as JSON arrays in a TEXT column.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/loamlabs/recall-go/pkg/storage"
)

// Client implements storage.EntryStore using MySQL as the backend.
type Client struct {
	// db is the MySQL database connection pool.
	db *sql.DB

	// tableName is the name of the table storing entries.
	tableName string
}

// Config contains configuration for creating a MySQL EntryStore.
type Config struct {
	// Host is the database server hostname.
	Host string

	// Port is the database server port.
	Port int

	// User is the database username.
	User string

	// Password is the database password.
	Password string

	// DBName is the database name.
	DBName string

	// TableName is the name of the table to use. Defaults to "memories".
	TableName string
}

// NewClient creates a new MySQL EntryStore client.
//
// Parameters:
//   - cfg: Configuration containing connection parameters and table name
//
// Returns:
//   - *Client: The MySQL client instance
//   - error: Error if database connection or table creation fails
func NewClient(cfg *Config) (*Client, error) {
	tableName := cfg.TableName
	if tableName == "" {
		tableName = "memories"
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewMySQLClient: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewMySQLClient: %w", err)
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
			id VARCHAR(64) PRIMARY KEY,
			owner_id VARCHAR(255) NOT NULL,
			text TEXT NOT NULL,
			topics TEXT,
			confidence DOUBLE DEFAULT 1.0,
			is_proxy BOOLEAN DEFAULT FALSE,
			proxy_agent VARCHAR(255),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_owner (owner_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
	`, c.tableName)

	_, err := c.db.ExecContext(ctx, query)
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
		ON DUPLICATE KEY UPDATE
			text = VALUES(text),
			topics = VALUES(topics),
			confidence = VALUES(confidence),
			is_proxy = VALUES(is_proxy),
			proxy_agent = VALUES(proxy_agent),
			updated_at = VALUES(updated_at)
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

// Close closes the database connection pool.
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
