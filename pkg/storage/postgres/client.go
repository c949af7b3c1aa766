// Package postgres provides a PostgreSQL implementation of the EntryStore interface.
//
// PostgreSQL is suitable for multi-user deployments that need durability and
// concurrent access. Topics are stored as JSON arrays in a TEXT column.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/loamlabs/recall-go/pkg/storage"
)

// Client implements storage.EntryStore using PostgreSQL as the backend.
type Client struct {
	// db is the PostgreSQL database connection pool.
	db *sql.DB

	// tableName is the name of the table storing entries.
	tableName string
}

// Config contains configuration for creating a PostgreSQL EntryStore.
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

	// SSLMode is the SSL mode for the connection (disable, require, etc.).
	// Defaults to "disable".
	SSLMode string
}

// NewClient creates a new PostgreSQL EntryStore client.
//
// Parameters:
//   - cfg: Configuration containing connection parameters and table name
//
// Returns:
//   - *Client: The PostgreSQL client instance
//   - error: Error if database connection or table creation fails
func NewClient(cfg *Config) (*Client, error) {
	tableName := cfg.TableName
	if tableName == "" {
		tableName = "memories"
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
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
			confidence DOUBLE PRECISION DEFAULT 1.0,
			is_proxy BOOLEAN DEFAULT FALSE,
			proxy_agent TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
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
		WHERE owner_id = $1
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			text = EXCLUDED.text,
			topics = EXCLUDED.topics,
			confidence = EXCLUDED.confidence,
			is_proxy = EXCLUDED.is_proxy,
			proxy_agent = EXCLUDED.proxy_agent,
			updated_at = EXCLUDED.updated_at
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
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, c.tableName)

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
