package docstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// SQLBackend keeps every collection as one row of a collections table.
type SQLBackend struct {
	db *sqlx.DB
}

// NewSQLBackend connects to the database and creates the collections table
// if it does not exist. driverName is "postgres" or "sqlite3".
func NewSQLBackend(driverName, dataSourceName string) (*SQLBackend, error) {
	db, err := sqlx.Connect(driverName, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	documentsType := "TEXT"
	if driverName == "postgres" {
		documentsType = "JSONB"
	}
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS collections (
		name TEXT PRIMARY KEY,
		documents %s NOT NULL
	);
	`, documentsType)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create collections table: %w", err)
	}

	return &SQLBackend{db: db}, nil
}

// Close closes the underlying database.
func (b *SQLBackend) Close() error {
	return b.db.Close()
}

// Load reads a collection, inserting an empty one first if it is missing.
func (b *SQLBackend) Load(ctx context.Context, collection string) ([]Document, error) {
	var raw string
	err := b.db.QueryRowxContext(ctx, b.db.Rebind("SELECT documents FROM collections WHERE name = ?"), collection).Scan(&raw)
	if err == sql.ErrNoRows {
		if err := b.Store(ctx, collection, []Document{}); err != nil {
			return nil, fmt.Errorf("failed to initialize collection %q: %w", collection, err)
		}
		return []Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load collection %q: %w", collection, err)
	}
	docs, _ := decodeCollection(collection, []byte(raw))
	return docs, nil
}

// Store upserts the collection row.
func (b *SQLBackend) Store(ctx context.Context, collection string, docs []Document) error {
	data, err := encodeCollection(docs)
	if err != nil {
		return err
	}
	_, err = b.db.ExecContext(ctx,
		b.db.Rebind("INSERT INTO collections (name, documents) VALUES (?, ?) ON CONFLICT (name) DO UPDATE SET documents = excluded.documents"),
		collection,
		string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to store collection %q: %w", collection, err)
	}
	return nil
}
