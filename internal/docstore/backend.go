package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
)

// ErrUnknownBackend is returned by NewBackend for an unsupported kind.
var ErrUnknownBackend = errors.New("unknown store backend")

// Backend loads and stores whole collections.
//
// Load bootstraps a missing collection to empty. Data that cannot be parsed
// is logged and treated as an empty collection.
type Backend interface {
	Load(ctx context.Context, collection string) ([]Document, error)
	Store(ctx context.Context, collection string, docs []Document) error
}

// NewBackend creates a Backend by name.
//
// Supported backends:
//
//	"json"     - one JSON file per collection in dataDir (default)
//	"postgres" - a collections table in the database at databaseURL
//	"sqlite"   - a collections table in dataDir/sproutchef.db
//	"memory"   - in-memory (ephemeral, for testing)
func NewBackend(kind, dataDir, databaseURL string) (Backend, error) {
	switch kind {
	case "json", "":
		return NewFileBackend(dataDir)
	case "postgres":
		return NewSQLBackend("postgres", databaseURL)
	case "sqlite":
		return NewSQLBackend("sqlite3", filepath.Join(dataDir, "sproutchef.db"))
	case "memory":
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: json, postgres, sqlite, memory)", ErrUnknownBackend, kind)
	}
}

// decodeCollection parses a stored collection. Corrupt data yields an empty
// collection and ok false; the caller's next Store replaces it.
func decodeCollection(collection string, data []byte) (docs []Document, ok bool) {
	if err := json.Unmarshal(data, &docs); err != nil {
		log.Printf("docstore: collection %q is corrupt, treating it as empty: %v", collection, err)
		return []Document{}, false
	}
	if docs == nil {
		docs = []Document{}
	}
	return docs, true
}

func encodeCollection(docs []Document) ([]byte, error) {
	if docs == nil {
		docs = []Document{}
	}
	b, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal collection: %w", err)
	}
	return b, nil
}
