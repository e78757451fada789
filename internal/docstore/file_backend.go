package docstore

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// FileBackend stores each collection as a JSON array in its own file.
//
// Layout:
//
//	data_dir/
//	  users.json
//	  user_impacts.json
//	  recipes.json
//	  grocery_items.json
type FileBackend struct {
	dir string
}

// NewFileBackend creates a FileBackend rooted at dir, creating it if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

// Path returns the file backing a collection.
func (b *FileBackend) Path(collection string) string {
	return filepath.Join(b.dir, collection+".json")
}

// Load reads a collection, writing an empty one first if the file is missing.
func (b *FileBackend) Load(ctx context.Context, collection string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := b.Path(collection)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if err := b.write(path, []byte("[]")); err != nil {
			return nil, fmt.Errorf("failed to initialize collection %q: %w", collection, err)
		}
		return []Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read collection %q: %w", collection, err)
	}
	docs, ok := decodeCollection(collection, data)
	if !ok {
		// Keep the unreadable bytes; the next Store overwrites the file.
		backup := path + ".corrupt"
		if err := b.write(backup, data); err != nil {
			log.Printf("docstore: failed to back up corrupt collection %q: %v", collection, err)
		} else {
			log.Printf("docstore: corrupt collection %q copied to %s", collection, backup)
		}
	}
	return docs, nil
}

// Store replaces the collection file with docs.
func (b *FileBackend) Store(ctx context.Context, collection string, docs []Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeCollection(docs)
	if err != nil {
		return err
	}
	if err := b.write(b.Path(collection), data); err != nil {
		return fmt.Errorf("failed to store collection %q: %w", collection, err)
	}
	return nil
}

// write replaces path through a temp file and rename, so readers see either
// the old or the new content.
func (b *FileBackend) write(path string, data []byte) error {
	tmp, err := os.CreateTemp(b.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
