package docstore

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Schema describes one logical collection.
type Schema struct {
	// Name addresses the collection in the Backend.
	Name string
	// OwnerField references the owning document. It is compared as an
	// identifier by the matcher.
	OwnerField string
	// CreatedField is stamped on Create. UpdatedField is stamped on Create
	// and on every update. Empty disables the stamp.
	CreatedField string
	UpdatedField string
	// Defaults are applied on Create to fields the caller left out.
	Defaults Document
	// SaveKey locates the existing document in Save when the given document
	// carries no identifier, for collections with one document per owner.
	SaveKey string
}

// DB hands out collections over one Backend and owns their locks.
type DB struct {
	backend Backend
	now     func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

// Option configures a DB.
type Option func(*DB)

// WithClock overrides the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(db *DB) { db.now = now }
}

// Open creates a DB over backend.
func Open(backend Backend, opts ...Option) *DB {
	db := &DB{
		backend: backend,
		now:     time.Now,
		locks:   make(map[string]*sync.RWMutex),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Collection returns the collection described by s. Collections with the
// same name share a lock.
func (db *DB) Collection(s Schema) *Collection {
	db.mu.Lock()
	defer db.mu.Unlock()
	lock, ok := db.locks[s.Name]
	if !ok {
		lock = &sync.RWMutex{}
		db.locks[s.Name] = lock
	}
	return &Collection{
		schema:  s,
		backend: db.backend,
		matcher: NewMatcher(s.OwnerField),
		lock:    lock,
		now:     db.now,
	}
}

// Collection is the document API over one logical collection.
type Collection struct {
	schema  Schema
	backend Backend
	matcher *Matcher
	lock    *sync.RWMutex
	now     func() time.Time
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.schema.Name
}

// Find returns every document matching filter in insertion order.
func (c *Collection) Find(ctx context.Context, filter Filter) ([]Document, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	docs, err := c.backend.Load(ctx, c.schema.Name)
	if err != nil {
		return nil, err
	}
	if len(filter) == 0 {
		return docs, nil
	}
	filter = normalize(filter)
	out := make([]Document, 0, len(docs))
	for _, doc := range docs {
		if c.matcher.Matches(filter, doc) {
			out = append(out, doc)
		}
	}
	return out, nil
}

// FindOne returns the first document matching filter, or nil.
func (c *Collection) FindOne(ctx context.Context, filter Filter) (Document, error) {
	docs, err := c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

// FindByID returns the document whose IDField or AliasField equals id, or nil.
func (c *Collection) FindByID(ctx context.Context, id any) (Document, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	docs, err := c.backend.Load(ctx, c.schema.Name)
	if err != nil {
		return nil, err
	}
	if i := c.indexByID(docs, id); i >= 0 {
		return docs[i], nil
	}
	return nil, nil
}

// Create stores a new document built from fields and returns it exactly as
// persisted. Identifiers are always allocated here; any _id or id in fields
// is ignored.
func (c *Collection) Create(ctx context.Context, fields Document) (Document, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	docs, err := c.backend.Load(ctx, c.schema.Name)
	if err != nil {
		return nil, err
	}

	doc := c.withDefaults(fields)
	id := NewID()
	doc[IDField] = id
	doc[AliasField] = id
	stamp := c.timestamp()
	if c.schema.CreatedField != "" {
		doc[c.schema.CreatedField] = stamp
	}
	if c.schema.UpdatedField != "" {
		doc[c.schema.UpdatedField] = stamp
	}
	if doc, err = canonical(doc); err != nil {
		return nil, err
	}

	if err := c.backend.Store(ctx, c.schema.Name, append(docs, doc)); err != nil {
		return nil, err
	}
	return doc, nil
}

// FindByIDAndUpdate merges patch over the document with the given id and
// returns the result. It returns nil without writing if there is no such
// document. Identifier fields in patch are ignored.
func (c *Collection) FindByIDAndUpdate(ctx context.Context, id any, patch Document) (Document, error) {
	return c.Apply(ctx, id, func(Document) (Document, error) {
		return patch, nil
	})
}

// Apply computes a patch from the current document with the given id and
// merges it, all under the collection lock. It returns nil without writing
// if there is no such document. An empty patch returns the current document
// without writing.
func (c *Collection) Apply(ctx context.Context, id any, fn func(current Document) (Document, error)) (Document, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	docs, err := c.backend.Load(ctx, c.schema.Name)
	if err != nil {
		return nil, err
	}
	i := c.indexByID(docs, id)
	if i < 0 {
		return nil, nil
	}
	patch, err := fn(docs[i].clone())
	if err != nil {
		return nil, err
	}
	if len(patch) == 0 {
		return docs[i], nil
	}
	if docs[i], err = c.merge(docs[i], patch); err != nil {
		return nil, err
	}
	if err := c.backend.Store(ctx, c.schema.Name, docs); err != nil {
		return nil, err
	}
	return docs[i], nil
}

// Save merges doc onto the document sharing its identifier, or onto the
// document sharing its SaveKey value when doc has no identifier. Without a
// match doc is appended, with identifiers allocated if it has none.
func (c *Collection) Save(ctx context.Context, doc Document) (Document, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	docs, err := c.backend.Load(ctx, c.schema.Name)
	if err != nil {
		return nil, err
	}

	i := -1
	if id := doc.ID(); id != "" {
		i = c.indexByID(docs, id)
	} else if key := c.schema.SaveKey; key != "" && doc[key] != nil {
		filter := normalize(Filter{key: doc[key]})
		for j, existing := range docs {
			if c.matcher.Matches(filter, existing) {
				i = j
				break
			}
		}
	}

	var saved Document
	if i >= 0 {
		if saved, err = c.merge(docs[i], doc); err != nil {
			return nil, err
		}
		docs[i] = saved
	} else {
		saved = c.withDefaults(doc)
		id := doc.ID()
		if id == "" {
			id = NewID()
		}
		saved[IDField] = id
		saved[AliasField] = id
		if c.schema.CreatedField != "" && saved[c.schema.CreatedField] == nil {
			saved[c.schema.CreatedField] = c.timestamp()
		}
		if c.schema.UpdatedField != "" {
			saved[c.schema.UpdatedField] = c.timestamp()
		}
		if saved, err = canonical(saved); err != nil {
			return nil, err
		}
		docs = append(docs, saved)
	}

	if err := c.backend.Store(ctx, c.schema.Name, docs); err != nil {
		return nil, err
	}
	return saved, nil
}

// Delete removes the document with the given id. It reports whether the
// document existed.
func (c *Collection) Delete(ctx context.Context, id any) (bool, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	docs, err := c.backend.Load(ctx, c.schema.Name)
	if err != nil {
		return false, err
	}
	i := c.indexByID(docs, id)
	if i < 0 {
		return false, nil
	}
	docs = append(docs[:i], docs[i+1:]...)
	if err := c.backend.Store(ctx, c.schema.Name, docs); err != nil {
		return false, fmt.Errorf("failed to delete %s: %w", c.schema.Name, err)
	}
	return true, nil
}

func (c *Collection) indexByID(docs []Document, id any) int {
	if id == nil {
		return -1
	}
	n := normalize(Filter{IDField: id})[IDField]
	primary := Filter{IDField: n}
	alias := Filter{AliasField: n}
	for i, doc := range docs {
		if c.matcher.Matches(primary, doc) || c.matcher.Matches(alias, doc) {
			return i
		}
	}
	return -1
}

// withDefaults copies fields over the schema defaults.
func (c *Collection) withDefaults(fields Document) Document {
	doc := make(Document, len(fields)+len(c.schema.Defaults)+4)
	for k, v := range c.schema.Defaults {
		doc[k] = v
	}
	for k, v := range fields {
		doc[k] = v
	}
	return doc
}

// merge overlays patch on doc. Identifier fields are never replaced.
func (c *Collection) merge(doc, patch Document) (Document, error) {
	out := doc.clone()
	for k, v := range patch {
		if k == IDField || k == AliasField {
			continue
		}
		out[k] = v
	}
	if c.schema.UpdatedField != "" {
		out[c.schema.UpdatedField] = c.timestamp()
	}
	return canonical(out)
}

func (c *Collection) timestamp() string {
	return c.now().UTC().Format(time.RFC3339Nano)
}
