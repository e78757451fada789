// Package grocery stores the shopping list of each user.
package grocery

import (
	"context"
	"fmt"
	"time"

	"sproutchef/internal/docstore"
)

// DefaultCategory is given to items created without a category.
const DefaultCategory = "Uncategorized"

// Schema is the grocery items collection.
var Schema = docstore.Schema{
	Name:         "grocery_items",
	OwnerField:   "userId",
	CreatedField: "createdAt",
	UpdatedField: "updatedAt",
	Defaults:     docstore.Document{"category": DefaultCategory, "isChecked": false},
}

// Item is one entry of a grocery list.
type Item struct {
	ID        string       `json:"_id,omitempty"`
	AliasID   string       `json:"id,omitempty"`
	UserID    docstore.Ref `json:"userId"`
	Name      string       `json:"name"`
	Category  string       `json:"category"`
	IsChecked bool         `json:"isChecked"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// NewItem is what a caller supplies to add an item.
type NewItem struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category,omitempty"`
}

// Patch holds the fields of a partial item update. Nil fields are left
// unchanged.
type Patch struct {
	Name      *string `json:"name,omitempty"`
	Category  *string `json:"category,omitempty"`
	IsChecked *bool   `json:"isChecked,omitempty"`
}

// Filter selects a user's items.
type Filter struct {
	UserID   string
	Checked  *bool
	Category string
}

// Store reads and writes grocery items.
type Store struct {
	c *docstore.Collection
}

// NewStore creates a Store over the grocery items collection of db.
func NewStore(db *docstore.DB) *Store {
	return &Store{c: db.Collection(Schema)}
}

// Create adds an item to a user's list.
func (s *Store) Create(ctx context.Context, userID string, n NewItem) (*Item, error) {
	fields := docstore.Document{"userId": userID, "name": n.Name}
	if n.Category != "" {
		fields["category"] = n.Category
	}
	doc, err := s.c.Create(ctx, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to create grocery item: %w", err)
	}
	return docstore.Decode[Item](doc)
}

// FindByID returns the item with the given id, or nil.
func (s *Store) FindByID(ctx context.Context, id string) (*Item, error) {
	doc, err := s.c.FindByID(ctx, id)
	if err != nil || doc == nil {
		return nil, err
	}
	return docstore.Decode[Item](doc)
}

// Find returns the items matching f in the order they were added.
func (s *Store) Find(ctx context.Context, f Filter) ([]*Item, error) {
	query := docstore.Filter{}
	if f.UserID != "" {
		query["userId"] = f.UserID
	}
	if f.Checked != nil {
		query["isChecked"] = *f.Checked
	}
	if f.Category != "" {
		query["category"] = f.Category
	}
	docs, err := s.c.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[Item](docs)
}

// Update applies p to the item with the given id. It returns nil if there is
// no such item.
func (s *Store) Update(ctx context.Context, id string, p Patch) (*Item, error) {
	fields, err := docstore.Encode(p)
	if err != nil {
		return nil, err
	}
	doc, err := s.c.FindByIDAndUpdate(ctx, id, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to update grocery item %s: %w", id, err)
	}
	if doc == nil {
		return nil, nil
	}
	return docstore.Decode[Item](doc)
}

// Delete removes the item with the given id and reports whether it existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	return s.c.Delete(ctx, id)
}
