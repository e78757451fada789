package recipe

import (
	"context"
	"fmt"

	"sproutchef/internal/docstore"
)

// Schema is the recipes collection.
var Schema = docstore.Schema{
	Name:         "recipes",
	OwnerField:   "user_id",
	CreatedField: "created_at",
}

// Store reads and writes recipes.
type Store struct {
	c *docstore.Collection
}

// NewStore creates a Store over the recipes collection of db.
func NewStore(db *docstore.DB) *Store {
	return &Store{c: db.Collection(Schema)}
}

// Create saves a new recipe and returns it with its id and creation time.
func (s *Store) Create(ctx context.Context, r *Recipe) (*Recipe, error) {
	fields, err := docstore.Encode(r)
	if err != nil {
		return nil, err
	}
	doc, err := s.c.Create(ctx, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to save recipe: %w", err)
	}
	return docstore.Decode[Recipe](doc)
}

// FindByID retrieves a recipe by id. It returns nil if the recipe is not found.
func (s *Store) FindByID(ctx context.Context, id string) (*Recipe, error) {
	doc, err := s.c.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe %s: %w", id, err)
	}
	if doc == nil {
		return nil, nil // Recipe not found
	}
	return docstore.Decode[Recipe](doc)
}

// Find retrieves recipes matching f, oldest first.
func (s *Store) Find(ctx context.Context, f Filter) ([]*Recipe, error) {
	query := docstore.Filter{}
	if f.UserID != "" {
		query["user_id"] = f.UserID
	}
	if f.Type != "" {
		query["type"] = string(f.Type)
	}

	docs, err := s.c.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipes: %w", err)
	}
	recipes, err := docstore.DecodeAll[Recipe](docs)
	if err != nil {
		return nil, err
	}
	if f.Tag == "" {
		return recipes, nil
	}

	tagged := make([]*Recipe, 0, len(recipes))
	for _, r := range recipes {
		if r.HasTag(f.Tag) {
			tagged = append(tagged, r)
		}
	}
	return tagged, nil
}

// Update applies p to the recipe with the given id. It returns nil if there
// is no such recipe.
func (s *Store) Update(ctx context.Context, id string, p Patch) (*Recipe, error) {
	fields, err := docstore.Encode(p)
	if err != nil {
		return nil, err
	}
	doc, err := s.c.FindByIDAndUpdate(ctx, id, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to update recipe %s: %w", id, err)
	}
	if doc == nil {
		return nil, nil
	}
	return docstore.Decode[Recipe](doc)
}
