// Package user stores user profiles.
package user

import (
	"context"
	"fmt"
	"log"

	"sproutchef/internal/diet"
	"sproutchef/internal/docstore"
)

// Schema is the users collection.
var Schema = docstore.Schema{
	Name:         "users",
	CreatedField: "created_at",
}

// Store reads and writes users.
type Store struct {
	c *docstore.Collection
}

// NewStore creates a Store over the users collection of db.
func NewStore(db *docstore.DB) *Store {
	return &Store{c: db.Collection(Schema)}
}

// Create stores a new user.
func (s *Store) Create(ctx context.Context, u *User) (*User, error) {
	fields, err := docstore.Encode(u)
	if err != nil {
		return nil, err
	}
	doc, err := s.c.Create(ctx, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return docstore.Decode[User](doc)
}

// FindByID returns the user with the given id, or nil.
func (s *Store) FindByID(ctx context.Context, id string) (*User, error) {
	doc, err := s.c.FindByID(ctx, id)
	if err != nil || doc == nil {
		return nil, err
	}
	return docstore.Decode[User](doc)
}

// Find returns the users matching f.
func (s *Store) Find(ctx context.Context, f Filter) ([]*User, error) {
	docs, err := s.c.Find(ctx, f.fields())
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[User](docs)
}

// FindOne returns the first user matching f, or nil.
func (s *Store) FindOne(ctx context.Context, f Filter) (*User, error) {
	doc, err := s.c.FindOne(ctx, f.fields())
	if err != nil || doc == nil {
		return nil, err
	}
	return docstore.Decode[User](doc)
}

// Update applies p to the user with the given id. It returns nil if there is
// no such user.
func (s *Store) Update(ctx context.Context, id string, p Patch) (*User, error) {
	fields, err := docstore.Encode(p)
	if err != nil {
		return nil, err
	}
	doc, err := s.c.FindByIDAndUpdate(ctx, id, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", id, err)
	}
	if doc == nil {
		return nil, nil
	}
	return docstore.Decode[User](doc)
}

// EnsureDefault resolves the user the single-user deployment acts for. A
// configured id wins; otherwise the first user named name is used, and one is
// created if none exists.
func (s *Store) EnsureDefault(ctx context.Context, id, name string) (*User, error) {
	if id != "" {
		u, err := s.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if u != nil {
			return u, nil
		}
		log.Printf("Default user %s not found, falling back to name %q", id, name)
	}

	u, err := s.FindOne(ctx, Filter{Name: name})
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}

	u, err = s.Create(ctx, &User{
		Name:              name,
		DietLevel:         diet.Vegetarian,
		ForbiddenTags:     []string{},
		Allergies:         []string{},
		PreferredCuisines: []string{},
		CookingStyles:     []string{},
		SproutName:        "Sprout",
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Created default user %q with id %s", u.Name, u.ID)
	return u, nil
}

func (f Filter) fields() docstore.Filter {
	out := docstore.Filter{}
	if f.Name != "" {
		out["name"] = f.Name
	}
	if f.DietLevel != "" {
		out["diet_level"] = string(f.DietLevel)
	}
	return out
}
