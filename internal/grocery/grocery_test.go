package grocery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sproutchef/internal/docstore"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	b, err := docstore.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	return NewStore(docstore.Open(b))
}

func TestStore_CreateDefaultsAndCheck(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	item, err := s.Create(ctx, "u1", NewItem{Name: "A"})
	require.NoError(t, err)
	assert.Equal(t, "A", item.Name)
	assert.Equal(t, DefaultCategory, item.Category)
	assert.False(t, item.IsChecked)
	assert.Equal(t, docstore.Ref("u1"), item.UserID)

	checked := true
	updated, err := s.Update(ctx, item.ID, Patch{IsChecked: &checked})
	require.NoError(t, err)
	assert.Equal(t, "A", updated.Name)
	assert.Equal(t, DefaultCategory, updated.Category)
	assert.True(t, updated.IsChecked)
	assert.False(t, updated.UpdatedAt.Before(item.UpdatedAt))

	unchecked := false
	updated, err = s.Update(ctx, item.ID, Patch{IsChecked: &unchecked})
	require.NoError(t, err)
	assert.False(t, updated.IsChecked)
}

func TestStore_FindAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	milk, err := s.Create(ctx, "u1", NewItem{Name: "milk", Category: "Dairy"})
	require.NoError(t, err)
	_, err = s.Create(ctx, "u1", NewItem{Name: "apples", Category: "Produce"})
	require.NoError(t, err)
	_, err = s.Create(ctx, "u2", NewItem{Name: "bread"})
	require.NoError(t, err)

	checked := true
	_, err = s.Update(ctx, milk.ID, Patch{IsChecked: &checked})
	require.NoError(t, err)

	mine, err := s.Find(ctx, Filter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "milk", mine[0].Name)

	done, err := s.Find(ctx, Filter{UserID: "u1", Checked: &checked})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, milk.ID, done[0].ID)

	produce, err := s.Find(ctx, Filter{Category: "Produce"})
	require.NoError(t, err)
	require.Len(t, produce, 1)

	deleted, err := s.Delete(ctx, milk.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	gone, err := s.FindByID(ctx, milk.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	deleted, err = s.Delete(ctx, milk.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}
