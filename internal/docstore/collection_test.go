package docstore_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sproutchef/internal/docstore"
)

var fixedNow = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

var groceries = docstore.Schema{
	Name:         "grocery_items",
	OwnerField:   "userId",
	CreatedField: "createdAt",
	UpdatedField: "updatedAt",
	Defaults:     docstore.Document{"category": "Uncategorized", "isChecked": false},
}

var impacts = docstore.Schema{
	Name:         "user_impacts",
	OwnerField:   "user_id",
	CreatedField: "created_at",
	SaveKey:      "user_id",
}

func newFileDB(t *testing.T) (*docstore.DB, *docstore.FileBackend) {
	t.Helper()
	b, err := docstore.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	return docstore.Open(b, docstore.WithClock(fixedClock)), b
}

func TestCollection_CreateAndFindByID(t *testing.T) {
	ctx := context.Background()
	db, _ := newFileDB(t)
	c := db.Collection(docstore.Schema{Name: "users", CreatedField: "created_at"})

	created, err := c.Create(ctx, docstore.Document{"name": "Albert", "diet_level": "vegan", "forbidden_tags": []any{"honey"}})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID())
	assert.Equal(t, created["_id"], created["id"])
	assert.Equal(t, fixedNow.Format(time.RFC3339Nano), created["created_at"])

	found, err := c.FindByID(ctx, created.ID())
	require.NoError(t, err)
	assert.Equal(t, created, found)
}

func TestCollection_CreateIgnoresCallerIDs(t *testing.T) {
	ctx := context.Background()
	db, _ := newFileDB(t)
	c := db.Collection(docstore.Schema{Name: "users"})

	created, err := c.Create(ctx, docstore.Document{"_id": "mine", "id": "also-mine", "name": "A"})
	require.NoError(t, err)
	assert.NotEqual(t, "mine", created["_id"])
	assert.Equal(t, created["_id"], created["id"])
}

func TestCollection_FindByIDAlias(t *testing.T) {
	ctx := context.Background()
	b := docstore.NewMemoryBackend()
	require.NoError(t, b.Store(ctx, "users", []docstore.Document{
		{"id": "legacy-1", "name": "only alias"},
		{"_id": "primary-2", "name": "only primary"},
	}))
	c := docstore.Open(b).Collection(docstore.Schema{Name: "users"})

	doc, err := c.FindByID(ctx, "legacy-1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "only alias", doc["name"])

	doc, err = c.FindByID(ctx, "primary-2")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "only primary", doc["name"])
}

func TestCollection_AbsenceIsNotAnError(t *testing.T) {
	ctx := context.Background()
	db, _ := newFileDB(t)
	c := db.Collection(groceries)

	doc, err := c.FindByID(ctx, "nonexistent")
	assert.NoError(t, err)
	assert.Nil(t, doc)

	doc, err = c.FindOne(ctx, docstore.Filter{"name": "nothing"})
	assert.NoError(t, err)
	assert.Nil(t, doc)

	doc, err = c.FindByIDAndUpdate(ctx, "nonexistent", docstore.Document{"name": "x"})
	assert.NoError(t, err)
	assert.Nil(t, doc)

	deleted, err := c.Delete(ctx, "nonexistent")
	assert.NoError(t, err)
	assert.False(t, deleted)
}

func TestCollection_UpdateOnMissingDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	db, b := newFileDB(t)
	c := db.Collection(groceries)
	_, err := c.Create(ctx, docstore.Document{"name": "A"})
	require.NoError(t, err)

	before, err := os.ReadFile(b.Path("grocery_items"))
	require.NoError(t, err)
	_, err = c.FindByIDAndUpdate(ctx, "nonexistent", docstore.Document{"name": "B"})
	require.NoError(t, err)
	after, err := os.ReadFile(b.Path("grocery_items"))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCollection_FilterConjunction(t *testing.T) {
	ctx := context.Background()
	db, _ := newFileDB(t)
	c := db.Collection(groceries)

	rows := []docstore.Document{
		{"name": "milk", "category": "Dairy", "isChecked": true},
		{"name": "cheese", "category": "Dairy", "isChecked": false},
		{"name": "apple", "category": "Produce", "isChecked": true},
		{"name": "yogurt", "category": "Dairy", "isChecked": true},
		{"name": "pear", "category": "Produce", "isChecked": false},
		{"name": "bread"},
	}
	for _, r := range rows {
		_, err := c.Create(ctx, r)
		require.NoError(t, err)
	}

	got, err := c.Find(ctx, docstore.Filter{"category": "Dairy", "isChecked": true})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "milk", got[0]["name"])
	assert.Equal(t, "yogurt", got[1]["name"])

	got, err = c.Find(ctx, docstore.Filter{"category": "Uncategorized", "isChecked": false})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "bread", got[0]["name"])

	all, err := c.Find(ctx, docstore.Filter{})
	require.NoError(t, err)
	require.Len(t, all, len(rows))
	for i, r := range rows {
		assert.Equal(t, r["name"], all[i]["name"])
	}

	first, err := c.FindOne(ctx, docstore.Filter{"category": "Produce"})
	require.NoError(t, err)
	assert.Equal(t, "apple", first["name"])
}

func TestCollection_OwnerDualFormEquality(t *testing.T) {
	ctx := context.Background()
	b := docstore.NewMemoryBackend()
	require.NoError(t, b.Store(ctx, "user_impacts", []docstore.Document{
		{"_id": "i1", "id": "i1", "user_id": map[string]any{"$oid": "653b9e2f1c4a5d0012345678"}, "xp": 10},
		{"_id": "i2", "id": "i2", "user_id": float64(7), "xp": 20},
		{"_id": "i3", "id": "i3", "user_id": "99", "xp": 30},
	}))
	c := docstore.Open(b).Collection(impacts)

	doc, err := c.FindOne(ctx, docstore.Filter{"user_id": "653b9e2f1c4a5d0012345678"})
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "i1", doc.ID())

	doc, err = c.FindOne(ctx, docstore.Filter{"user_id": "7"})
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "i2", doc.ID())

	doc, err = c.FindOne(ctx, docstore.Filter{"user_id": 99})
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "i3", doc.ID())
}

func TestCollection_GroceryScenario(t *testing.T) {
	ctx := context.Background()
	db, b := newFileDB(t)
	c := db.Collection(groceries)

	created, err := c.Create(ctx, docstore.Document{"name": "A"})
	require.NoError(t, err)

	data, err := os.ReadFile(b.Path("grocery_items"))
	require.NoError(t, err)
	var onDisk []map[string]any
	require.NoError(t, json.Unmarshal(data, &onDisk))
	require.Len(t, onDisk, 1)
	assert.Equal(t, "A", onDisk[0]["name"])
	assert.Equal(t, "Uncategorized", onDisk[0]["category"])
	assert.Equal(t, false, onDisk[0]["isChecked"])

	updated, err := c.FindByIDAndUpdate(ctx, created.ID(), docstore.Document{"isChecked": true})
	require.NoError(t, err)
	assert.Equal(t, "A", updated["name"])
	assert.Equal(t, "Uncategorized", updated["category"])
	assert.Equal(t, true, updated["isChecked"])
	assert.Equal(t, created["createdAt"], updated["createdAt"])
}

func TestCollection_IdempotentUpdate(t *testing.T) {
	ctx := context.Background()
	db, _ := newFileDB(t)
	c := db.Collection(groceries)
	created, err := c.Create(ctx, docstore.Document{"name": "oats"})
	require.NoError(t, err)

	patch := docstore.Document{"category": "Grains", "isChecked": true}
	once, err := c.FindByIDAndUpdate(ctx, created.ID(), patch)
	require.NoError(t, err)
	twice, err := c.FindByIDAndUpdate(ctx, created.ID(), patch)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestCollection_UpdateKeepsIdentifiers(t *testing.T) {
	ctx := context.Background()
	db, _ := newFileDB(t)
	c := db.Collection(groceries)
	created, err := c.Create(ctx, docstore.Document{"name": "rice"})
	require.NoError(t, err)

	updated, err := c.FindByIDAndUpdate(ctx, created.ID(), docstore.Document{"_id": "hijack", "id": "hijack", "name": "brown rice"})
	require.NoError(t, err)
	assert.Equal(t, created.ID(), updated["_id"])
	assert.Equal(t, created.ID(), updated["id"])
	assert.Equal(t, "brown rice", updated["name"])
}

func TestCollection_SaveByOwnerKey(t *testing.T) {
	ctx := context.Background()
	db, _ := newFileDB(t)
	c := db.Collection(impacts)

	first, err := c.Save(ctx, docstore.Document{"user_id": "u1", "xp": 10, "coins": 5})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID())
	assert.Equal(t, first["_id"], first["id"])

	second, err := c.Save(ctx, docstore.Document{"user_id": "u1", "xp": 20})
	require.NoError(t, err)
	assert.Equal(t, first.ID(), second.ID())
	assert.Equal(t, float64(20), second["xp"])
	assert.Equal(t, float64(5), second["coins"])

	all, err := c.Find(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCollection_ReturnsWhatWasPersisted(t *testing.T) {
	ctx := context.Background()
	db, _ := newFileDB(t)
	c := db.Collection(impacts)

	created, err := c.Create(ctx, docstore.Document{"user_id": "u1", "xp": 0, "tags": []string{"a"}})
	require.NoError(t, err)
	stored, err := c.FindByID(ctx, created.ID())
	require.NoError(t, err)
	assert.Equal(t, stored, created)
	assert.Equal(t, float64(0), created["xp"])

	updated, err := c.FindByIDAndUpdate(ctx, created.ID(), docstore.Document{"xp": 30})
	require.NoError(t, err)
	stored, err = c.FindByID(ctx, created.ID())
	require.NoError(t, err)
	assert.Equal(t, stored, updated)

	saved, err := c.Save(ctx, docstore.Document{"user_id": "u2", "xp": 7})
	require.NoError(t, err)
	stored, err = c.FindByID(ctx, saved.ID())
	require.NoError(t, err)
	assert.Equal(t, stored, saved)
}

func TestCollection_SaveAppliesDefaults(t *testing.T) {
	ctx := context.Background()
	db, _ := newFileDB(t)
	c := db.Collection(groceries)

	saved, err := c.Save(ctx, docstore.Document{"userId": "u1", "name": "Oats"})
	require.NoError(t, err)
	assert.Equal(t, "Uncategorized", saved["category"])
	assert.Equal(t, false, saved["isChecked"])

	kept, err := c.Save(ctx, docstore.Document{"userId": "u1", "name": "Kale", "category": "Produce", "isChecked": true})
	require.NoError(t, err)
	assert.Equal(t, "Produce", kept["category"])
	assert.Equal(t, true, kept["isChecked"])

	stored, err := c.FindByID(ctx, saved.ID())
	require.NoError(t, err)
	assert.Equal(t, "Uncategorized", stored["category"])
}

func TestCollection_SaveByID(t *testing.T) {
	ctx := context.Background()
	db, _ := newFileDB(t)
	c := db.Collection(docstore.Schema{Name: "recipes"})

	created, err := c.Create(ctx, docstore.Document{"title": "Soup", "duration": "20 min"})
	require.NoError(t, err)

	saved, err := c.Save(ctx, docstore.Document{"_id": created.ID(), "title": "Better soup"})
	require.NoError(t, err)
	assert.Equal(t, "Better soup", saved["title"])
	assert.Equal(t, "20 min", saved["duration"])

	appended, err := c.Save(ctx, docstore.Document{"_id": "external", "title": "Salad"})
	require.NoError(t, err)
	assert.Equal(t, "external", appended["id"])

	all, err := c.Find(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCollection_Delete(t *testing.T) {
	ctx := context.Background()
	db, _ := newFileDB(t)
	c := db.Collection(groceries)
	a, err := c.Create(ctx, docstore.Document{"name": "a"})
	require.NoError(t, err)
	b, err := c.Create(ctx, docstore.Document{"name": "b"})
	require.NoError(t, err)

	deleted, err := c.Delete(ctx, a.ID())
	require.NoError(t, err)
	assert.True(t, deleted)

	all, err := c.Find(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, b.ID(), all[0].ID())
}

func TestCollection_ApplyUnderLock(t *testing.T) {
	ctx := context.Background()
	db, _ := newFileDB(t)
	c := db.Collection(impacts)
	created, err := c.Create(ctx, docstore.Document{"user_id": "u1", "xp": 0})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Apply(ctx, created.ID(), func(cur docstore.Document) (docstore.Document, error) {
				xp, _ := cur["xp"].(float64)
				return docstore.Document{"xp": xp + 10}, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	doc, err := c.FindByID(ctx, created.ID())
	require.NoError(t, err)
	assert.Equal(t, float64(200), doc["xp"])
}

func TestCollection_ConcurrentUpdatesAreNotLost(t *testing.T) {
	ctx := context.Background()
	db, _ := newFileDB(t)
	c := db.Collection(groceries)

	const n = 25
	ids := make([]string, n)
	for i := range ids {
		doc, err := c.Create(ctx, docstore.Document{"name": fmt.Sprintf("item-%d", i)})
		require.NoError(t, err)
		ids[i] = doc.ID()
	}

	// A second handle on the same collection shares the lock.
	other := db.Collection(groceries)

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			target := c
			if i%2 == 1 {
				target = other
			}
			_, err := target.FindByIDAndUpdate(ctx, id, docstore.Document{"isChecked": true})
			assert.NoError(t, err)
		}(i, id)
	}
	wg.Wait()

	all, err := c.Find(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, n)
	for _, doc := range all {
		assert.Equal(t, true, doc["isChecked"], "lost update on %s", doc["name"])
	}
}
