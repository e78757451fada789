package recipe

import (
	"context"
	"encoding/json"
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

func TestRecipe_UnmarshalJSON(t *testing.T) {
	var r Recipe
	err := json.Unmarshal([]byte(`{
		"title": "Chickpea curry",
		"tags": [" Vegan", "DINNER "],
		"type": "Veganized",
		"user_id": {"$oid": "653b9e2f1c4a5d0012345678"},
		"ingredients": [{"name": "chickpeas", "amount": 2, "unit": "cups"}, {"name": "salt", "amount": "1 pinch"}]
	}`), &r)
	require.NoError(t, err)
	assert.Equal(t, Veganized, r.Type)
	assert.Equal(t, []string{"vegan", "dinner"}, r.Tags)
	assert.Equal(t, docstore.Ref("653b9e2f1c4a5d0012345678"), r.UserID)
	assert.Equal(t, Ingredient{Name: "chickpeas", Amount: "2", Unit: "cups"}, r.Ingredients[0])
	assert.Equal(t, "1 pinch", r.Ingredients[1].Amount)
}

func TestStore_CreateFindUpdate(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	created, err := s.Create(ctx, &Recipe{
		UserID:      "u1",
		Title:       "Lentil soup",
		Tags:        []string{"soup", "vegan"},
		Duration:    "30 min",
		Ingredients: []Ingredient{{Name: "lentils", Amount: "1", Unit: "cup"}},
		Steps:       []string{"Boil lentils"},
		Type:        Simplified,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	found, err := s.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, found)

	image := "images/abc.png"
	updated, err := s.Update(ctx, created.ID, Patch{Image: &image})
	require.NoError(t, err)
	assert.Equal(t, image, updated.Image)
	assert.Equal(t, "Lentil soup", updated.Title)
	assert.Equal(t, created.Ingredients, updated.Ingredients)

	missing, err := s.FindByID(ctx, "nonexistent")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_Find(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	for _, r := range []*Recipe{
		{UserID: "u1", Title: "A", Tags: []string{"quick"}, Type: Simplified},
		{UserID: "u1", Title: "B", Tags: []string{"dinner"}, Type: Veganized, Substitutions: map[string]string{"butter": "olive oil"}},
		{UserID: "u2", Title: "C", Tags: []string{"quick"}, Type: Simplified},
		{UserID: "u1", Title: "D", Tags: []string{"quick", "dinner"}, Type: Veganized},
	} {
		_, err := s.Create(ctx, r)
		require.NoError(t, err)
	}

	mine, err := s.Find(ctx, Filter{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	veganized, err := s.Find(ctx, Filter{UserID: "u1", Type: Veganized})
	require.NoError(t, err)
	require.Len(t, veganized, 2)
	assert.Equal(t, "B", veganized[0].Title)
	assert.Equal(t, map[string]string{"butter": "olive oil"}, veganized[0].Substitutions)

	quick, err := s.Find(ctx, Filter{UserID: "u1", Tag: "Quick"})
	require.NoError(t, err)
	require.Len(t, quick, 2)
	assert.Equal(t, "A", quick[0].Title)
	assert.Equal(t, "D", quick[1].Title)
}
