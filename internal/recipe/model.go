package recipe

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"sproutchef/internal/docstore"
)

// Kind tells how a recipe was produced.
type Kind string

const (
	Simplified Kind = "simplified"
	Veganized  Kind = "veganized"
)

// Ingredient is one line of a recipe.
type Ingredient struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
	Unit   string `json:"unit"`
}

// UnmarshalJSON implements the json.Unmarshaler interface for Ingredient.
// Generated recipes sometimes carry the amount as a number.
func (i *Ingredient) UnmarshalJSON(data []byte) error {
	var aux struct {
		Name   string          `json:"name"`
		Amount json.RawMessage `json:"amount"`
		Unit   string          `json:"unit"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	i.Name = strings.TrimSpace(aux.Name)
	i.Unit = strings.TrimSpace(aux.Unit)
	i.Amount = ""
	if len(aux.Amount) == 0 || string(aux.Amount) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(aux.Amount, &s); err == nil {
		i.Amount = strings.TrimSpace(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(aux.Amount, &f); err != nil {
		return err
	}
	i.Amount = strconv.FormatFloat(f, 'f', -1, 64)
	return nil
}

// Recipe represents a stored recipe.
type Recipe struct {
	ID            string            `json:"_id,omitempty"`
	AliasID       string            `json:"id,omitempty"`
	UserID        docstore.Ref      `json:"user_id,omitempty"`
	Title         string            `json:"title"`
	Tags          []string          `json:"tags"`
	Duration      string            `json:"duration"`
	Ingredients   []Ingredient      `json:"ingredients"`
	Steps         []string          `json:"steps"`
	Image         string            `json:"image,omitempty"`
	Prompt        string            `json:"prompt,omitempty"`
	Type          Kind              `json:"type"`
	Substitutions map[string]string `json:"substitutions,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// UnmarshalJSON implements the json.Unmarshaler interface for Recipe.
func (r *Recipe) UnmarshalJSON(data []byte) error {
	type Alias Recipe // Create an alias to avoid infinite recursion
	aux := &struct {
		Type string `json:"type"`
		*Alias
	}{
		Alias: (*Alias)(r),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.Type = Kind(strings.ToLower(strings.TrimSpace(aux.Type)))
	for i, t := range r.Tags {
		r.Tags[i] = strings.ToLower(strings.TrimSpace(t))
	}

	return nil
}

// HasTag reports whether the recipe carries tag.
func (r *Recipe) HasTag(tag string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Patch holds the fields of a partial recipe update. Nil fields are left
// unchanged.
type Patch struct {
	Title         *string            `json:"title,omitempty"`
	Tags          *[]string          `json:"tags,omitempty"`
	Duration      *string            `json:"duration,omitempty"`
	Ingredients   *[]Ingredient      `json:"ingredients,omitempty"`
	Steps         *[]string          `json:"steps,omitempty"`
	Image         *string            `json:"image,omitempty"`
	Substitutions *map[string]string `json:"substitutions,omitempty"`
}

// Filter selects recipes. UserID and Type are matched by equality; Tag by
// membership in the recipe's tags.
type Filter struct {
	UserID string
	Type   Kind
	Tag    string
}
