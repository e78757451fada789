// Package diet holds the diet levels and the tables of ingredient tags each
// level forbids.
package diet

import (
	"sort"
	"strings"
)

// Level is a diet level a user follows.
type Level string

const (
	Vegan       Level = "vegan"
	Vegetarian  Level = "vegetarian"
	Pescatarian Level = "pescatarian"
	Ovo         Level = "ovo"
	Lacto       Level = "lacto"
	LactoOvo    Level = "lacto_ovo"
	Flexitarian Level = "flexitarian"
)

// Ingredient tags used by the forbidden tables.
const (
	TagMeat    = "meat"
	TagPoultry = "poultry"
	TagFish    = "fish"
	TagSeafood = "seafood"
	TagDairy   = "dairy"
	TagEgg     = "egg"
	TagHoney   = "honey"
	TagGelatin = "gelatin"
)

var forbidden = map[Level][]string{
	Vegan:       {TagMeat, TagPoultry, TagFish, TagSeafood, TagDairy, TagEgg, TagHoney, TagGelatin},
	Vegetarian:  {TagMeat, TagPoultry, TagFish, TagSeafood, TagGelatin},
	Pescatarian: {TagMeat, TagPoultry, TagGelatin},
	Ovo:         {TagMeat, TagPoultry, TagFish, TagSeafood, TagDairy, TagGelatin},
	Lacto:       {TagMeat, TagPoultry, TagFish, TagSeafood, TagEgg, TagGelatin},
	LactoOvo:    {TagMeat, TagPoultry, TagFish, TagSeafood, TagGelatin},
	Flexitarian: {},
}

// Levels returns every known level in a stable order.
func Levels() []Level {
	return []Level{Vegan, Vegetarian, Pescatarian, Ovo, Lacto, LactoOvo, Flexitarian}
}

// Valid reports whether l is a known level.
func (l Level) Valid() bool {
	_, ok := forbidden[l]
	return ok
}

// ForbiddenTags returns the static tags the level forbids.
func (l Level) ForbiddenTags() []string {
	return append([]string(nil), forbidden[l]...)
}

// Profile is what the compatibility check needs to know about a user.
type Profile struct {
	Level         Level
	ForbiddenTags []string
	Allergies     []string
}

// Verdict is the outcome of checking one ingredient.
type Verdict struct {
	Allowed bool     `json:"allowed"`
	Reasons []string `json:"reasons,omitempty"`
}

// Check decides whether an ingredient with the given tags fits the profile.
// It is disallowed if any tag is forbidden by the level, by the user's own
// forbidden tags or by the user's allergies. Reasons lists the offending
// tags, sorted.
func Check(p Profile, tags []string) Verdict {
	blocked := make(map[string]bool)
	for _, t := range forbidden[p.Level] {
		blocked[t] = true
	}
	for _, t := range p.ForbiddenTags {
		blocked[normalizeTag(t)] = true
	}
	for _, t := range p.Allergies {
		blocked[normalizeTag(t)] = true
	}

	seen := make(map[string]bool)
	var reasons []string
	for _, t := range tags {
		t = normalizeTag(t)
		if blocked[t] && !seen[t] {
			seen[t] = true
			reasons = append(reasons, t)
		}
	}
	sort.Strings(reasons)
	return Verdict{Allowed: len(reasons) == 0, Reasons: reasons}
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
