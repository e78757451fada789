package user

import (
	"time"

	"sproutchef/internal/diet"
)

// User is the profile of one person using the assistant.
type User struct {
	ID                string     `json:"_id,omitempty"`
	AliasID           string     `json:"id,omitempty"`
	Name              string     `json:"name"`
	DietLevel         diet.Level `json:"diet_level"`
	ForbiddenTags     []string   `json:"forbidden_tags"`
	Allergies         []string   `json:"allergies"`
	PreferredCuisines []string   `json:"preferred_cuisines"`
	CookingStyles     []string   `json:"cooking_styles"`
	SproutName        string     `json:"sprout_name"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Profile returns the diet profile used by compatibility checks.
func (u *User) Profile() diet.Profile {
	return diet.Profile{
		Level:         u.DietLevel,
		ForbiddenTags: u.ForbiddenTags,
		Allergies:     u.Allergies,
	}
}

// Patch holds the fields of a partial profile update. Nil fields are left
// unchanged.
type Patch struct {
	Name              *string     `json:"name,omitempty"`
	DietLevel         *diet.Level `json:"diet_level,omitempty" binding:"omitempty,diet_level"`
	ForbiddenTags     *[]string   `json:"forbidden_tags,omitempty"`
	Allergies         *[]string   `json:"allergies,omitempty"`
	PreferredCuisines *[]string   `json:"preferred_cuisines,omitempty"`
	CookingStyles     *[]string   `json:"cooking_styles,omitempty"`
	SproutName        *string     `json:"sprout_name,omitempty"`
}

// Filter selects users by equality on the set fields.
type Filter struct {
	Name      string
	DietLevel diet.Level
}
