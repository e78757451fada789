package diet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		tags    []string
		allowed bool
		reasons []string
	}{
		{"vegan rejects dairy", Profile{Level: Vegan}, []string{"dairy"}, false, []string{"dairy"}},
		{"vegan accepts legumes", Profile{Level: Vegan}, []string{"legume", "protein"}, true, nil},
		{"vegetarian accepts egg", Profile{Level: Vegetarian}, []string{"egg"}, true, nil},
		{"pescatarian accepts fish", Profile{Level: Pescatarian}, []string{"fish"}, true, nil},
		{"ovo rejects dairy", Profile{Level: Ovo}, []string{"Dairy"}, false, []string{"dairy"}},
		{"lacto rejects egg", Profile{Level: Lacto}, []string{"egg"}, false, []string{"egg"}},
		{"flexitarian accepts meat", Profile{Level: Flexitarian}, []string{"meat"}, true, nil},
		{"custom forbidden tag", Profile{Level: Flexitarian, ForbiddenTags: []string{"Mushroom"}}, []string{"mushroom"}, false, []string{"mushroom"}},
		{"allergy", Profile{Level: Vegetarian, Allergies: []string{"peanut"}}, []string{" PEANUT ", "nut"}, false, []string{"peanut"}},
		{"several reasons sorted once", Profile{Level: Vegan}, []string{"meat", "egg", "meat"}, false, []string{"egg", "meat"}},
		{"unknown level only custom tags apply", Profile{Level: "keto", ForbiddenTags: []string{"sugar"}}, []string{"meat"}, true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Check(tt.profile, tt.tags)
			assert.Equal(t, tt.allowed, v.Allowed)
			assert.Equal(t, tt.reasons, v.Reasons)
		})
	}
}

func TestLevels(t *testing.T) {
	for _, l := range Levels() {
		assert.True(t, l.Valid(), l)
	}
	assert.False(t, Level("carnivore").Valid())
	assert.Equal(t, Vegetarian.ForbiddenTags(), LactoOvo.ForbiddenTags())
	assert.Empty(t, Flexitarian.ForbiddenTags())
}
