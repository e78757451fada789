package docstore

import (
	"encoding/json"
	"reflect"
)

// Filter is a conjunctive field-equality query. An empty Filter matches
// every document.
type Filter map[string]any

// Matcher decides whether documents satisfy a Filter. Fields listed in
// idFields are compared by value first and then by their string form, so a
// raw identifier and its stringified form select the same document.
type Matcher struct {
	idFields map[string]bool
}

// NewMatcher creates a Matcher that treats the given fields as identifiers.
// IDField and AliasField are always identifier fields.
func NewMatcher(idFields ...string) *Matcher {
	m := &Matcher{idFields: map[string]bool{IDField: true, AliasField: true}}
	for _, f := range idFields {
		if f != "" {
			m.idFields[f] = true
		}
	}
	return m
}

// Matches reports whether doc satisfies every field of filter.
func (m *Matcher) Matches(filter Filter, doc Document) bool {
	for field, want := range filter {
		got, ok := doc[field]
		if !ok {
			if want == nil {
				continue
			}
			return false
		}
		if !m.equal(field, want, got) {
			return false
		}
	}
	return true
}

func (m *Matcher) equal(field string, want, got any) bool {
	if reflect.DeepEqual(want, got) {
		return true
	}
	if !m.idFields[field] || want == nil || got == nil {
		return false
	}
	return idString(want) == idString(got)
}

// normalize brings filter values into the shape a decoded document has, so
// an int filter value compares equal to a float64 loaded from JSON. Values
// that cannot be marshaled are kept as given.
func normalize(filter Filter) Filter {
	out := make(Filter, len(filter))
	for k, v := range filter {
		b, err := json.Marshal(v)
		if err != nil {
			out[k] = v
			continue
		}
		var n any
		if err := json.Unmarshal(b, &n); err != nil {
			out[k] = v
			continue
		}
		out[k] = n
	}
	return out
}
